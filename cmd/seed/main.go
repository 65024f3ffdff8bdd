// seed creates a test user with a handful of tasks in the local dev database.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/ErlanBelekov/taskapi/internal/domain"
	"github.com/ErlanBelekov/taskapi/internal/infrastructure/postgres"
)

const seedEmail = "seed@test.local"

var tasks = []struct {
	name, description string
	completed         bool
}{
	{"Buy groceries", "Milk, eggs, bread", false},
	{"Write report", "Quarterly numbers for the team", false},
	{"Book dentist", "Any weekday morning", true},
	{"Renew passport", "Expires in March", false},
	{"Fix bike", "Rear brake pads", true},
}

func main() {
	ctx := context.Background()

	_ = godotenv.Load()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	if err := postgres.Migrate(dbURL); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	user, err := postgres.NewUserRepository(pool).FindOrCreate(ctx, seedEmail)
	if err != nil {
		log.Fatalf("upsert user: %v", err)
	}

	taskRepo := postgres.NewTaskRepository(pool)
	existing, err := taskRepo.ListByUser(ctx, user.ID)
	if err != nil {
		log.Fatalf("list tasks: %v", err)
	}

	// Re-runs only add tasks the user does not have yet.
	have := make(map[string]bool, len(existing))
	for _, t := range existing {
		have[t.Name] = true
	}

	var inserted, skipped int
	for _, spec := range tasks {
		if have[spec.name] {
			skipped++
			continue
		}
		created, err := taskRepo.Create(ctx, &domain.Task{
			UserID:      user.ID,
			Name:        spec.name,
			Description: spec.description,
		})
		if err != nil {
			log.Fatalf("insert task %q: %v", spec.name, err)
		}
		if spec.completed {
			created.Completed = true
			if _, err := taskRepo.Update(ctx, created); err != nil {
				log.Fatalf("complete task %q: %v", spec.name, err)
			}
		}
		inserted++
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  User:          %s\n", seedEmail)
	fmt.Printf("  User ID:       %d\n", user.ID)
	fmt.Printf("  Tasks created: %d  (skipped %d already existing)\n", inserted, skipped)
	fmt.Println()
	fmt.Println("How to test:")
	fmt.Println()
	fmt.Println("  Step 1 — request a magic link for the seed user:")
	fmt.Println()
	fmt.Printf("    curl -s -X POST 'http://localhost:8080/auth?email=%s'\n", seedEmail)
	fmt.Println()
	fmt.Println("    # With ENV=local the email is written to the server log. Copy the token, then:")
	fmt.Println()
	fmt.Println("    curl -s -X POST 'http://localhost:8080/auth/validate?tokenString=TOKEN'")
	fmt.Println("    # → eyJ... (the access token)")
	fmt.Println()
	fmt.Println("  Step 2 — list the seeded tasks:")
	fmt.Println()
	fmt.Println("    export JWT=eyJ...")
	fmt.Println("    curl -s http://localhost:8080/tasks -H \"Authorization: Bearer $JWT\"")
}
