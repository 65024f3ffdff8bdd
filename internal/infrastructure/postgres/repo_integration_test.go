package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ErlanBelekov/taskapi/internal/domain"
	"github.com/ErlanBelekov/taskapi/internal/infrastructure/postgres"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("taskapi"),
		tcpostgres.WithUsername("taskapi"),
		tcpostgres.WithPassword("taskapi"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dbURL, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, postgres.Migrate(dbURL))
	// second run must be a no-op
	require.NoError(t, postgres.Migrate(dbURL))

	pool, err := postgres.NewPool(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func TestRepositories(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()

	users := postgres.NewUserRepository(pool)
	tokens := postgres.NewMagicTokenRepository(pool)
	tasks := postgres.NewTaskRepository(pool)

	t.Run("FindOrCreate reuses the user for a known email", func(t *testing.T) {
		first, err := users.FindOrCreate(ctx, "reuse@example.com")
		require.NoError(t, err)
		second, err := users.FindOrCreate(ctx, "reuse@example.com")
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)

		var n int
		require.NoError(t, pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM users WHERE email = $1`, "reuse@example.com").Scan(&n))
		assert.Equal(t, 1, n)
	})

	t.Run("FindOrCreate concurrent first login creates one user", func(t *testing.T) {
		const callers = 10
		ids := make([]int64, callers)
		var wg sync.WaitGroup
		for i := range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				u, err := users.FindOrCreate(ctx, "race@example.com")
				if assert.NoError(t, err) {
					ids[i] = u.ID
				}
			}()
		}
		wg.Wait()

		for _, id := range ids {
			assert.Equal(t, ids[0], id)
		}
	})

	t.Run("FindByID unknown user", func(t *testing.T) {
		_, err := users.FindByID(ctx, 999_999)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("token expiry is set by the store", func(t *testing.T) {
		u, err := users.FindOrCreate(ctx, "expiry@example.com")
		require.NoError(t, err)

		before := time.Now()
		mt, err := tokens.Create(ctx, u.ID, "value-expiry", 15*time.Minute)
		require.NoError(t, err)

		assert.False(t, mt.Used)
		assert.Nil(t, mt.UsedAt)
		assert.WithinDuration(t, before.Add(15*time.Minute), mt.ExpiresAt, time.Minute)

		found, err := tokens.FindByValue(ctx, "value-expiry")
		require.NoError(t, err)
		assert.Equal(t, mt.ID, found.ID)
		assert.Equal(t, u.ID, found.UserID)
	})

	t.Run("token value is unique", func(t *testing.T) {
		u, err := users.FindOrCreate(ctx, "dup@example.com")
		require.NoError(t, err)

		_, err = tokens.Create(ctx, u.ID, "value-dup", time.Minute)
		require.NoError(t, err)
		_, err = tokens.Create(ctx, u.ID, "value-dup", time.Minute)
		require.Error(t, err)

		var pgErr *pgconn.PgError
		require.ErrorAs(t, err, &pgErr)
		assert.Equal(t, "23505", pgErr.Code)
		assert.Contains(t, err.Error(), "magic token value already exists")
	})

	t.Run("FindByValue never issued", func(t *testing.T) {
		_, err := tokens.FindByValue(ctx, "never-issued")
		assert.ErrorIs(t, err, domain.ErrMagicTokenNotFound)
	})

	t.Run("MarkUsed flips once and keeps the row", func(t *testing.T) {
		u, err := users.FindOrCreate(ctx, "once@example.com")
		require.NoError(t, err)
		mt, err := tokens.Create(ctx, u.ID, "value-once", time.Minute)
		require.NoError(t, err)

		require.NoError(t, tokens.MarkUsed(ctx, mt.ID))
		assert.ErrorIs(t, tokens.MarkUsed(ctx, mt.ID), domain.ErrTokenAlreadyUsed)

		found, err := tokens.FindByValue(ctx, "value-once")
		require.NoError(t, err)
		assert.True(t, found.Used)
		assert.NotNil(t, found.UsedAt)
	})

	t.Run("MarkUsed concurrent callers, one winner", func(t *testing.T) {
		u, err := users.FindOrCreate(ctx, "cas@example.com")
		require.NoError(t, err)
		mt, err := tokens.Create(ctx, u.ID, "value-cas", time.Minute)
		require.NoError(t, err)

		const callers = 20
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			wins     int
			lostRace int
		)
		for range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := tokens.MarkUsed(ctx, mt.ID)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					wins++
				case errors.Is(err, domain.ErrTokenAlreadyUsed):
					lostRace++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, wins)
		assert.Equal(t, callers-1, lostRace)
	})

	t.Run("tasks are listed per owner", func(t *testing.T) {
		alice, err := users.FindOrCreate(ctx, "alice@example.com")
		require.NoError(t, err)
		bob, err := users.FindOrCreate(ctx, "bob@example.com")
		require.NoError(t, err)

		for i := range 3 {
			_, err := tasks.Create(ctx, &domain.Task{UserID: alice.ID, Name: fmt.Sprintf("a%d", i), Description: "d"})
			require.NoError(t, err)
		}
		bobTask, err := tasks.Create(ctx, &domain.Task{UserID: bob.ID, Name: "b", Description: "d"})
		require.NoError(t, err)

		list, err := tasks.ListByUser(ctx, alice.ID)
		require.NoError(t, err)
		assert.Len(t, list, 3)
		for _, task := range list {
			assert.Equal(t, alice.ID, task.UserID)
			assert.NotEqual(t, bobTask.ID, task.ID)
		}

		empty, err := tasks.ListByUser(ctx, 999_999)
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)
	})

	t.Run("task update and delete", func(t *testing.T) {
		owner, err := users.FindOrCreate(ctx, "crud@example.com")
		require.NoError(t, err)

		created, err := tasks.Create(ctx, &domain.Task{UserID: owner.ID, Name: "n", Description: "d"})
		require.NoError(t, err)
		assert.False(t, created.Completed)

		created.Completed = true
		created.Name = "renamed"
		updated, err := tasks.Update(ctx, created)
		require.NoError(t, err)
		assert.True(t, updated.Completed)
		assert.Equal(t, "renamed", updated.Name)
		assert.Equal(t, "d", updated.Description)

		require.NoError(t, tasks.Delete(ctx, created.ID))
		assert.ErrorIs(t, tasks.Delete(ctx, created.ID), domain.ErrTaskNotFound)

		_, err = tasks.GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)

		_, err = tasks.Update(ctx, &domain.Task{ID: created.ID, Name: "x"})
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	})
}
