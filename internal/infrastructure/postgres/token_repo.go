package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ErlanBelekov/taskapi/internal/domain"
)

var errDuplicateTokenValue = errors.New("magic token value already exists")

type MagicTokenRepository struct {
	pool *pgxpool.Pool
}

func NewMagicTokenRepository(pool *pgxpool.Pool) *MagicTokenRepository {
	return &MagicTokenRepository{pool: pool}
}

// Create stamps expires_at from the database clock.
func (r *MagicTokenRepository) Create(ctx context.Context, userID int64, value string, ttl time.Duration) (*domain.MagicToken, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO magic_tokens (user_id, value, expires_at)
		VALUES ($1, $2, NOW() + make_interval(secs => $3))
		RETURNING id, user_id, value, expires_at, used, used_at, created_at`,
		userID, value, ttl.Seconds(),
	)
	mt, err := scanMagicToken(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: %w", errDuplicateTokenValue, err)
		}
		return nil, fmt.Errorf("insert magic token: %w", err)
	}
	return mt, nil
}

func (r *MagicTokenRepository) FindByValue(ctx context.Context, value string) (*domain.MagicToken, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, value, expires_at, used, used_at, created_at
		FROM magic_tokens
		WHERE value = $1`,
		value,
	)
	return scanMagicToken(row)
}

// MarkUsed is a compare-and-set on the used flag: of N concurrent callers
// for the same id exactly one sees a row affected.
func (r *MagicTokenRepository) MarkUsed(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE magic_tokens
		SET    used    = TRUE,
		       used_at = NOW()
		WHERE  id   = $1
		  AND  used = FALSE`,
		id,
	)
	if err != nil {
		return fmt.Errorf("mark magic token used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTokenAlreadyUsed
	}
	return nil
}

func scanMagicToken(row rowScanner) (*domain.MagicToken, error) {
	var mt domain.MagicToken
	err := row.Scan(&mt.ID, &mt.UserID, &mt.Value, &mt.ExpiresAt, &mt.Used, &mt.UsedAt, &mt.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMagicTokenNotFound
		}
		return nil, err
	}
	return &mt, nil
}
