package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrTokenNotFound is returned when no token has been persisted
var ErrTokenNotFound = errors.New("token not found")

// defaultAccount keys the single token row; the client holds one session at a time
const defaultAccount = "default"

// PostgresTokenRepository persists the bearer token in PostgreSQL
type PostgresTokenRepository struct {
	db *pgxpool.Pool
}

// NewPostgresTokenRepository creates a new token repository
func NewPostgresTokenRepository(db *pgxpool.Pool) *PostgresTokenRepository {
	return &PostgresTokenRepository{db: db}
}

// Migrate creates the tokens table if it does not exist
func (r *PostgresTokenRepository) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS oauth_tokens (
			account      TEXT PRIMARY KEY,
			access_token TEXT NOT NULL,
			saved_at     TIMESTAMPTZ NOT NULL
		)
	`
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create oauth_tokens table: %w", err)
	}
	return nil
}

// Get retrieves the stored token
func (r *PostgresTokenRepository) Get(ctx context.Context) (string, error) {
	query := `SELECT access_token FROM oauth_tokens WHERE account = $1`
	var token string
	err := r.db.QueryRow(ctx, query, defaultAccount).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrTokenNotFound
		}
		return "", fmt.Errorf("failed to get token: %w", err)
	}
	return token, nil
}

// Save stores the token, replacing any previous one
func (r *PostgresTokenRepository) Save(ctx context.Context, token string) error {
	query := `
		INSERT INTO oauth_tokens (account, access_token, saved_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (account) DO UPDATE
		SET access_token = EXCLUDED.access_token, saved_at = EXCLUDED.saved_at
	`
	_, err := r.db.Exec(ctx, query, defaultAccount, token, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Delete removes the stored token
func (r *PostgresTokenRepository) Delete(ctx context.Context) error {
	query := `DELETE FROM oauth_tokens WHERE account = $1`
	if _, err := r.db.Exec(ctx, query, defaultAccount); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
