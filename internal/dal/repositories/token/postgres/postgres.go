package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/Dongwon38/print-agent/internal/dal/postgres"
)

// slot is the primary key of the single token row.
const slot = 1

// TokenRepository keeps the session token in the agent_tokens table.
type TokenRepository struct {
	client *postgres.Client
}

// NewTokenRepository creates a new token repository.
func NewTokenRepository(client *postgres.Client) *TokenRepository {
	return &TokenRepository{
		client: client,
	}
}

// Load returns the stored token, or "" when no row exists.
func (r *TokenRepository) Load(ctx context.Context) (string, error) {
	query, args, err := loadQuery()
	if err != nil {
		return "", fmt.Errorf("failed to build select query: %w", err)
	}

	var token string
	err = r.client.DB().QueryRowContext(ctx, query, args...).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load token: %w", err)
	}

	return token, nil
}

// Save upserts the token row.
func (r *TokenRepository) Save(ctx context.Context, token string) error {
	query, args, err := saveQuery(token, time.Now())
	if err != nil {
		return fmt.Errorf("failed to build upsert query: %w", err)
	}

	if _, err := r.client.DB().ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	return nil
}

// Clear deletes the token row.
func (r *TokenRepository) Clear(ctx context.Context) error {
	query, args, err := clearQuery()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err := r.client.DB().ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}

	return nil
}

func loadQuery() (string, []any, error) {
	return sq.Select("token").
		From("agent_tokens").
		Where(sq.Eq{"id": slot}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
}

func saveQuery(token string, now time.Time) (string, []any, error) {
	return sq.Insert("agent_tokens").
		Columns("id", "token", "updated_at").
		Values(slot, token, now).
		Suffix("ON CONFLICT (id) DO UPDATE SET token = EXCLUDED.token, updated_at = EXCLUDED.updated_at").
		PlaceholderFormat(sq.Dollar).
		ToSql()
}

func clearQuery() (string, []any, error) {
	return sq.Delete("agent_tokens").
		Where(sq.Eq{"id": slot}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
}
