package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/desertthunder/soundwave/internal/shared"
)

// TokenRepository implements [TokenStore] over the session_tokens table.
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new [TokenRepository] with the given database connection.
// The schema must already be migrated with [shared.RunMigrations].
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Load(ctx context.Context, names ...string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	if len(names) == 0 {
		return out, nil
	}

	query := fmt.Sprintf("SELECT name, value FROM session_tokens WHERE name IN (%s)", placeholders(len(names)))
	rows, err := r.db.QueryContext(ctx, query, anySlice(names)...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query tokens: %v", shared.ErrTokenStore, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("%w: failed to scan token: %v", shared.ErrTokenStore, err)
		}
		out[name] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate tokens: %v", shared.ErrTokenStore, err)
	}
	return out, nil
}

// Save upserts every token inside a single transaction.
func (r *TokenRepository) Save(ctx context.Context, tokens map[string]string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", shared.ErrTokenStore, err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO session_tokens (name, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`
	for name, value := range tokens {
		if _, err := tx.ExecContext(ctx, query, name, value); err != nil {
			return fmt.Errorf("%w: failed to save %s: %v", shared.ErrTokenStore, name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit tokens: %v", shared.ErrTokenStore, err)
	}
	return nil
}

func (r *TokenRepository) Delete(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}

	query := fmt.Sprintf("DELETE FROM session_tokens WHERE name IN (%s)", placeholders(len(names)))
	if _, err := r.db.ExecContext(ctx, query, anySlice(names)...); err != nil {
		return fmt.Errorf("%w: failed to delete tokens: %v", shared.ErrTokenStore, err)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func anySlice(names []string) []any {
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}
	return args
}
