package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// cacheStore keeps cached responses in a table. Expiry times are stored as
// unix milliseconds.
type cacheStore struct {
	db        *sql.DB
	tableName string
}

func (s *cacheStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = ? AND expires_at > ?`, s.tableName) //nolint:gosec // G201: table name is validated

	var value []byte
	err := s.db.QueryRowContext(ctx, query, key, time.Now().UnixMilli()).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	return value, true, nil
}

func (s *cacheStore) Put(ctx context.Context, key string, expires time.Time, b []byte) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (key, expires_at, value) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET expires_at = excluded.expires_at, value = excluded.value`, s.tableName)

	if _, err := s.db.ExecContext(ctx, query, key, expires.UnixMilli(), b); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

func (s *cacheStore) Purge(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, s.tableName) //nolint:gosec // G201: table name is validated

	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("cache purge: %w", err)
	}
	return nil
}

func (s *cacheStore) PurgeExpired(ctx context.Context) (int, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE expires_at <= ?`, s.tableName) //nolint:gosec // G201: table name is validated

	result, err := s.db.ExecContext(ctx, query, time.Now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("cache purge expired: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cache purge expired: rows affected: %w", err)
	}
	return int(n), nil
}
