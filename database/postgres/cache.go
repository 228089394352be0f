package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type cacheStore struct {
	pool      *pgxpool.Pool
	tableName string
}

func (s *cacheStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1 AND expires_at > NOW()`, s.tableName)

	var value []byte
	if err := s.pool.QueryRow(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	return value, true, nil
}

func (s *cacheStore) Put(ctx context.Context, key string, expires time.Time, b []byte) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, expires_at, value) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET expires_at = EXCLUDED.expires_at, value = EXCLUDED.value
	`, s.tableName)

	if _, err := s.pool.Exec(ctx, query, key, expires, b); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

func (s *cacheStore) Purge(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, s.tableName)

	if _, err := s.pool.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("cache purge: %w", err)
	}
	return nil
}

func (s *cacheStore) PurgeExpired(ctx context.Context) (int, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE expires_at <= NOW()`, s.tableName)

	tag, err := s.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("cache purge expired: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
