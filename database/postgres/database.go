package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/cache"
	"github.com/sagarc03/stowgate/database/internal"
)

// Database provides PostgreSQL database operations.
type Database struct {
	pool   *pgxpool.Pool
	tables stowgate.Tables
}

// Connect establishes a connection pool to PostgreSQL.
// Tables should be validated before calling Connect.
func Connect(ctx context.Context, dsn string, tables stowgate.Tables) (*Database, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return NewDatabase(pool, tables), nil
}

// NewDatabase wraps an existing pool. Closing the Database closes the pool.
func NewDatabase(pool *pgxpool.Pool, tables stowgate.Tables) *Database {
	return &Database{pool: pool, tables: tables}
}

// Ping verifies the database connection is alive.
func (d *Database) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// Migrate creates the required tables and indexes.
func (d *Database) Migrate(ctx context.Context) error {
	if err := createMetaTable(ctx, d.pool, d.tables.MetaData); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := createCacheTable(ctx, d.pool, d.tables.ResponseCache); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Drop removes every table created by Migrate.
func (d *Database) Drop(ctx context.Context) error {
	for _, table := range []string{d.tables.ResponseCache, d.tables.MetaData} {
		if _, err := d.pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", pgx.Identifier{table}.Sanitize())); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}

// Validate checks that the database schema matches expected structure.
func (d *Database) Validate(ctx context.Context) error {
	for _, want := range expectedSchemas(d.tables) {
		columns, err := tableColumns(ctx, d.pool, want.Name)
		if err != nil {
			return fmt.Errorf("validate schema %s: %w", want.Name, err)
		}
		if err := internal.CheckTable(want, columns); err != nil {
			return fmt.Errorf("validate schema: %w", err)
		}
	}
	return nil
}

// GetRepo returns the MetaDataRepo for database operations.
func (d *Database) GetRepo() stowgate.MetaDataRepo {
	return &repo{pool: d.pool, tableName: pgx.Identifier{d.tables.MetaData}.Sanitize()}
}

// GetCacheStore returns a cache.Store backed by the response cache table.
func (d *Database) GetCacheStore() cache.Store {
	return &cacheStore{pool: d.pool, tableName: pgx.Identifier{d.tables.ResponseCache}.Sanitize()}
}

// Close closes the database connection pool.
func (d *Database) Close() error {
	d.pool.Close()
	return nil
}
