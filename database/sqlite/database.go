// Package sqlite implements the metadata repo and the response cache store
// on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/cache"
	"github.com/sagarc03/stowgate/database/internal"

	_ "modernc.org/sqlite" // SQLite driver
)

// Database provides SQLite database operations.
type Database struct {
	db     *sql.DB
	tables stowgate.Tables
}

// Connect opens a SQLite database.
// Tables should be validated before calling Connect.
func Connect(ctx context.Context, dsn string, tables stowgate.Tables) (*Database, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	// SQLite serializes writers, and every connection to ":memory:" is a
	// separate database.
	db.SetMaxOpenConns(1)

	return &Database{
		db:     db,
		tables: tables,
	}, nil
}

// Ping verifies the database connection is alive.
func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Migrate creates the required tables and indexes.
func (d *Database) Migrate(ctx context.Context) error {
	for _, migration := range getTableMigrations(d.tables) {
		if err := migration.Up(ctx, d.db); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}
	return nil
}

// Drop removes every table created by Migrate.
func (d *Database) Drop(ctx context.Context) error {
	migrations := getTableMigrations(d.tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		if err := migrations[i].Down(ctx, d.db); err != nil {
			return fmt.Errorf("migrate down %s: %w", migrations[i].TableName, err)
		}
	}
	return nil
}

// Validate checks that the database schema matches expected structure.
func (d *Database) Validate(ctx context.Context) error {
	for _, want := range expectedSchemas(d.tables) {
		columns, err := tableColumns(ctx, d.db, want.Name)
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
	return &repo{db: d.db, tableName: quoteIdentifier(d.tables.MetaData)}
}

// GetCacheStore returns a cache.Store backed by the response cache table.
func (d *Database) GetCacheStore() cache.Store {
	return &cacheStore{db: d.db, tableName: quoteIdentifier(d.tables.ResponseCache)}
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}
