package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/stowgate"
)

// quoteIdentifier safely quotes a SQLite identifier
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, db *sql.DB) error
	Down      func(ctx context.Context, db *sql.DB) error
}

func getTableMigrations(tables stowgate.Tables) []TableMigration {
	return []TableMigration{
		{
			TableName: tables.MetaData,
			Up:        createMetaTable(tables.MetaData),
			Down:      dropTable(tables.MetaData),
		},
		{
			TableName: tables.ResponseCache,
			Up:        createCacheTable(tables.ResponseCache),
			Down:      dropTable(tables.ResponseCache),
		},
	}
}

func createMetaTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)
		indexList := quoteIdentifier(fmt.Sprintf("idx_%s_list", tableName))

		stmts := []string{
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					id TEXT NOT NULL PRIMARY KEY,
					path TEXT NOT NULL UNIQUE,
					content_type TEXT NOT NULL,
					content_language TEXT NOT NULL DEFAULT '',
					content_disposition TEXT NOT NULL DEFAULT '',
					content_encoding TEXT NOT NULL DEFAULT '',
					cache_control TEXT NOT NULL DEFAULT '',
					etag TEXT NOT NULL,
					file_size_bytes INTEGER NOT NULL,
					created_at TEXT NOT NULL,
					updated_at TEXT NOT NULL
				)`, quotedTable),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (created_at, path)`, indexList, quotedTable),
		}

		for _, stmt := range stmts {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("create meta table: %w", err)
			}
		}
		return nil
	}
}

func createCacheTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)
		indexExpires := quoteIdentifier(fmt.Sprintf("idx_%s_expires_at", tableName))

		stmts := []string{
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					key TEXT NOT NULL PRIMARY KEY,
					expires_at INTEGER NOT NULL,
					value BLOB NOT NULL
				)`, quotedTable),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (expires_at)`, indexExpires, quotedTable),
		}

		for _, stmt := range stmts {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("create cache table: %w", err)
			}
		}
		return nil
	}
}

func dropTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		_, err := db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdentifier(tableName)))
		return err
	}
}
