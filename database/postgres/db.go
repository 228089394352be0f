package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/database/internal"
)

const timestamptz = "timestamp with time zone"

func metaDataSchema(name string) internal.TableSchema {
	return internal.TableSchema{
		Name: name,
		Columns: map[string]internal.Column{
			"id":                  {Type: "uuid"},
			"path":                {Type: "text"},
			"content_type":        {Type: "text"},
			"content_language":    {Type: "text"},
			"content_disposition": {Type: "text"},
			"content_encoding":    {Type: "text"},
			"cache_control":       {Type: "text"},
			"etag":                {Type: "text"},
			"file_size_bytes":     {Type: "bigint"},
			"created_at":          {Type: timestamptz},
			"updated_at":          {Type: timestamptz},
		},
	}
}

func cacheSchema(name string) internal.TableSchema {
	return internal.TableSchema{
		Name: name,
		Columns: map[string]internal.Column{
			"key":        {Type: "text"},
			"expires_at": {Type: timestamptz},
			"value":      {Type: "bytea"},
		},
	}
}

func expectedSchemas(tables stowgate.Tables) []internal.TableSchema {
	return []internal.TableSchema{
		metaDataSchema(tables.MetaData),
		cacheSchema(tables.ResponseCache),
	}
}

// tableColumns reads the columns of a table in the current schema from
// information_schema. It returns nil when the table does not exist.
func tableColumns(ctx context.Context, pool *pgxpool.Pool, table string) (map[string]internal.Column, error) {
	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = current_schema()
		AND table_name = $1
	`, table)
	if err != nil {
		return nil, fmt.Errorf("table columns: %w", err)
	}
	defer rows.Close()

	var columns map[string]internal.Column
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("table columns: %w", err)
		}

		if columns == nil {
			columns = make(map[string]internal.Column)
		}
		columns[name] = internal.Column{
			Type:     strings.ToLower(dataType),
			Nullable: nullable == "YES",
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("table columns: %w", err)
	}

	return columns, nil
}
