package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/database/internal"
)

func metaDataSchema(name string) internal.TableSchema {
	return internal.TableSchema{
		Name: name,
		Columns: map[string]internal.Column{
			"id":                  {Type: "text"},
			"path":                {Type: "text"},
			"content_type":        {Type: "text"},
			"content_language":    {Type: "text"},
			"content_disposition": {Type: "text"},
			"content_encoding":    {Type: "text"},
			"cache_control":       {Type: "text"},
			"etag":                {Type: "text"},
			"file_size_bytes":     {Type: "integer"},
			"created_at":          {Type: "text"},
			"updated_at":          {Type: "text"},
		},
	}
}

func cacheSchema(name string) internal.TableSchema {
	return internal.TableSchema{
		Name: name,
		Columns: map[string]internal.Column{
			"key":        {Type: "text"},
			"expires_at": {Type: "integer"},
			"value":      {Type: "blob"},
		},
	}
}

func expectedSchemas(tables stowgate.Tables) []internal.TableSchema {
	return []internal.TableSchema{
		metaDataSchema(tables.MetaData),
		cacheSchema(tables.ResponseCache),
	}
}

// tableColumns reads the columns of table from PRAGMA table_info. It returns
// nil when the table does not exist.
func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]internal.Column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("table columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns map[string]internal.Column
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, dataType   string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("table columns: %w", err)
		}

		if columns == nil {
			columns = make(map[string]internal.Column)
		}
		columns[name] = internal.Column{
			Type:     strings.ToLower(dataType),
			Nullable: notNull == 0,
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("table columns: %w", err)
	}

	return columns, nil
}
