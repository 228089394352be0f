// Package postgres implements the metadata repo and the response cache store
// on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/database/internal"
)

const metaDataColumns = `id, path, content_type, content_language, content_disposition,
	content_encoding, cache_control, etag, file_size_bytes, created_at, updated_at`

type repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func scanMetaData(row pgx.Row, extra ...any) (stowgate.MetaData, error) {
	var m stowgate.MetaData
	dest := []any{
		&m.ID, &m.Path,
		&m.HTTPMetadata.ContentType, &m.HTTPMetadata.ContentLanguage, &m.HTTPMetadata.ContentDisposition,
		&m.HTTPMetadata.ContentEncoding, &m.HTTPMetadata.CacheControl,
		&m.Etag, &m.FileSizeBytes, &m.CreatedAt, &m.UpdatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	return m, err
}

func (r *repo) Get(ctx context.Context, path string) (stowgate.MetaData, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE path = $1`, metaDataColumns, r.tableName)

	m, err := scanMetaData(r.pool.QueryRow(ctx, query, path))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return stowgate.MetaData{}, stowgate.ErrNotFound
		}
		return stowgate.MetaData{}, fmt.Errorf("get: %w", err)
	}

	return m, nil
}

// Upsert records entry. updated_at follows the file modification time when
// the entry carries one.
func (r *repo) Upsert(ctx context.Context, entry stowgate.ObjectEntry) (stowgate.MetaData, bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (path, content_type, content_language, content_disposition,
			content_encoding, cache_control, etag, file_size_bytes, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW()))
		ON CONFLICT (path) DO UPDATE
		SET content_type = EXCLUDED.content_type,
			content_language = EXCLUDED.content_language,
			content_disposition = EXCLUDED.content_disposition,
			content_encoding = EXCLUDED.content_encoding,
			cache_control = EXCLUDED.cache_control,
			etag = EXCLUDED.etag,
			file_size_bytes = EXCLUDED.file_size_bytes,
			updated_at = EXCLUDED.updated_at
		RETURNING %s, (xmax = 0) AS inserted
	`, r.tableName, metaDataColumns)

	var modTime *time.Time
	if !entry.ModTime.IsZero() {
		t := entry.ModTime.UTC()
		modTime = &t
	}

	md := entry.HTTPMetadata
	var inserted bool
	m, err := scanMetaData(r.pool.QueryRow(ctx, query,
		entry.Path, md.ContentType, md.ContentLanguage, md.ContentDisposition,
		md.ContentEncoding, md.CacheControl, entry.ETag, entry.Size, modTime,
	), &inserted)
	if err != nil {
		return stowgate.MetaData{}, false, fmt.Errorf("upsert: %w", err)
	}

	return m, inserted, nil
}

func (r *repo) List(ctx context.Context, q stowgate.ListQuery) (stowgate.ListResult, error) {
	cursor, err := internal.DecodeCursor(q.Cursor)
	if err != nil {
		return stowgate.ListResult{}, fmt.Errorf("list: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = internal.DefaultListLimit
	}

	where := `path LIKE $1 || '%'`
	args := []any{internal.EscapeLikePattern(q.PathPrefix)}
	if q.Cursor != "" {
		where += ` AND (created_at, path) > ($2, $3)`
		args = append(args, cursor.CreatedAt, cursor.Path)
	}
	args = append(args, limit+1)

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY created_at, path LIMIT $%d`,
		metaDataColumns, r.tableName, where, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return stowgate.ListResult{}, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	items := make([]stowgate.MetaData, 0, limit)
	for rows.Next() {
		m, scanErr := scanMetaData(rows)
		if scanErr != nil {
			return stowgate.ListResult{}, fmt.Errorf("list: scan: %w", scanErr)
		}
		items = append(items, m)
	}

	if err := rows.Err(); err != nil {
		return stowgate.ListResult{}, fmt.Errorf("list: rows: %w", err)
	}

	var nextCursor string
	if len(items) > limit {
		last := items[limit-1]
		nextCursor = internal.EncodeCursor(last.CreatedAt, last.Path)
		items = items[:limit]
	}

	return stowgate.ListResult{Items: items, NextCursor: nextCursor}, nil
}
