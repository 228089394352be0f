package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/database/internal"
)

const metaDataColumns = `id, path, content_type, content_language, content_disposition,
	content_encoding, cache_control, etag, file_size_bytes, created_at, updated_at`

type repo struct {
	db        *sql.DB
	tableName string
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMetaData(row rowScanner) (stowgate.MetaData, error) {
	var m stowgate.MetaData
	var idStr, createdAt, updatedAt string

	err := row.Scan(
		&idStr, &m.Path,
		&m.HTTPMetadata.ContentType, &m.HTTPMetadata.ContentLanguage, &m.HTTPMetadata.ContentDisposition,
		&m.HTTPMetadata.ContentEncoding, &m.HTTPMetadata.CacheControl,
		&m.Etag, &m.FileSizeBytes, &createdAt, &updatedAt,
	)
	if err != nil {
		return stowgate.MetaData{}, err
	}

	if m.ID, err = uuid.Parse(idStr); err != nil {
		return stowgate.MetaData{}, fmt.Errorf("parse uuid: %w", err)
	}
	if m.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return stowgate.MetaData{}, fmt.Errorf("parse created_at: %w", err)
	}
	if m.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return stowgate.MetaData{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return m, nil
}

func (r *repo) Get(ctx context.Context, path string) (stowgate.MetaData, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE path = ?`, metaDataColumns, r.tableName) //nolint:gosec // G201: table name is validated

	m, err := scanMetaData(r.db.QueryRowContext(ctx, query, path))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return stowgate.MetaData{}, stowgate.ErrNotFound
		}
		return stowgate.MetaData{}, fmt.Errorf("get: %w", err)
	}

	return m, nil
}

// Upsert records entry. updated_at follows the file modification time when
// the entry carries one, so Last-Modified reflects the content rather than
// the last sync.
func (r *repo) Upsert(ctx context.Context, entry stowgate.ObjectEntry) (stowgate.MetaData, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return stowgate.MetaData{}, false, fmt.Errorf("upsert: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	updatedAt := now
	if !entry.ModTime.IsZero() {
		updatedAt = entry.ModTime.UTC()
	}

	m := stowgate.MetaData{
		Path:          entry.Path,
		HTTPMetadata:  entry.HTTPMetadata,
		Etag:          entry.ETag,
		FileSizeBytes: entry.Size,
		UpdatedAt:     updatedAt,
	}

	var existingID, createdAt string
	checkQuery := fmt.Sprintf(`SELECT id, created_at FROM %s WHERE path = ?`, r.tableName) //nolint:gosec // G201: table name is validated
	err = tx.QueryRowContext(ctx, checkQuery, entry.Path).Scan(&existingID, &createdAt)
	isInsert := errors.Is(err, sql.ErrNoRows)
	if err != nil && !isInsert {
		return stowgate.MetaData{}, false, fmt.Errorf("upsert: check existing: %w", err)
	}

	md := entry.HTTPMetadata
	if isInsert {
		m.ID = uuid.New()
		m.CreatedAt = now

		insertQuery := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, r.tableName, metaDataColumns) //nolint:gosec // G201: table name is validated
		_, err = tx.ExecContext(ctx, insertQuery,
			m.ID.String(), entry.Path,
			md.ContentType, md.ContentLanguage, md.ContentDisposition, md.ContentEncoding, md.CacheControl,
			entry.ETag, entry.Size,
			now.Format(internal.TimestampFormat), updatedAt.Format(internal.TimestampFormat),
		)
		if err != nil {
			return stowgate.MetaData{}, false, fmt.Errorf("upsert: insert: %w", err)
		}
	} else {
		if m.ID, err = uuid.Parse(existingID); err != nil {
			return stowgate.MetaData{}, false, fmt.Errorf("upsert: parse uuid: %w", err)
		}
		if m.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return stowgate.MetaData{}, false, fmt.Errorf("upsert: parse created_at: %w", err)
		}

		updateQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`UPDATE %s
			SET content_type = ?, content_language = ?, content_disposition = ?,
				content_encoding = ?, cache_control = ?,
				etag = ?, file_size_bytes = ?, updated_at = ?
			WHERE path = ?`, r.tableName)

		_, err = tx.ExecContext(ctx, updateQuery,
			md.ContentType, md.ContentLanguage, md.ContentDisposition, md.ContentEncoding, md.CacheControl,
			entry.ETag, entry.Size, updatedAt.Format(internal.TimestampFormat), entry.Path,
		)
		if err != nil {
			return stowgate.MetaData{}, false, fmt.Errorf("upsert: update: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return stowgate.MetaData{}, false, fmt.Errorf("upsert: commit: %w", err)
	}

	return m, isInsert, nil
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

	where := `path LIKE ? || '%' ESCAPE '\'`
	args := []any{internal.EscapeLikePattern(q.PathPrefix)}
	if q.Cursor != "" {
		where += ` AND (created_at, path) > (?, ?)`
		args = append(args, cursor.CreatedAt.UTC().Format(internal.TimestampFormat), cursor.Path)
	}
	args = append(args, limit+1)

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s FROM %s WHERE %s ORDER BY created_at, path LIMIT ?`,
		metaDataColumns, r.tableName, where)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return stowgate.ListResult{}, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

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
