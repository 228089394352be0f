package stowgate

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ObjectStore is the key-addressed storage the HTTP gateway reads from.
//
// Implementations evaluate GetOptions.OnlyIf / HeadOptions.OnlyIf themselves.
// When the conditions say the client's cached copy is still valid, or a
// precondition fails, they return the object's metadata with a nil Body.
//
// All methods accept a context for cancellation and timeout control.
type ObjectStore interface {
	// Get retrieves an object and, unless the conditions short-circuit,
	// its body restricted to opts.Range.
	//
	// Returns:
	//   - *Object: metadata plus an optional body the caller must close
	//   - error: ErrNotFound if the key doesn't exist, ErrRangeNotSatisfiable
	//     if the range starts past the end of the object, or other storage errors
	Get(ctx context.Context, key string, opts GetOptions) (*Object, error)

	// Head retrieves object metadata only. The returned Object never has a Body.
	//
	// Returns:
	//   - *Object: metadata of the current object version
	//   - error: ErrNotFound if the key doesn't exist, or other storage errors
	Head(ctx context.Context, key string, opts HeadOptions) (*Object, error)
}

// MetaDataRepo defines the interface for managing object metadata persistence.
// Implementations must handle concurrent access safely and ensure data consistency.
//
// All methods accept a context for cancellation and timeout control.
// Implementations should respect context cancellation and return appropriate errors.
type MetaDataRepo interface {
	// Get retrieves metadata for a specific object by its path.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - path: The object path to look up
	//
	// Returns:
	//   - MetaData: The metadata entry if found
	//   - error: ErrNotFound if path doesn't exist, or other database errors
	Get(ctx context.Context, path string) (MetaData, error)

	// Upsert creates or updates metadata for an object.
	// If an entry with the same path exists, it updates the existing entry.
	// If no entry exists, it creates a new one.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - entry: ObjectEntry containing path, size, ETag, modification time and HTTP metadata
	//
	// Returns:
	//   - MetaData: The created or updated metadata entry with ID and timestamps
	//   - bool: true if a new entry was created, false if existing entry was updated
	//   - error: Any database or validation error
	Upsert(ctx context.Context, entry ObjectEntry) (MetaData, bool, error)

	// List retrieves a paginated list of metadata entries matching the query criteria.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - q: ListQuery with optional path prefix filter, limit, and cursor for pagination
	//
	// Returns:
	//   - ListResult: Contains matching metadata items and cursor for next page
	//   - error: Any database error
	List(ctx context.Context, q ListQuery) (ListResult, error)
}

// FileStorage defines the interface for physical file storage operations.
//
// All methods accept a context for cancellation and timeout control.
type FileStorage interface {
	// Get retrieves a file from storage for reading.
	//
	// Returns:
	//   - io.ReadSeekCloser: Reader for file content with seek capability
	//   - error: ErrNotFound if file doesn't exist, or other storage errors
	//
	// The caller is responsible for closing the returned ReadSeekCloser.
	Get(ctx context.Context, path string) (io.ReadSeekCloser, error)

	// List returns all objects currently in storage with their metadata.
	//
	// Implementations should:
	//   - Walk the entire storage tree recursively
	//   - Detect content type from file extensions or content inspection
	//   - Compute ETag/hash for each file
	//   - Return an empty slice (not nil) when storage is empty
	List(ctx context.Context) ([]ObjectEntry, error)
}

// Bucket is an ObjectStore that serves files from a FileStorage, using a
// MetaDataRepo as the source of truth for object metadata.
type Bucket struct {
	repo    MetaDataRepo
	storage FileStorage
}

var _ ObjectStore = (*Bucket)(nil)

func NewBucket(repo MetaDataRepo, storage FileStorage) (*Bucket, error) {
	if repo == nil {
		return nil, errors.New("new bucket: metadata repo is required")
	}
	if storage == nil {
		return nil, errors.New("new bucket: file storage is required")
	}
	return &Bucket{repo: repo, storage: storage}, nil
}

// Populate synchronizes metadata from physical storage files.
// It lists all files in storage and creates or updates their corresponding metadata entries.
//
// This method is typically used during initialization or recovery to ensure the metadata
// repository is in sync with actual files in storage. It processes all files sequentially
// and stops at the first error encountered.
//
// Note: This operation is not atomic. If it fails partway through, some files may have
// been processed while others remain unprocessed.
func (b *Bucket) Populate(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("populate: %w", err)
	}

	files, listErr := b.storage.List(ctx)
	if listErr != nil {
		return 0, fmt.Errorf("populate: %w", listErr)
	}

	for i, file := range files {
		_, _, upsertErr := b.repo.Upsert(ctx, file)
		if upsertErr != nil {
			return i, fmt.Errorf("populate '%s': %w", file.Path, upsertErr)
		}
	}

	return len(files), nil
}

func (b *Bucket) Get(ctx context.Context, key string, opts GetOptions) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}

	m, err := b.lookup(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}

	obj := objectFromMetaData(m)
	if !opts.OnlyIf.Evaluate(obj.ETag, obj.Uploaded) {
		return obj, nil
	}

	var rng *Range
	if opts.Range != nil {
		clamped, clampErr := opts.Range.Clamp(m.FileSizeBytes)
		if clampErr != nil {
			return nil, fmt.Errorf("get object %s: %w", key, clampErr)
		}
		rng = &clamped
	}

	f, err := b.storage.Get(ctx, m.Path)
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}

	if rng == nil {
		obj.Body = f
		return obj, nil
	}

	if _, err := f.Seek(rng.Offset, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("get object %s: seek: %w", key, err)
	}

	obj.Range = rng
	obj.Body = sectionReadCloser{Reader: io.LimitReader(f, rng.Length), Closer: f}

	return obj, nil
}

func (b *Bucket) Head(ctx context.Context, key string, opts HeadOptions) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("head object: %w", err)
	}

	m, err := b.lookup(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("head object: %w", err)
	}

	return objectFromMetaData(m), nil
}

func (b *Bucket) List(ctx context.Context, q ListQuery) (ListResult, error) {
	if err := ctx.Err(); err != nil {
		return ListResult{}, fmt.Errorf("list object: %w", err)
	}

	result, err := b.repo.List(ctx, q)
	if err != nil {
		return ListResult{}, fmt.Errorf("list object: %w", err)
	}

	return result, nil
}

// lookup resolves metadata for key. Keys that could never have been stored
// are reported as missing without touching the repo.
func (b *Bucket) lookup(ctx context.Context, key string) (MetaData, error) {
	if !IsValidKey(key) {
		return MetaData{}, ErrNotFound
	}
	return b.repo.Get(ctx, key)
}

func objectFromMetaData(m MetaData) *Object {
	return &Object{
		Key:          m.Path,
		Size:         m.FileSizeBytes,
		ETag:         m.Etag,
		Uploaded:     m.UpdatedAt,
		HTTPMetadata: m.HTTPMetadata,
	}
}

type sectionReadCloser struct {
	io.Reader
	io.Closer
}
