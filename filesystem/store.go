// Package filesystem provides a read-only file system storage backend for
// stowgate. Files are addressed by their slash-separated path below the root,
// etags are SHA256 digests of the content, and content types are detected
// from file extensions.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"strings"

	"github.com/sagarc03/stowgate"
)

// Store provides file system storage operations.
type Store struct {
	root *os.Root
}

var _ stowgate.FileStorage = (*Store)(nil)

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
func NewFileStorage(root *os.Root) *Store {
	return &Store{root: root}
}

// Get opens a file for reading. Returns stowgate.ErrNotFound if the file does not exist.
func (s *Store) Get(ctx context.Context, key string) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, stowgate.ErrNotFound
		}
		return nil, fmt.Errorf("open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, stowgate.ErrNotFound
	}

	return f, nil
}

// List recursively walks the root directory and returns all files with their
// metadata including path, size, modification time, SHA256-based etag and
// detected HTTP metadata.
// This is intended for one-time initial sync operations.
func (s *Store) List(ctx context.Context) ([]stowgate.ObjectEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := []stowgate.ObjectEntry{}

	err := s.walkDir(ctx, ".", &entries)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	return entries, nil
}

func (s *Store) walkDir(ctx context.Context, dir string, entries *[]stowgate.ObjectEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), dir)
	if err != nil {
		return err
	}

	for _, entry := range dirEntries {
		if err := ctx.Err(); err != nil {
			return err
		}

		entryPath := path.Join(dir, entry.Name())

		if entry.IsDir() {
			if err := s.walkDir(ctx, entryPath, entries); err != nil {
				return err
			}
			continue
		}

		if !entry.Type().IsRegular() {
			slog.Debug("skipping non-regular file", "path", entryPath)
			continue
		}

		if !stowgate.IsValidKey(entryPath) {
			slog.Warn("skipping file with unservable name", "path", entryPath)
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("walk dir: %w", err)
		}

		etag, err := s.hashFile(entryPath)
		if err != nil {
			return fmt.Errorf("walk dir: %w", err)
		}

		*entries = append(*entries, stowgate.ObjectEntry{
			Path:         entryPath,
			Size:         info.Size(),
			ETag:         etag,
			ModTime:      info.ModTime().UTC(),
			HTTPMetadata: detectHTTPMetadata(entryPath),
		})
	}

	return nil
}

func (s *Store) hashFile(name string) (string, error) {
	f, err := s.root.Open(name)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("failed to close file", "path", name, "err", closeErr)
		}
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// precompressed maps the extensions of precompressed files to their content coding.
var precompressed = map[string]string{
	".gz": "gzip",
	".br": "br",
}

// detectHTTPMetadata derives representation headers from a file name.
// "app.js.gz" is served as application/javascript with gzip content coding.
func detectHTTPMetadata(name string) stowgate.HTTPMetadata {
	var md stowgate.HTTPMetadata

	ext := strings.ToLower(path.Ext(name))
	if coding, ok := precompressed[ext]; ok {
		inner := path.Ext(strings.TrimSuffix(name, path.Ext(name)))
		if inner != "" {
			md.ContentEncoding = coding
			ext = strings.ToLower(inner)
		}
	}

	md.ContentType = mime.TypeByExtension(ext)
	if md.ContentType == "" {
		md.ContentType = "application/octet-stream"
	}

	return md
}
