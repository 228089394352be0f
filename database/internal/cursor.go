// Package internal holds helpers shared by the metadata backends.
package internal

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Cursor marks the last item of a listed page.
type Cursor struct {
	CreatedAt time.Time
	Path      string
}

// EncodeCursor encodes the position after (createdAt, path) as an opaque token.
func EncodeCursor(createdAt time.Time, path string) string {
	data := createdAt.UTC().Format(time.RFC3339Nano) + "|" + path
	return base64.URLEncoding.EncodeToString([]byte(data))
}

// DecodeCursor reverses EncodeCursor. An empty token decodes to the zero Cursor.
func DecodeCursor(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: invalid encoding: %w", err)
	}

	ts, path, found := strings.Cut(string(decoded), "|")
	if !found {
		return Cursor{}, errors.New("decode cursor: invalid format")
	}

	if path == "" {
		return Cursor{}, errors.New("decode cursor: empty path")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: invalid timestamp: %w", err)
	}

	return Cursor{CreatedAt: createdAt, Path: path}, nil
}

// EscapeLikePattern escapes LIKE wildcards (%, _) and the escape character itself.
func EscapeLikePattern(pattern string) string {
	return likeEscaper.Replace(pattern)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// DefaultListLimit applies when a ListQuery carries no limit.
const DefaultListLimit = 100

// TimestampFormat is a fixed-width RFC 3339 layout. Backends that store
// timestamps as text use it so that string order matches time order.
const TimestampFormat = "2006-01-02T15:04:05.000000000Z07:00"
