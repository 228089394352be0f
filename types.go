package stowgate

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// HTTPMetadata holds the HTTP representation headers stored with an object.
// Empty fields are never emitted as headers.
type HTTPMetadata struct {
	ContentType        string `json:"content_type,omitempty"`
	ContentLanguage    string `json:"content_language,omitempty"`
	ContentDisposition string `json:"content_disposition,omitempty"`
	ContentEncoding    string `json:"content_encoding,omitempty"`
	CacheControl       string `json:"cache_control,omitempty"`
}

// Range is a byte range of an object. A nil *Range means the whole object.
type Range struct {
	Offset int64
	Length int64
}

// End returns the inclusive index of the last byte in the range.
func (r Range) End() int64 {
	return r.Offset + r.Length - 1
}

// Object describes a stored object returned by an ObjectStore.
//
// Body is nil when the store evaluated the request conditions and decided
// the client's copy is still current. Range is set when Body only covers
// part of the object.
type Object struct {
	Key          string
	Size         int64
	ETag         string
	Uploaded     time.Time
	HTTPMetadata HTTPMetadata
	Range        *Range
	Body         io.ReadCloser
}

// HTTPEtag returns the entity tag quoted for use in an ETag header.
func (o *Object) HTTPEtag() string {
	if o.ETag == "" {
		return ""
	}
	if o.ETag[0] == '"' || (len(o.ETag) > 2 && o.ETag[:2] == "W/") {
		return o.ETag
	}
	return `"` + o.ETag + `"`
}

// GetOptions qualifies an ObjectStore.Get call.
type GetOptions struct {
	Range  *Range
	OnlyIf Conditions
}

// HeadOptions qualifies an ObjectStore.Head call.
type HeadOptions struct {
	OnlyIf Conditions
}

type MetaData struct {
	ID            uuid.UUID    `json:"id"`
	Path          string       `json:"path"`
	HTTPMetadata  HTTPMetadata `json:"http_metadata"`
	Etag          string       `json:"etag"`
	FileSizeBytes int64        `json:"file_size_bytes"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

type ObjectEntry struct {
	Path         string
	Size         int64
	ETag         string
	ModTime      time.Time
	HTTPMetadata HTTPMetadata
}

type ListQuery struct {
	PathPrefix string
	Limit      int
	Cursor     string
}

type ListResult struct {
	Items      []MetaData `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// Tables holds configurable table names for metadata and response cache storage.
// This allows multi-tenant deployments to use different table names.
type Tables struct {
	MetaData      string `mapstructure:"meta_data" yaml:"meta_data"`
	ResponseCache string `mapstructure:"response_cache" yaml:"response_cache"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.MetaData == "" {
		return errors.New("validate tables: metadata table name cannot be empty")
	}

	if !IsValidTableName(t.MetaData) {
		return fmt.Errorf("validate tables: invalid metadata table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.MetaData)
	}

	if t.ResponseCache == "" {
		return errors.New("validate tables: response cache table name cannot be empty")
	}

	if !IsValidTableName(t.ResponseCache) {
		return fmt.Errorf("validate tables: invalid response cache table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.ResponseCache)
	}

	if t.MetaData == t.ResponseCache {
		return fmt.Errorf("validate tables: metadata and response cache tables must differ: %s", t.MetaData)
	}

	return nil
}
