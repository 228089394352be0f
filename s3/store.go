// Package s3 implements stowgate.ObjectStore on S3-compatible object storage
// using the minio client.
package s3

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/sagarc03/stowgate"
)

// Config controls the S3 backend.
type Config struct {
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	Region   string `mapstructure:"region" yaml:"region"`
	Bucket   string `mapstructure:"bucket" yaml:"bucket"`
	// Prefix is prepended to every object key.
	Prefix string `mapstructure:"prefix" yaml:"prefix"`
	// AccessKey and SecretKey select static credentials. When empty, the
	// AWS and MinIO environment variables and the shared credentials file
	// are consulted.
	AccessKey      string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey      string `mapstructure:"secret_key" yaml:"secret_key"`
	Insecure       bool   `mapstructure:"insecure" yaml:"insecure"`
	ForcePathStyle bool   `mapstructure:"force_path_style" yaml:"force_path_style"`
}

// Store serves objects from a single bucket.
type Store struct {
	core   *minio.Core
	bucket string
	prefix string
}

var _ stowgate.ObjectStore = (*Store)(nil)

// New creates a Store for cfg. It does not contact the service.
func New(cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		if cfg.Region != "" {
			endpoint = fmt.Sprintf("s3.%s.amazonaws.com", cfg.Region)
		} else {
			endpoint = "s3.amazonaws.com"
		}
	}

	var creds *credentials.Credentials
	if cfg.AccessKey != "" {
		creds = credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	} else {
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.EnvMinio{},
			&credentials.FileAWSCredentials{},
		})
	}

	options := &minio.Options{
		Creds:  creds,
		Secure: !cfg.Insecure,
		Region: cfg.Region,
	}
	if cfg.ForcePathStyle {
		options.BucketLookup = minio.BucketLookupPath
	}

	core, err := minio.NewCore(endpoint, options)
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}

	return &Store{
		core:   core,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (s *Store) objectName(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

// Get fetches key. Any non-empty key is passed to the bucket as is. The service evaluates the conditions; a 304 or 412 answer
// is reported as the object's current metadata with a nil Body.
func (s *Store) Get(ctx context.Context, key string, opts stowgate.GetOptions) (*stowgate.Object, error) {
	if key == "" {
		return nil, fmt.Errorf("s3 get: %w", stowgate.ErrNotFound)
	}

	getOpts := minio.GetObjectOptions{}
	if err := applyConditions(&getOpts, opts.OnlyIf); err != nil {
		return nil, fmt.Errorf("s3 get %s: %w", key, err)
	}
	if opts.Range != nil {
		if err := getOpts.SetRange(opts.Range.Offset, opts.Range.End()); err != nil {
			return nil, fmt.Errorf("s3 get %s: %w", key, err)
		}
	}

	body, info, header, err := s.core.GetObject(ctx, s.bucket, s.objectName(key), getOpts)
	if err != nil {
		if isConditionShortCircuit(err) {
			return s.Head(ctx, key, stowgate.HeadOptions{})
		}
		return nil, fmt.Errorf("s3 get %s: %w", key, mapError(err))
	}

	obj := objectFromInfo(key, info)
	obj.Body = body

	if opts.Range != nil {
		if rng, size, ok := parseContentRange(header.Get("Content-Range")); ok {
			obj.Range = &rng
			obj.Size = size
		}
	}

	return obj, nil
}

// Head returns the metadata of key. Conditions are not applied.
func (s *Store) Head(ctx context.Context, key string, _ stowgate.HeadOptions) (*stowgate.Object, error) {
	if key == "" {
		return nil, fmt.Errorf("s3 head: %w", stowgate.ErrNotFound)
	}

	info, err := s.core.StatObject(ctx, s.bucket, s.objectName(key), minio.StatObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("s3 head %s: %w", key, mapError(err))
	}

	return objectFromInfo(key, info), nil
}

func applyConditions(opts *minio.GetObjectOptions, c stowgate.Conditions) error {
	if c.IfMatch != "" {
		opts.Set("If-Match", c.IfMatch)
	}
	if c.IfNoneMatch != "" {
		opts.Set("If-None-Match", c.IfNoneMatch)
	}
	if !c.IfModifiedSince.IsZero() {
		if err := opts.SetModified(c.IfModifiedSince); err != nil {
			return err
		}
	}
	if !c.IfUnmodifiedSince.IsZero() {
		if err := opts.SetUnmodified(c.IfUnmodifiedSince); err != nil {
			return err
		}
	}
	return nil
}

func objectFromInfo(key string, info minio.ObjectInfo) *stowgate.Object {
	md := info.Metadata
	return &stowgate.Object{
		Key:      key,
		Size:     info.Size,
		ETag:     info.ETag,
		Uploaded: info.LastModified,
		HTTPMetadata: stowgate.HTTPMetadata{
			ContentType:        info.ContentType,
			ContentLanguage:    md.Get("Content-Language"),
			ContentDisposition: md.Get("Content-Disposition"),
			ContentEncoding:    md.Get("Content-Encoding"),
			CacheControl:       md.Get("Cache-Control"),
		},
	}
}

// parseContentRange parses "bytes <first>-<last>/<size>".
func parseContentRange(value string) (stowgate.Range, int64, bool) {
	spec, ok := strings.CutPrefix(value, "bytes ")
	if !ok {
		return stowgate.Range{}, 0, false
	}

	bounds, total, ok := strings.Cut(spec, "/")
	if !ok {
		return stowgate.Range{}, 0, false
	}
	first, last, ok := strings.Cut(bounds, "-")
	if !ok {
		return stowgate.Range{}, 0, false
	}

	start, err1 := strconv.ParseInt(first, 10, 64)
	end, err2 := strconv.ParseInt(last, 10, 64)
	size, err3 := strconv.ParseInt(total, 10, 64)
	if err1 != nil || err2 != nil || err3 != nil || end < start {
		return stowgate.Range{}, 0, false
	}

	return stowgate.Range{Offset: start, Length: end - start + 1}, size, true
}

func isConditionShortCircuit(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.StatusCode == http.StatusNotModified || resp.StatusCode == http.StatusPreconditionFailed
}

func mapError(err error) error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", stowgate.ErrNotFound, resp.Code)
	case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable:
		return fmt.Errorf("%w: %s", stowgate.ErrRangeNotSatisfiable, resp.Code)
	default:
		return err
	}
}
