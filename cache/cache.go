package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pquerna/cachecontrol/cacheobject"
)

// ErrTooLarge is returned by Put when an entry body exceeds the configured maximum.
var ErrTooLarge = errors.New("entry too large")

// Config controls how long responses are kept and which ones are accepted.
type Config struct {
	// DefaultTTL applies when the response carries no max-age or s-maxage.
	DefaultTTL time.Duration
	// MaxEntrySize caps the body size of a stored entry. Zero means no limit.
	MaxEntrySize int64
}

// ResponseCache stores full HTTP responses keyed by normalized request identity.
type ResponseCache struct {
	store Store
	cfg   Config
	now   func() time.Time
}

func New(store Store, cfg Config) *ResponseCache {
	return &ResponseCache{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Match returns the stored response for key, or nil when there is none.
// Entries that cannot be decoded are purged and reported as a miss.
func (c *ResponseCache) Match(ctx context.Context, key Key) (*Entry, error) {
	digest := key.Digest()

	b, ok, err := c.store.Get(ctx, digest)
	if err != nil {
		return nil, fmt.Errorf("match %s: %w", key.URL, err)
	}
	if !ok {
		return nil, nil
	}

	var e Entry
	if err := e.UnmarshalBinary(b); err != nil {
		slog.Warn("purging corrupt cache entry", "url", key.URL, "err", err)
		if purgeErr := c.store.Purge(ctx, digest); purgeErr != nil {
			slog.Warn("failed to purge cache entry", "url", key.URL, "err", purgeErr)
		}
		return nil, nil
	}

	return &e, nil
}

// Put stores e under key. Responses whose Cache-Control forbids shared
// caching, or whose computed lifetime is not positive, are silently skipped.
func (c *ResponseCache) Put(ctx context.Context, key Key, e *Entry) error {
	if c.cfg.MaxEntrySize > 0 && int64(len(e.Body)) > c.cfg.MaxEntrySize {
		return fmt.Errorf("put %s: %w: %d bytes", key.URL, ErrTooLarge, len(e.Body))
	}

	ttl, ok := c.TTL(e)
	if !ok {
		slog.Debug("response not storable", "url", key.URL, "cache_control", e.Header.Get("Cache-Control"))
		return nil
	}

	b, err := e.MarshalBinary()
	if err != nil {
		return fmt.Errorf("put %s: %w", key.URL, err)
	}

	if err := c.store.Put(ctx, key.Digest(), c.now().Add(ttl), b); err != nil {
		return fmt.Errorf("put %s: %w", key.URL, err)
	}

	return nil
}

// TTL computes the freshness lifetime of e for a shared cache. The boolean
// is false when e must not be stored.
func (c *ResponseCache) TTL(e *Entry) (time.Duration, bool) {
	value := e.Header.Get("Cache-Control")
	if value == "" {
		return c.cfg.DefaultTTL, c.cfg.DefaultTTL > 0
	}

	directives, err := cacheobject.ParseResponseCacheControl(value)
	if err != nil {
		slog.Debug("unparseable cache-control, using default ttl", "value", value, "err", err)
		return c.cfg.DefaultTTL, c.cfg.DefaultTTL > 0
	}

	if directives.NoStore || directives.PrivatePresent || directives.NoCachePresent {
		return 0, false
	}

	ttl := c.cfg.DefaultTTL
	switch {
	case directives.SMaxAge >= 0:
		ttl = time.Duration(directives.SMaxAge) * time.Second
	case directives.MaxAge >= 0:
		ttl = time.Duration(directives.MaxAge) * time.Second
	}

	return ttl, ttl > 0
}
