package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Store is a byte-level backend for cached responses. It keeps track of the
// expiration time of every entry.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the stored bytes for key. The boolean is false when the key
	// is absent or its entry has expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores b under key until expires, replacing any previous entry.
	Put(ctx context.Context, key string, expires time.Time, b []byte) error

	// Purge removes the entry for key, if any.
	Purge(ctx context.Context, key string) error

	// PurgeExpired removes every entry whose expiration time has passed and
	// returns how many were removed.
	PurgeExpired(ctx context.Context) (int, error)
}

// MemoryStore is an in-process Store backed by a ttlcache. When it holds
// maxEntries entries, a Put evicts the least recently used one.
type MemoryStore struct {
	// mu serializes writers so PurgeExpired can count its own evictions.
	mu sync.Mutex
	db *ttlcache.Cache[string, []byte]
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns a MemoryStore holding at most maxEntries entries.
// Zero means unbounded.
func NewMemoryStore(maxEntries int) *MemoryStore {
	opts := []ttlcache.Option[string, []byte]{
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	}
	if maxEntries > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, []byte](uint64(maxEntries)))
	}

	return &MemoryStore{db: ttlcache.New(opts...)}
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	item := m.db.Get(key)
	if item == nil {
		return nil, false, nil
	}
	return item.Value(), true, nil
}

func (m *MemoryStore) Put(ctx context.Context, key string, expires time.Time, b []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// ttlcache treats a non-positive TTL as "never expires".
	ttl := time.Until(expires)
	if ttl <= 0 {
		m.db.Delete(key)
		return nil
	}

	m.db.Set(key, b, ttl)
	return nil
}

func (m *MemoryStore) Purge(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.db.Delete(key)
	return nil
}

func (m *MemoryStore) PurgeExpired(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	before := m.db.Metrics().Evictions
	m.db.DeleteExpired()
	return int(m.db.Metrics().Evictions - before), nil
}

// Len returns the number of unexpired entries held.
func (m *MemoryStore) Len() int {
	return m.db.Len()
}
