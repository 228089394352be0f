// Package cache implements the response cache that sits in front of the
// object store.
//
// A ResponseCache maps a Key (absolute URL plus selected request headers) to
// a stored Entry. Entries are encoded in HTTP/1.1 wire format and handed to a
// byte-level Store under a blake3 digest of the key:
//
//   - MemoryStore: in-process map, suitable for single instances and tests
//   - database/sqlite and database/postgres: shared tables for multi-instance
//     deployments
//
// Lifetimes follow the response Cache-Control header (s-maxage, then
// max-age) with a configurable default. Responses marked no-store, no-cache
// or private are never stored.
//
//	rc := cache.New(cache.NewMemoryStore(0), cache.Config{DefaultTTL: time.Hour})
//	key := cache.NewKey(r, cache.DefaultVaryHeaders)
//	if e, _ := rc.Match(ctx, key); e != nil {
//	    // serve e
//	}
package cache
