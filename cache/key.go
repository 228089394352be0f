package cache

import (
	"encoding/hex"
	"net/http"
	"net/url"
	"slices"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
)

// DefaultVaryHeaders are the request headers that select between cached
// variants of the same URL. They always take part in a Key so a cached 206
// or 304 is never replayed to a request that did not ask for it.
var DefaultVaryHeaders = []string{
	"Range",
	"If-None-Match",
	"If-Modified-Since",
	"If-Match",
	"If-Unmodified-Since",
}

// Key is the normalized identity of a cacheable request: the absolute URL
// plus the values of the selected request headers. HEAD and GET requests for
// the same URL share a key; HEAD ignores Range.
type Key struct {
	URL    string
	Header http.Header
}

// NewKey builds the cache key for r. Headers named in DefaultVaryHeaders or
// varyHeaders and present on the request take part in the key.
func NewKey(r *http.Request, varyHeaders []string) Key {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	u := url.URL{
		Scheme:   scheme,
		Host:     r.Host,
		Path:     r.URL.Path,
		RawPath:  r.URL.RawPath,
		RawQuery: r.URL.RawQuery,
	}

	header := make(http.Header)
	for _, name := range slices.Concat(DefaultVaryHeaders, varyHeaders) {
		if r.Method == http.MethodHead && http.CanonicalHeaderKey(name) == "Range" {
			continue
		}
		if v := r.Header.Values(name); len(v) > 0 {
			header[http.CanonicalHeaderKey(name)] = v
		}
	}

	return Key{URL: u.String(), Header: header}
}

// String returns the canonical textual form of the key.
func (k Key) String() string {
	names := make([]string, 0, len(k.Header))
	for name := range k.Header {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(http.MethodGet)
	b.WriteByte(' ')
	b.WriteString(k.URL)
	for _, name := range names {
		b.WriteByte('\n')
		b.WriteString(strings.ToLower(name))
		b.WriteString(": ")
		b.WriteString(strings.Join(k.Header[name], ", "))
	}
	return b.String()
}

// Digest returns a fixed-length hex digest of the key, used as the storage key.
func (k Key) Digest() string {
	sum := blake3.Sum256([]byte(k.String()))
	return hex.EncodeToString(sum[:])
}
