package cache_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sagarc03/stowgate/cache"
)

func TestNewKey_HeadMatchesGet(t *testing.T) {
	get := httptest.NewRequest(http.MethodGet, "http://example.com/a/b.png?v=1", nil)
	head := httptest.NewRequest(http.MethodHead, "http://example.com/a/b.png?v=1", nil)

	assert.Equal(t, cache.NewKey(get, cache.DefaultVaryHeaders).Digest(), cache.NewKey(head, cache.DefaultVaryHeaders).Digest())
}

func TestNewKey_HeadIgnoresRange(t *testing.T) {
	get := httptest.NewRequest(http.MethodGet, "http://example.com/a.bin", nil)
	head := httptest.NewRequest(http.MethodHead, "http://example.com/a.bin", nil)
	head.Header.Set("Range", "bytes=0-9")

	assert.Equal(t, cache.NewKey(get, cache.DefaultVaryHeaders).String(), cache.NewKey(head, cache.DefaultVaryHeaders).String())
}

func TestNewKey_VaryHeadersSplitVariants(t *testing.T) {
	plain := httptest.NewRequest(http.MethodGet, "http://example.com/a.bin", nil)
	ranged := httptest.NewRequest(http.MethodGet, "http://example.com/a.bin", nil)
	ranged.Header.Set("Range", "bytes=0-9")
	conditional := httptest.NewRequest(http.MethodGet, "http://example.com/a.bin", nil)
	conditional.Header.Set("If-None-Match", `"abc"`)

	keys := map[string]bool{
		cache.NewKey(plain, cache.DefaultVaryHeaders).Digest():       true,
		cache.NewKey(ranged, cache.DefaultVaryHeaders).Digest():      true,
		cache.NewKey(conditional, cache.DefaultVaryHeaders).Digest(): true,
	}
	assert.Len(t, keys, 3)
}

func TestNewKey_IgnoresUnselectedHeaders(t *testing.T) {
	a := httptest.NewRequest(http.MethodGet, "http://example.com/a.bin", nil)
	b := httptest.NewRequest(http.MethodGet, "http://example.com/a.bin", nil)
	b.Header.Set("User-Agent", "curl/8.0")

	assert.Equal(t, cache.NewKey(a, cache.DefaultVaryHeaders).Digest(), cache.NewKey(b, cache.DefaultVaryHeaders).Digest())
}

func TestNewKey_ConditionalHeadersAlwaysVary(t *testing.T) {
	extra := []string{"Accept-Encoding"}

	plain := httptest.NewRequest(http.MethodGet, "http://example.com/a.bin", nil)
	conditional := httptest.NewRequest(http.MethodGet, "http://example.com/a.bin", nil)
	conditional.Header.Set("If-None-Match", `"v1"`)
	ranged := httptest.NewRequest(http.MethodGet, "http://example.com/a.bin", nil)
	ranged.Header.Set("Range", "bytes=0-9")
	encoded := httptest.NewRequest(http.MethodGet, "http://example.com/a.bin", nil)
	encoded.Header.Set("Accept-Encoding", "gzip")

	for _, varyHeaders := range [][]string{extra, nil} {
		assert.NotEqual(t, cache.NewKey(plain, varyHeaders).Digest(), cache.NewKey(conditional, varyHeaders).Digest())
		assert.NotEqual(t, cache.NewKey(plain, varyHeaders).Digest(), cache.NewKey(ranged, varyHeaders).Digest())
	}

	assert.NotEqual(t, cache.NewKey(plain, extra).Digest(), cache.NewKey(encoded, extra).Digest())
	assert.Equal(t, cache.NewKey(plain, nil).Digest(), cache.NewKey(encoded, nil).Digest())
}

func TestNewKey_DuplicateVaryHeaders(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example.com/a.bin", nil)
	r.Header.Set("Range", "bytes=0-9")

	assert.Equal(t,
		cache.NewKey(r, nil).String(),
		cache.NewKey(r, []string{"range", "Range"}).String())
}

func TestKey_String(t *testing.T) {
	r := httptest.NewRequest(http.MethodHead, "http://example.com/x.txt?b=2", nil)
	r.Header.Set("If-None-Match", `"v1"`)

	assert.Equal(t, "GET http://example.com/x.txt?b=2\nif-none-match: \"v1\"", cache.NewKey(r, cache.DefaultVaryHeaders).String())
}

func TestKey_DigestIsFixedLength(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example.com/very/long/path/to/some/release/artifact-name.tar.gz", nil)
	assert.Len(t, cache.NewKey(r, nil).Digest(), 64)
}
