package e2e_test

import (
	"io"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testObjects = map[string]string{
	"hello.txt":            "Hello, World!",
	"docs/readme.md":       "# readme",
	"assets/app.js":        "console.log('hi')",
	"digits/numbers.txt":   "0123456789",
	"conditional/etag.txt": "initial content",
}

// TestE2E_Retrieval_SQLite serves files indexed into SQLite with an
// in-memory response cache.
func TestE2E_Retrieval_SQLite(t *testing.T) {
	storageDir := t.TempDir()
	writeObjects(t, storageDir, testObjects)

	baseURL, cleanup := startServer(t, ServerConfig{
		Port:        getOpenPort(t),
		DBType:      "sqlite",
		DBDSN:       filepath.Join(t.TempDir(), "test.db"),
		StoragePath: storageDir,
	})
	defer cleanup()

	runRetrievalTests(t, baseURL)
	runConditionalRequestsTests(t, baseURL)
}

// TestE2E_Retrieval_SQLiteDatabaseCache keeps cached responses in SQLite.
func TestE2E_Retrieval_SQLiteDatabaseCache(t *testing.T) {
	storageDir := t.TempDir()
	writeObjects(t, storageDir, testObjects)

	baseURL, cleanup := startServer(t, ServerConfig{
		Port:         getOpenPort(t),
		DBType:       "sqlite",
		DBDSN:        filepath.Join(t.TempDir(), "test.db"),
		StoragePath:  storageDir,
		CacheBackend: "database",
	})
	defer cleanup()

	runRetrievalTests(t, baseURL)
}

// TestE2E_Retrieval_NoCache serves every request from storage.
func TestE2E_Retrieval_NoCache(t *testing.T) {
	storageDir := t.TempDir()
	writeObjects(t, storageDir, testObjects)

	baseURL, cleanup := startServer(t, ServerConfig{
		Port:         getOpenPort(t),
		DBType:       "sqlite",
		DBDSN:        filepath.Join(t.TempDir(), "test.db"),
		StoragePath:  storageDir,
		CacheBackend: "none",
	})
	defer cleanup()

	runRetrievalTests(t, baseURL)
	runConditionalRequestsTests(t, baseURL)
}

// TestE2E_Retrieval_Postgres serves files indexed into PostgreSQL with the
// response cache in a PostgreSQL table.
func TestE2E_Retrieval_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres e2e test in short mode")
	}

	dsn := getSharedPostgresDatabase(t)
	storageDir := t.TempDir()
	writeObjects(t, storageDir, testObjects)

	baseURL, cleanup := startServer(t, ServerConfig{
		Port:         getOpenPort(t),
		DBType:       "postgres",
		DBDSN:        dsn,
		Tables:       uuid.NewString()[:8],
		StoragePath:  storageDir,
		CacheBackend: "database",
	})
	defer cleanup()

	runRetrievalTests(t, baseURL)
	runConditionalRequestsTests(t, baseURL)
}

func get(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func newRequest(t *testing.T, method, url string) *http.Request {
	t.Helper()

	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	return req
}

// runRetrievalTests contains the shared GET/HEAD test logic.
func runRetrievalTests(t *testing.T, baseURL string) {
	t.Helper()

	t.Run("GET returns file content", func(t *testing.T) {
		resp, body := get(t, newRequest(t, http.MethodGet, baseURL+"/hello.txt"))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Hello, World!", body)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
		assert.NotEmpty(t, resp.Header.Get("ETag"))
		assert.NotEmpty(t, resp.Header.Get("Last-Modified"))
		assert.Equal(t, "13", resp.Header.Get("Content-Length"))
	})

	t.Run("repeated GET returns identical response", func(t *testing.T) {
		first, firstBody := get(t, newRequest(t, http.MethodGet, baseURL+"/docs/readme.md"))
		second, secondBody := get(t, newRequest(t, http.MethodGet, baseURL+"/docs/readme.md"))

		assert.Equal(t, http.StatusOK, second.StatusCode)
		assert.Equal(t, firstBody, secondBody)
		assert.Equal(t, first.Header.Get("ETag"), second.Header.Get("ETag"))
		assert.Equal(t, first.Header.Get("Content-Type"), second.Header.Get("Content-Type"))
		assert.Equal(t, first.Header.Get("Content-Length"), second.Header.Get("Content-Length"))
	})

	t.Run("HEAD returns headers without body", func(t *testing.T) {
		resp, body := get(t, newRequest(t, http.MethodHead, baseURL+"/assets/app.js"))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, body)
		assert.NotEmpty(t, resp.Header.Get("ETag"))
		assert.Equal(t, int64(len("console.log('hi')")), resp.ContentLength)
	})

	t.Run("GET with range returns partial content", func(t *testing.T) {
		req := newRequest(t, http.MethodGet, baseURL+"/digits/numbers.txt")
		req.Header.Set("Range", "bytes=2-5")

		resp, body := get(t, req)

		assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
		assert.Equal(t, "2345", body)
		assert.Equal(t, "bytes 2-5/10", resp.Header.Get("Content-Range"))
	})

	t.Run("GET with range beyond the end returns 416", func(t *testing.T) {
		req := newRequest(t, http.MethodGet, baseURL+"/digits/numbers.txt")
		req.Header.Set("Range", "bytes=50-60")

		resp, _ := get(t, req)

		assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, resp.StatusCode)
	})

	t.Run("GET missing object returns 404 page", func(t *testing.T) {
		resp, body := get(t, newRequest(t, http.MethodGet, baseURL+"/missing.txt"))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
		assert.Equal(t, `<html><body>Object "<b>missing.txt</b>" not found</body></html>`, body)
	})

	t.Run("HEAD missing object returns 404", func(t *testing.T) {
		resp, body := get(t, newRequest(t, http.MethodHead, baseURL+"/missing.txt"))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Empty(t, body)
	})

	t.Run("unsupported method returns 400", func(t *testing.T) {
		resp, body := get(t, newRequest(t, http.MethodPost, baseURL+"/hello.txt"))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Unsupported method", body)
	})

	t.Run("empty key returns 400", func(t *testing.T) {
		resp, body := get(t, newRequest(t, http.MethodGet, baseURL+"/"))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Empty(t, body)
	})
}

// runConditionalRequestsTests contains the shared conditional requests test logic.
func runConditionalRequestsTests(t *testing.T, baseURL string) {
	t.Helper()

	url := baseURL + "/conditional/etag.txt"

	resp, _ := get(t, newRequest(t, http.MethodGet, url))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	etag := resp.Header.Get("ETag")
	lastModified := resp.Header.Get("Last-Modified")
	require.NotEmpty(t, etag)
	require.NotEmpty(t, lastModified)

	t.Run("GET with matching If-None-Match returns 304", func(t *testing.T) {
		req := newRequest(t, http.MethodGet, url)
		req.Header.Set("If-None-Match", etag)

		resp, body := get(t, req)

		assert.Equal(t, http.StatusNotModified, resp.StatusCode)
		assert.Empty(t, body)
		assert.Equal(t, etag, resp.Header.Get("ETag"))
	})

	t.Run("GET with non-matching If-None-Match returns content", func(t *testing.T) {
		req := newRequest(t, http.MethodGet, url)
		req.Header.Set("If-None-Match", `"different-etag"`)

		resp, body := get(t, req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "initial content", body)
	})

	t.Run("GET with If-Modified-Since at last modified returns 304", func(t *testing.T) {
		req := newRequest(t, http.MethodGet, url)
		req.Header.Set("If-Modified-Since", lastModified)

		resp, _ := get(t, req)

		assert.Equal(t, http.StatusNotModified, resp.StatusCode)
	})

	t.Run("GET with wrong If-Match returns headers only", func(t *testing.T) {
		req := newRequest(t, http.MethodGet, url)
		req.Header.Set("If-Match", `"wrong-etag"`)

		resp, body := get(t, req)

		assert.Equal(t, http.StatusNotModified, resp.StatusCode)
		assert.Empty(t, body)
	})
}

// TestE2E_ConfigCommand prints the merged configuration.
func TestE2E_ConfigCommand(t *testing.T) {
	configPath := createConfigFile(t, ServerConfig{
		Port:        7123,
		DBType:      "sqlite",
		DBDSN:       filepath.Join(t.TempDir(), "test.db"),
		StoragePath: t.TempDir(),
	})

	output := runCommand(t, configPath, "config")

	assert.Contains(t, output, "port: 7123")
	assert.Contains(t, output, "backend: filesystem")
	assert.Contains(t, output, "default_ttl: 1m0s")
}
