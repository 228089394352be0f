// Package http serves objects from a stowgate.ObjectStore over HTTP.
//
// Every path below the root is treated as an object key. Only GET and HEAD
// are supported:
//
//   - GET streams the object, honoring a single byte range (206) and the
//     If-Match, If-None-Match, If-Modified-Since and If-Unmodified-Since
//     preconditions (304 when the body is withheld)
//   - HEAD returns the object headers with Content-Length set to the object size
//   - Missing objects get a small HTML 404 page naming the key
//
// # Caching
//
// When a Cache is configured, GET and HEAD requests are first looked up in it
// under a key built from the request URL and the configured vary headers.
// HEAD and GET share a key, so a HEAD request is answered from a cached GET.
// Successful GET responses (200, 206, 304) are written back asynchronously
// after the response has been sent; Handler.Wait drains pending writes.
//
// # Errors
//
// Unexpected failures, including panics, produce a 500 text/plain response
// whose body is "Error thrown: " followed by the error message.
//
// # Usage
//
//	h := http.NewHandler(&http.HandlerConfig{}, bucket, cache.New(store, cache.Config{DefaultTTL: time.Hour}))
//	srv := &nethttp.Server{Addr: ":8080", Handler: h.Router()}
//	_ = srv.ListenAndServe()
package http
