package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/cache"
)

// Cache is the response cache consulted before the object store.
type Cache interface {
	Match(ctx context.Context, key cache.Key) (*cache.Entry, error)
	Put(ctx context.Context, key cache.Key, e *cache.Entry) error
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled" yaml:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers" yaml:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers" yaml:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" yaml:"max_age"`
}

type HandlerConfig struct {
	CORS CORSConfig
	// VaryHeaders adds request headers to the cache key on top of
	// cache.DefaultVaryHeaders, which always take part.
	// Defaults to cache.DefaultVaryHeaders.
	VaryHeaders []string
	// MaxCacheEntrySize caps the body size captured for the cache. Zero means no limit.
	MaxCacheEntrySize int64
	// CacheWriteTimeout bounds a single background cache write. Defaults to 30s.
	CacheWriteTimeout time.Duration
	// MaxPendingWrites bounds concurrent background cache writes; extra writes
	// are dropped. Zero means no limit.
	MaxPendingWrites int
}

// Handler serves objects from an ObjectStore through an optional response cache.
type Handler struct {
	config     HandlerConfig
	store      stowgate.ObjectStore
	cache      Cache
	background *Background
}

// NewHandler creates a new Handler. A nil cache disables response caching.
func NewHandler(config *HandlerConfig, store stowgate.ObjectStore, c Cache) *Handler {
	cfg := *config
	if cfg.VaryHeaders == nil {
		cfg.VaryHeaders = cache.DefaultVaryHeaders
	}
	if cfg.CacheWriteTimeout <= 0 {
		cfg.CacheWriteTimeout = 30 * time.Second
	}

	return &Handler{
		config:     cfg,
		store:      store,
		cache:      c,
		background: NewBackground(cfg.MaxPendingWrites, cfg.CacheWriteTimeout),
	}
}

// Router returns an http.Handler serving every path through the object handler.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestLogger)
	r.Use(Recoverer)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.HandleFunc("/*", h.handleObject)

	return r
}

// Wait blocks until pending background cache writes finish or ctx is done.
func (h *Handler) Wait(ctx context.Context) error {
	return h.background.Wait(ctx)
}

func (h *Handler) handleObject(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/")

	if key == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		WriteText(w, http.StatusBadRequest, "Unsupported method")
		return
	}

	cacheKey := cache.NewKey(r, h.config.VaryHeaders)

	if h.cache != nil {
		entry, err := h.cache.Match(r.Context(), cacheKey)
		if err != nil {
			LoggerFromContext(r.Context()).Warn("cache lookup failed", "key", key, "err", err)
		} else if entry != nil {
			writeEntry(w, r, entry)
			return
		}
	}

	if r.Method == http.MethodHead {
		h.serveHead(w, r, key)
		return
	}

	h.serveGet(w, r, key, cacheKey)
}

func (h *Handler) serveGet(w http.ResponseWriter, r *http.Request, key string, cacheKey cache.Key) {
	rng, err := stowgate.ParseRange(r.Header.Get("Range"))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	obj, err := h.store.Get(r.Context(), key, stowgate.GetOptions{
		Range:  rng,
		OnlyIf: stowgate.ConditionsFromHeader(r.Header),
	})
	if err != nil {
		if errors.Is(err, stowgate.ErrNotFound) {
			writeNotFound(w, r, key)
		} else {
			HandleError(w, r, err)
		}
		return
	}

	header := objectHeader(obj)

	if obj.Body == nil {
		copyHeader(w.Header(), header)
		w.WriteHeader(http.StatusNotModified)
		h.schedulePut(r, cacheKey, &cache.Entry{Status: http.StatusNotModified, Header: header})
		return
	}
	defer func() { _ = obj.Body.Close() }()

	status := http.StatusOK
	length := obj.Size
	if obj.Range != nil {
		status = http.StatusPartialContent
		length = obj.Range.Length
		header.Set("Content-Range", stowgate.ContentRange(*obj.Range, obj.Size))
	}
	header.Set("Content-Length", strconv.FormatInt(length, 10))

	copyHeader(w.Header(), header)
	w.WriteHeader(status)

	var capture *captureWriter
	var dst io.Writer = w
	if h.cache != nil && (h.config.MaxCacheEntrySize <= 0 || length <= h.config.MaxCacheEntrySize) {
		capture = newCaptureWriter(length)
		dst = io.MultiWriter(w, capture)
	}

	n, err := io.Copy(dst, obj.Body)
	if err != nil {
		LoggerFromContext(r.Context()).Warn("object body copy failed", "key", key, "written", n, "err", err)
		return
	}

	if capture == nil || capture.Overflowed() || n != length {
		return
	}

	h.schedulePut(r, cacheKey, &cache.Entry{Status: status, Header: header, Body: capture.Bytes()})
}

func (h *Handler) serveHead(w http.ResponseWriter, r *http.Request, key string) {
	obj, err := h.store.Head(r.Context(), key, stowgate.HeadOptions{
		OnlyIf: stowgate.ConditionsFromHeader(r.Header),
	})
	if err != nil {
		if errors.Is(err, stowgate.ErrNotFound) {
			writeNotFound(w, r, key)
		} else {
			HandleError(w, r, err)
		}
		return
	}

	header := objectHeader(obj)
	header.Set("Content-Length", strconv.FormatInt(obj.Size, 10))

	copyHeader(w.Header(), header)
	w.WriteHeader(http.StatusOK)
}

// schedulePut hands a copy of the response to the cache without delaying the
// response. The write runs on the background group with its own timeout.
func (h *Handler) schedulePut(r *http.Request, key cache.Key, e *cache.Entry) {
	if h.cache == nil {
		return
	}

	entry := e.Clone()

	h.background.Go(LoggerFromContext(r.Context()), "cache put", func(ctx context.Context) error {
		return h.cache.Put(ctx, key, entry)
	})
}

// objectHeader builds the representation headers for obj. A header is only
// set when the underlying metadata value is present.
func objectHeader(obj *stowgate.Object) http.Header {
	h := make(http.Header)

	if !obj.Uploaded.IsZero() {
		h.Set("Last-Modified", obj.Uploaded.UTC().Format(http.TimeFormat))
	}
	if etag := obj.HTTPEtag(); etag != "" {
		h.Set("ETag", etag)
	}

	md := obj.HTTPMetadata
	setIfPresent(h, "Content-Type", md.ContentType)
	setIfPresent(h, "Content-Language", md.ContentLanguage)
	setIfPresent(h, "Content-Disposition", md.ContentDisposition)
	setIfPresent(h, "Content-Encoding", md.ContentEncoding)
	setIfPresent(h, "Cache-Control", md.CacheControl)

	return h
}

func setIfPresent(h http.Header, name, value string) {
	if value != "" {
		h.Set(name, value)
	}
}
