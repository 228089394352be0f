package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/cache"
	"github.com/sagarc03/stowgate/config"
	"github.com/sagarc03/stowgate/database"
	"github.com/sagarc03/stowgate/filesystem"
	"github.com/sagarc03/stowgate/s3"
)

// backends holds everything opened for a command. close releases it in
// reverse order.
type backends struct {
	db      database.Database
	root    *os.Root
	bucket  *stowgate.Bucket
	store   stowgate.ObjectStore
	closers []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func needsDatabase(cfg *config.Config) bool {
	return cfg.Store.Backend == "filesystem" || cfg.Cache.Backend == "database"
}

func openDatabase(ctx context.Context, b *backends, cfg *config.Config, migrate bool) error {
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	b.db = db
	b.closers = append(b.closers, func() { _ = db.Close() })

	if err = db.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if migrate {
		if err = db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		slog.Info("database migration complete")
	}

	if err = db.Validate(ctx); err != nil {
		return fmt.Errorf("validate database schema (run \"stowgate init\" first): %w", err)
	}

	slog.Info("connected to database", "type", cfg.Database.Type)
	return nil
}

// openFilesystem opens the storage directory, which must already exist.
func openFilesystem(b *backends, cfg *config.Config) error {
	path := cfg.Storage.Path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("storage directory does not exist: %s", path)
	}

	root, err := os.OpenRoot(path)
	if err != nil {
		return fmt.Errorf("open storage root: %w", err)
	}
	b.root = root
	b.closers = append(b.closers, func() { _ = root.Close() })

	bucket, err := stowgate.NewBucket(b.db.GetRepo(), filesystem.NewFileStorage(root))
	if err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	b.bucket = bucket
	b.store = bucket
	return nil
}

// openBackends opens the database when needed and the configured object store.
func openBackends(ctx context.Context, cfg *config.Config, migrate bool) (*backends, error) {
	b := &backends{}

	if needsDatabase(cfg) {
		if err := openDatabase(ctx, b, cfg, migrate); err != nil {
			b.close()
			return nil, err
		}
	}

	switch cfg.Store.Backend {
	case "filesystem":
		if err := openFilesystem(b, cfg); err != nil {
			b.close()
			return nil, err
		}
	case "s3":
		store, err := s3.New(cfg.S3)
		if err != nil {
			b.close()
			return nil, fmt.Errorf("create s3 store: %w", err)
		}
		b.store = store
	default:
		b.close()
		return nil, fmt.Errorf("unsupported store backend: %q", cfg.Store.Backend)
	}

	return b, nil
}

// cacheStore returns the byte store backing the response cache, or nil when
// caching is disabled.
func (b *backends) cacheStore(cfg *config.Config) cache.Store {
	switch cfg.Cache.Backend {
	case "memory":
		return cache.NewMemoryStore(cfg.Cache.MaxEntries)
	case "database":
		return b.db.GetCacheStore()
	default:
		return nil
	}
}
