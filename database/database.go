package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/cache"
	"github.com/sagarc03/stowgate/database/postgres"
	"github.com/sagarc03/stowgate/database/sqlite"
)

// Config holds the configuration for connecting to a metadata backend.
type Config struct {
	// Type specifies the database type: "sqlite" or "postgres"
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=sqlite postgres"`
	// DSN is the data source name (connection string)
	DSN string `mapstructure:"dsn" yaml:"dsn" validate:"required"`
	// Tables names the metadata and response cache tables
	Tables stowgate.Tables `mapstructure:"tables" yaml:"tables"`
}

// Database is a connected metadata backend.
type Database interface {
	Ping(ctx context.Context) error
	// Migrate creates missing tables. It is safe to run repeatedly.
	Migrate(ctx context.Context) error
	// Validate checks that existing tables match the expected schema.
	Validate(ctx context.Context) error
	GetRepo() stowgate.MetaDataRepo
	GetCacheStore() cache.Store
	Close() error
}

// Connect opens the configured backend. It validates table names but does
// not touch the schema; call Migrate or Validate as needed.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	switch cfg.Type {
	case "sqlite":
		db, err := sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("connect: unsupported database type: %q", cfg.Type)
	}
}
