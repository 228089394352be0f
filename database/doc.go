// Package database connects to the metadata backends.
//
// A backend stores two tables: object metadata, read by stowgate.Bucket, and
// cached HTTP responses, read by cache.ResponseCache. Both table names are
// configurable so several gateways can share one database.
//
// # Supported Backends
//
//   - PostgreSQL: Production-ready backend using pgx connection pool
//   - SQLite: Lightweight backend suitable for development and single-node deployments
//
// # Usage
//
//	db, err := database.Connect(ctx, database.Config{
//	    Type:   "sqlite",
//	    DSN:    "stowgate.db",
//	    Tables: stowgate.Tables{MetaData: "stowgate_metadata", ResponseCache: "stowgate_cache"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	repo := db.GetRepo()
//	store := db.GetCacheStore()
//
// # Subpackages
//
//   - database/postgres: PostgreSQL implementation using pgx
//   - database/sqlite: SQLite implementation using modernc.org/sqlite
package database
