package sqlite_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/database/sqlite"
)

func testTables() stowgate.Tables {
	suffix := uuid.NewString()[:8]
	return stowgate.Tables{
		MetaData:      fmt.Sprintf("metadata_%s", suffix),
		ResponseCache: fmt.Sprintf("response_cache_%s", suffix),
	}
}

// setupTestDB opens an in-memory database with migrated tables.
func setupTestDB(t *testing.T) *sqlite.Database {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Connect(ctx, ":memory:", testTables())
	require.NoError(t, err, "failed to connect")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx), "failed to migrate")

	return db
}
