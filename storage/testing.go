package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestStore opens a throwaway bolt store under t.TempDir and closes
// it when the test finishes. Used by other packages' tests as well.
func NewTestStore(t *testing.T) Store {
	t.Helper()

	store, err := OpenBolt(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

// SetupTestPostgres connects to dbURL, applies the schema and
// truncates all tables for a fresh state.
func SetupTestPostgres(t *testing.T, dbURL string) *Postgres {
	t.Helper()

	ctx := context.Background()
	pg, err := ConnectPostgres(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { pg.Close() })

	require.NoError(t, pg.Migrate(ctx))

	_, err = pg.Pool.Exec(ctx, "TRUNCATE TABLE users, sessions, projects, counters, recent_projects")
	require.NoError(t, err)

	return pg
}
