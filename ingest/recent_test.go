package ingest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telewarp/storage"
)

func TestRecent_AppendKeepsOrder(t *testing.T) {
	store := storage.NewTestStore(t)
	recent := NewRecent(store)
	ctx := context.Background()

	require.NoError(t, recent.Append(ctx, "1"))
	require.NoError(t, recent.Append(ctx, "2"))
	require.NoError(t, recent.Append(ctx, "3"))

	assert.Equal(t, []string{"1", "2", "3"}, recent.List(ctx))
}

func TestRecent_CapDropsOldest(t *testing.T) {
	store := storage.NewTestStore(t)
	recent := NewRecent(store)
	ctx := context.Background()

	for i := 1; i <= RecentLimit+5; i++ {
		require.NoError(t, recent.Append(ctx, fmt.Sprintf("%d", i)))
	}

	ids := recent.List(ctx)
	require.Len(t, ids, RecentLimit)
	assert.Equal(t, "6", ids[0])
	assert.Equal(t, "25", ids[len(ids)-1])
}

func TestRecent_EmptyOnAbsent(t *testing.T) {
	store := storage.NewTestStore(t)
	recent := NewRecent(store)

	assert.Empty(t, recent.List(context.Background()))
}

func TestRecent_MalformedResetsToEmpty(t *testing.T) {
	store := storage.NewTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, storage.RecentKey, []byte(`{not a list`)))

	recent := NewRecent(store)
	assert.Empty(t, recent.List(ctx))

	require.NoError(t, recent.Append(ctx, "1"))
	assert.Equal(t, []string{"1"}, recent.List(ctx))
}
