package ingest

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telewarp/storage"
)

func TestAllocator_StartsAtOne(t *testing.T) {
	store := storage.NewTestStore(t)
	alloc := NewAllocator(store)

	id, err := alloc.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1", id)
}

func TestAllocator_StrictlyIncreasing(t *testing.T) {
	store := storage.NewTestStore(t)
	alloc := NewAllocator(store)
	ctx := context.Background()

	prev := uint64(0)
	for i := 0; i < 50; i++ {
		id, err := alloc.Next(ctx)
		require.NoError(t, err)

		n, err := strconv.ParseUint(id, 10, 64)
		require.NoError(t, err)
		assert.Greater(t, n, prev)
		prev = n
	}
	assert.Equal(t, uint64(50), prev)
}

func TestAllocator_PersistsAcrossInstances(t *testing.T) {
	store := storage.NewTestStore(t)
	ctx := context.Background()

	first := NewAllocator(store)
	id, err := first.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", id)

	second := NewAllocator(store)
	id, err = second.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2", id)
}

func TestAllocator_ConcurrentAllocationsUnique(t *testing.T) {
	store := storage.NewTestStore(t)
	alloc := NewAllocator(store)
	ctx := context.Background()

	const n = 32
	ids := make(chan string, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := alloc.Next(ctx)
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "id %s allocated twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}
