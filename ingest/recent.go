package ingest

import (
	"context"
	"encoding/json"
	"sync"

	"telewarp/storage"
)

// RecentLimit bounds the recency index.
const RecentLimit = 20

// Recent maintains the bounded list of most-recently-ingested project
// ids. The whole list is rewritten on every append, so appends are
// serialized through a mutex; an absent or malformed list reads as
// empty rather than failing.
type Recent struct {
	mu    sync.Mutex
	store storage.Store
}

func NewRecent(store storage.Store) *Recent {
	return &Recent{store: store}
}

// Append pushes id onto the end of the list, dropping the oldest
// entries once the list exceeds RecentLimit.
func (r *Recent) Append(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.load(ctx)
	ids = append(ids, id)
	if len(ids) > RecentLimit {
		ids = ids[len(ids)-RecentLimit:]
	}

	value, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, storage.RecentKey, value)
}

// List returns the current ids, oldest first.
func (r *Recent) List(ctx context.Context) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

func (r *Recent) load(ctx context.Context) []string {
	raw, err := r.store.Get(ctx, storage.RecentKey)
	if err != nil {
		return []string{}
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return []string{}
	}
	return ids
}
