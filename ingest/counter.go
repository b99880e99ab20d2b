package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"telewarp/storage"
)

// Allocator issues strictly increasing project ids backed by a
// persisted counter. The read-increment-write is serialized through a
// mutex so two concurrent ingestions can never observe the same value;
// this assumes a single server process owns the counter key.
type Allocator struct {
	mu    sync.Mutex
	store storage.Store
}

func NewAllocator(store storage.Store) *Allocator {
	return &Allocator{store: store}
}

// Next increments the counter and returns the new value as a decimal
// string. An absent counter reads as zero.
func (a *Allocator) Next(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var current uint64
	raw, err := a.store.Get(ctx, storage.CounterKey)
	switch {
	case err == nil:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("malformed counter value: %w", err)
		}
		current, err = strconv.ParseUint(s, 10, 64)
		if err != nil {
			return "", fmt.Errorf("malformed counter value %q: %w", s, err)
		}
	case errors.Is(err, storage.ErrNotFound):
		current = 0
	default:
		return "", err
	}

	next := strconv.FormatUint(current+1, 10)
	value, err := json.Marshal(next)
	if err != nil {
		return "", err
	}
	if err := a.store.Put(ctx, storage.CounterKey, value); err != nil {
		return "", err
	}
	return next, nil
}
