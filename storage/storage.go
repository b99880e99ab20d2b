package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get for absent keys. Callers treat it as
// "no such record", not as a storage failure.
var ErrNotFound = errors.New("key not found")

// Well-known keys and prefixes of the logical key space.
const (
	CounterKey         = "project_counter"
	RecentKey          = "projects:recent"
	ProjectPrefix      = "project:"
	UserPrefix         = "user:"
	SessionPrefix      = "session:"
	UserProjectsPrefix = "user_projects:"
)

// Store is a uniform key-value view over the backing engine. Values
// are JSON documents; keys are opaque strings grouped by prefix.
// Iterate visits keys in [start, end) in ascending key order, stopping
// early if fn returns an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Iterate(ctx context.Context, start, end string, fn func(key string, value []byte) error) error
	Close() error
}

// PrefixEnd returns the smallest key greater than every key with the
// given prefix, for use as an Iterate upper bound.
func PrefixEnd(prefix string) string {
	b := []byte(prefix)
	b[len(b)-1]++
	return string(b)
}
