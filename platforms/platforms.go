// Package platforms holds the static registry of supported project
// platforms. The registry ships with the binary and never changes at
// runtime, so it is decoded once and cached for the process lifetime.
package platforms

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"
)

//go:embed langs.json
var langsJSON []byte

// Platform describes one accepted project format.
type Platform struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Accept []string `json:"accept"`
}

// Registry is an immutable lookup of platforms by id.
type Registry struct {
	byID map[string]Platform
	all  []Platform
}

var (
	loadOnce sync.Once
	loaded   *Registry
	loadErr  error
)

// Load returns the built-in registry, decoding it on first use.
func Load() (*Registry, error) {
	loadOnce.Do(func() {
		loaded, loadErr = Parse(langsJSON)
	})
	return loaded, loadErr
}

// Parse builds a Registry from raw JSON. Exposed for tests and for
// deployments overriding the built-in list.
func Parse(data []byte) (*Registry, error) {
	var all []Platform
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("failed to parse platform registry: %w", err)
	}

	byID := make(map[string]Platform, len(all))
	for _, p := range all {
		byID[p.ID] = p
	}
	return &Registry{byID: byID, all: all}, nil
}

// Lookup reports whether id names a known platform.
func (r *Registry) Lookup(id string) (Platform, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// All returns every registered platform.
func (r *Registry) All() []Platform {
	return r.all
}
