// Package registry holds the host's accumulated view of every registry
// published so far. Loaders deliver one registry per trait page; the host
// merges them here, keyed by trait and module, and the renderer reads the
// merged view back out.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/traitdex/traitdex/internal/logger"
	"github.com/traitdex/traitdex/internal/types"
)

var log = logger.ForComponent("registry")

// Stats summarizes the accumulated view.
type Stats struct {
	Traits       int       `json:"traits"`
	Modules      int       `json:"modules"`
	Implementors int       `json:"implementors"`
	Publishes    int64     `json:"publishes"`
	LastPublish  time.Time `json:"last_publish,omitempty"`
}

// Registry accumulates published registries across loader invocations.
// A later publish for the same trait replaces the entries of every module it
// names and leaves other modules' entries alone, so regenerated modules
// update independently.
type Registry struct {
	mu        sync.RWMutex
	traits    map[string]types.Registry
	publishes int64
	last      time.Time
	subs      []chan struct{}
}

func New() *Registry {
	return &Registry{
		traits: make(map[string]types.Registry),
	}
}

// Apply merges one published registry into the view under the given trait.
// The registry is deep-copied on the way in; the caller keeps no ownership.
func (r *Registry) Apply(trait string, reg types.Registry) {
	r.mu.Lock()

	view, ok := r.traits[trait]
	if !ok {
		view = make(types.Registry, len(reg))
		r.traits[trait] = view
	}
	for module, descs := range reg.Clone() {
		view[module] = descs
	}

	r.publishes++
	r.last = time.Now()
	subs := make([]chan struct{}, len(r.subs))
	copy(subs, r.subs)
	r.mu.Unlock()

	log.Debug("registry applied", "trait", trait, "modules", len(reg))

	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// ImplementorsOf returns a deep copy of the accumulated registry for a trait.
// The bool reports whether anything has been published for it.
func (r *Registry) ImplementorsOf(trait string) (types.Registry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	view, ok := r.traits[trait]
	if !ok {
		return nil, false
	}
	return view.Clone(), true
}

// Traits lists every trait with published implementors, sorted.
func (r *Registry) Traits() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.traits))
	for name := range r.traits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Modules lists every module that has published anything, sorted.
func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, view := range r.traits {
		for module := range view {
			seen[module] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stats reports counts over the accumulated view.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	modules := make(map[string]struct{})
	implementors := 0
	for _, view := range r.traits {
		for module, descs := range view {
			modules[module] = struct{}{}
			implementors += len(descs)
		}
	}

	return Stats{
		Traits:       len(r.traits),
		Modules:      len(modules),
		Implementors: implementors,
		Publishes:    r.publishes,
		LastPublish:  r.last,
	}
}

// Subscribe returns a channel that receives a signal after each apply.
// Signals are dropped rather than blocking a slow subscriber; the payload is
// always "re-read the view", so coalescing is harmless.
func (r *Registry) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	r.mu.Lock()
	r.subs = append(r.subs, ch)
	r.mu.Unlock()
	return ch
}
