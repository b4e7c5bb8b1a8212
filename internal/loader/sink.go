// Package loader implements the registration side of the implementor data
// flow: a loader carries the dataset a generator embedded for one trait page
// and hands it to whatever the host wired in as its sink. The host decides at
// construction time whether its hook is installed or whether publishes should
// buffer until it comes up; the loader itself never checks for the host's
// existence at publish time.
package loader

import (
	"sync"

	"github.com/traitdex/traitdex/internal/types"
)

// Hook is the host-owned callback that receives a registry synchronously.
type Hook func(types.Registry)

// Sink receives published registries. Exactly two implementations exist:
// InstalledSink delivers to a live hook, PendingSink buffers for a host that
// has not initialized yet.
type Sink interface {
	Publish(registry types.Registry)
}

// InstalledSink delivers each published registry to the hook, synchronously,
// exactly once per publish.
type InstalledSink struct {
	hook Hook
}

// NewInstalledSink wires a live host hook. A nil hook panics here rather than
// at the first publish; an installed sink without a hook is a wiring defect.
func NewInstalledSink(hook Hook) *InstalledSink {
	if hook == nil {
		panic("loader: installed sink requires a hook")
	}
	return &InstalledSink{hook: hook}
}

func (s *InstalledSink) Publish(registry types.Registry) {
	s.hook(registry)
}

// PendingSink is a single-value buffer cell. A publish overwrites any value
// already buffered; the host drains it once when it initializes.
type PendingSink struct {
	mu       sync.Mutex
	buffered types.Registry
	filled   bool
}

func NewPendingSink() *PendingSink {
	return &PendingSink{}
}

func (s *PendingSink) Publish(registry types.Registry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffered = registry
	s.filled = true
}

// Take drains the cell, returning the buffered registry and whether one was
// present. After Take the cell is empty again.
func (s *PendingSink) Take() (types.Registry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	registry, ok := s.buffered, s.filled
	s.buffered = nil
	s.filled = false
	return registry, ok
}

// Peek reports the buffered registry without draining it.
func (s *PendingSink) Peek() (types.Registry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffered, s.filled
}
