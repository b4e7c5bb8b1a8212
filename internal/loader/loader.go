package loader

import (
	"sync"

	"github.com/traitdex/traitdex/internal/types"
)

// State is the loader's publication state. The only transition is
// Unpublished -> Published, taken on the first Publish call, and it is
// permanent for the life of the loader.
type State int

const (
	Unpublished State = iota
	Published
)

func (s State) String() string {
	switch s {
	case Unpublished:
		return "unpublished"
	case Published:
		return "published"
	default:
		return "unknown"
	}
}

// Loader owns one embedded registry until handoff. The sink is injected at
// construction, so a publish is an unconditional delivery: either the
// installed hook fires or the pending cell is written, never both, never
// neither. There are no error conditions on this path; malformed embedded
// data is a generator defect, not something the loader reports.
type Loader struct {
	data  types.Registry
	sink  Sink
	mu    sync.Mutex
	state State
}

// New builds a loader around the generator-embedded dataset. The data is
// deep-copied so later mutation of the caller's value cannot leak into a
// publish.
func New(data types.Registry, sink Sink) *Loader {
	if sink == nil {
		panic("loader: sink is required")
	}
	return &Loader{
		data: data.Clone(),
		sink: sink,
	}
}

// Load returns the embedded registry. Callers get a deep copy; the loader
// keeps exclusive ownership of its dataset until handoff.
func (l *Loader) Load() types.Registry {
	return l.data.Clone()
}

// Publish hands the registry to the sink. Publishing twice is permitted and
// delivers twice (or overwrites the pending cell); the mechanism is loaded
// once per process, so idempotence is not part of the contract.
func (l *Loader) Publish() {
	l.mu.Lock()
	l.state = Published
	l.mu.Unlock()

	l.sink.Publish(l.data.Clone())
}

// State reports whether the loader has published yet.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}
