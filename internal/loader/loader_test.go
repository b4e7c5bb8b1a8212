package loader

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/traitdex/traitdex/internal/types"
)

func dataset() types.Registry {
	return types.Registry{
		"modA": {
			{
				Display:   `impl FromAccountId for <a class="struct">AccountId</a>`,
				Synthetic: false,
				Types:     []string{"modA::AccountId"},
			},
		},
	}
}

func TestPublishInstalledHookInvokedOnce(t *testing.T) {
	var calls int
	var received types.Registry

	sink := NewInstalledSink(func(r types.Registry) {
		calls++
		received = r
	})

	l := New(dataset(), sink)
	l.Publish()

	if calls != 1 {
		t.Fatalf("hook invoked %d times, want 1", calls)
	}
	if diff := cmp.Diff(dataset(), received); diff != "" {
		t.Errorf("hook argument mismatch (-want +got):\n%s", diff)
	}
	if l.State() != Published {
		t.Errorf("state = %s, want published", l.State())
	}
}

func TestPublishPendingBuffersValue(t *testing.T) {
	sink := NewPendingSink()

	l := New(dataset(), sink)
	l.Publish()

	buffered, ok := sink.Take()
	if !ok {
		t.Fatal("pending sink should hold a value after publish")
	}
	if diff := cmp.Diff(dataset(), buffered); diff != "" {
		t.Errorf("buffered registry mismatch (-want +got):\n%s", diff)
	}

	if _, ok := sink.Take(); ok {
		t.Error("take should drain the cell")
	}
}

func TestPublishTwice(t *testing.T) {
	t.Run("installed delivers twice", func(t *testing.T) {
		var calls int
		l := New(dataset(), NewInstalledSink(func(types.Registry) { calls++ }))
		l.Publish()
		l.Publish()
		if calls != 2 {
			t.Errorf("hook invoked %d times, want 2", calls)
		}
	})

	t.Run("pending overwrites", func(t *testing.T) {
		sink := NewPendingSink()
		New(dataset(), sink).Publish()

		second := types.Registry{"modB": nil}
		New(second, sink).Publish()

		buffered, ok := sink.Take()
		if !ok {
			t.Fatal("cell should hold the second publish")
		}
		if diff := cmp.Diff(second, buffered); diff != "" {
			t.Errorf("cell should hold the later value (-want +got):\n%s", diff)
		}
	})
}

func TestMalformedRegistryStoredAsIs(t *testing.T) {
	// An empty descriptor list violates the generator-side invariant, but
	// the delivery path stores it untouched rather than crashing.
	malformed := types.Registry{"modB": {}}

	sink := NewPendingSink()
	New(malformed, sink).Publish()

	buffered, ok := sink.Take()
	if !ok {
		t.Fatal("malformed registry should still be buffered")
	}
	if !buffered.Equal(malformed) {
		t.Error("malformed registry should be stored as-is")
	}
}

func TestLoadReturnsCopy(t *testing.T) {
	l := New(dataset(), NewPendingSink())

	first := l.Load()
	first["modA"][0].Types[0] = "mutated"

	if diff := cmp.Diff(dataset(), l.Load()); diff != "" {
		t.Errorf("mutating a loaded copy must not affect the loader (-want +got):\n%s", diff)
	}
}

func TestHookNeverInvokedWhenPending(t *testing.T) {
	// Wiring a pending sink means there is no hook to call; nothing here
	// should panic or attempt delivery beyond the cell write.
	sink := NewPendingSink()
	l := New(dataset(), sink)
	l.Publish()

	if l.State() != Published {
		t.Error("publish through a pending sink still transitions state")
	}
}
