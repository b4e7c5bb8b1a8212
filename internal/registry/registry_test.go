package registry

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/traitdex/traitdex/internal/types"
)

func descriptors(display string, typePaths ...string) []types.ImplementorDescriptor {
	return []types.ImplementorDescriptor{{Display: display, Types: typePaths}}
}

func TestApplyAndQuery(t *testing.T) {
	r := New()

	r.Apply("ink_env::Environment", types.Registry{
		"ink_env": descriptors("impl Environment for DefaultEnvironment", "ink_env::DefaultEnvironment"),
	})

	view, ok := r.ImplementorsOf("ink_env::Environment")
	if !ok {
		t.Fatal("trait should be present after apply")
	}
	if len(view["ink_env"]) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(view["ink_env"]))
	}

	if _, ok := r.ImplementorsOf("unknown::Trait"); ok {
		t.Error("unknown trait should not be present")
	}
}

func TestApplyReplacesModuleEntriesOnly(t *testing.T) {
	r := New()

	r.Apply("scale::Encode", types.Registry{
		"modA": descriptors("impl Encode for A", "modA::A"),
		"modB": descriptors("impl Encode for B", "modB::B"),
	})

	// A re-publish for modA replaces modA wholesale and leaves modB alone.
	replacement := types.Registry{
		"modA": descriptors("impl Encode for A2", "modA::A2"),
	}
	r.Apply("scale::Encode", replacement)

	view, _ := r.ImplementorsOf("scale::Encode")
	if diff := cmp.Diff(replacement["modA"], view["modA"]); diff != "" {
		t.Errorf("modA should hold the later publish (-want +got):\n%s", diff)
	}
	if len(view["modB"]) != 1 {
		t.Error("modB entries should survive a modA re-publish")
	}
}

func TestApplyCopiesInput(t *testing.T) {
	r := New()

	reg := types.Registry{"modA": descriptors("impl X for A", "modA::A")}
	r.Apply("t::X", reg)

	reg["modA"][0].Display = "mutated"

	view, _ := r.ImplementorsOf("t::X")
	if view["modA"][0].Display != "impl X for A" {
		t.Error("mutating the caller's registry after apply must not affect the view")
	}
}

func TestTraitsAndModulesSorted(t *testing.T) {
	r := New()
	r.Apply("z::Last", types.Registry{"modB": nil})
	r.Apply("a::First", types.Registry{"modA": descriptors("impl First for A", "modA::A")})

	wantTraits := []string{"a::First", "z::Last"}
	if diff := cmp.Diff(wantTraits, r.Traits()); diff != "" {
		t.Errorf("traits mismatch (-want +got):\n%s", diff)
	}

	wantModules := []string{"modA", "modB"}
	if diff := cmp.Diff(wantModules, r.Modules()); diff != "" {
		t.Errorf("modules mismatch (-want +got):\n%s", diff)
	}
}

func TestStats(t *testing.T) {
	r := New()

	stats := r.Stats()
	if stats.Publishes != 0 || stats.Traits != 0 {
		t.Fatal("fresh registry should have zero stats")
	}

	r.Apply("t::X", types.Registry{"modA": descriptors("impl X for A", "modA::A")})
	r.Apply("t::Y", types.Registry{"modA": descriptors("impl Y for A", "modA::A")})

	stats = r.Stats()
	if stats.Publishes != 2 {
		t.Errorf("publishes = %d, want 2", stats.Publishes)
	}
	if stats.Traits != 2 || stats.Modules != 1 || stats.Implementors != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.LastPublish.IsZero() {
		t.Error("last publish time should be set")
	}
}

func TestSubscribeSignalsOnApply(t *testing.T) {
	r := New()
	ch := r.Subscribe()

	r.Apply("t::X", types.Registry{"modA": nil})

	select {
	case <-ch:
	default:
		t.Fatal("subscriber should receive a signal after apply")
	}

	// Two rapid applies coalesce into at most one buffered signal.
	r.Apply("t::X", types.Registry{"modA": nil})
	r.Apply("t::Y", types.Registry{"modB": nil})
	<-ch
	select {
	case <-ch:
		t.Error("signals should coalesce, not queue unboundedly")
	default:
	}
}
