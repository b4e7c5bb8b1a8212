package types

import "fmt"

// ImplementorDescriptor describes one implementation of a trait found in a
// documented module. Display is opaque markup text rendered as-is by the
// documentation host. Synthetic marks implementations discovered by a
// heuristic pass (blanket impls and the like) rather than an exact match.
// Types lists the fully-qualified paths of the types the implementation
// applies to, in source order.
type ImplementorDescriptor struct {
	Display   string   `json:"display"`
	Synthetic bool     `json:"synthetic"`
	Types     []string `json:"types"`
}

// Registry maps a module name to the ordered implementor descriptors the
// generator found in that module. It is the unit of delivery: a loader builds
// one Registry and hands it to the host in a single publish.
type Registry map[string][]ImplementorDescriptor

// Clone returns a deep copy of the registry. The delivery contract is stated
// in terms of deep equality, so handoff points copy rather than alias.
func (r Registry) Clone() Registry {
	if r == nil {
		return nil
	}
	out := make(Registry, len(r))
	for module, descs := range r {
		copied := make([]ImplementorDescriptor, len(descs))
		for i, d := range descs {
			copied[i] = d.Clone()
		}
		out[module] = copied
	}
	return out
}

// Clone returns a deep copy of the descriptor.
func (d ImplementorDescriptor) Clone() ImplementorDescriptor {
	out := d
	if d.Types != nil {
		out.Types = make([]string, len(d.Types))
		copy(out.Types, d.Types)
	}
	return out
}

// Equal reports deep equality with other.
func (r Registry) Equal(other Registry) bool {
	if len(r) != len(other) {
		return false
	}
	for module, descs := range r {
		otherDescs, ok := other[module]
		if !ok || len(descs) != len(otherDescs) {
			return false
		}
		for i := range descs {
			if !descs[i].Equal(otherDescs[i]) {
				return false
			}
		}
	}
	return true
}

// Equal reports deep equality with other.
func (d ImplementorDescriptor) Equal(other ImplementorDescriptor) bool {
	if d.Display != other.Display || d.Synthetic != other.Synthetic {
		return false
	}
	if len(d.Types) != len(other.Types) {
		return false
	}
	for i := range d.Types {
		if d.Types[i] != other.Types[i] {
			return false
		}
	}
	return true
}

// Validate checks the invariants the generator is expected to uphold:
// non-empty module names and at least one associated type per descriptor.
// The delivery path never calls this; malformed data is stored as-is and a
// validation failure is a generator defect, not a runtime error.
func (r Registry) Validate() error {
	for module, descs := range r {
		if module == "" {
			return fmt.Errorf("registry contains empty module name")
		}
		for i, d := range descs {
			if len(d.Types) == 0 {
				return fmt.Errorf("module %q: descriptor %d has no associated types", module, i)
			}
		}
	}
	return nil
}
