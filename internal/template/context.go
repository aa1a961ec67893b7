package template

import (
	"fmt"

	"github.com/wanshanhsieh/riptide/internal/space"
)

// Mode selects how a template evaluation treats knob definitions and
// value lookups.
type Mode int

const (
	// ModeDiscover collects knob definitions into a fresh space.
	ModeDiscover Mode = iota + 1
	// ModeApply binds value lookups to a chosen entity.
	ModeApply
)

// String returns a human-readable mode label.
func (m Mode) String() string {
	switch m {
	case ModeDiscover:
		return "discover"
	case ModeApply:
		return "apply"
	default:
		return "unknown"
	}
}

// Context is the capability a template body uses to declare knobs and
// read their chosen values. Exactly two implementations exist:
// DiscoveryContext and ApplyContext. The same template body must behave
// correctly against either without branching beyond Mode() queries.
type Context interface {
	// Mode reports which evaluation mode is active.
	Mode() Mode

	// DefineKnob declares an explicitly enumerated knob.
	// No-op in apply mode.
	DefineKnob(name string, values []space.Value) error

	// DefineSplit declares a knob over ordered factorizations of extent
	// into parts factors. No-op in apply mode.
	DefineSplit(name string, extent int64, parts int) error

	// DefineReorder declares a knob over policy-filtered permutations of
	// the given axes. No-op in apply mode.
	DefineReorder(name string, axes []string, policy space.ReorderPolicy) error

	// DefineAnnotate declares a knob over a fixed annotation set.
	// No-op in apply mode.
	DefineAnnotate(name string, annotations []string) error

	// Value returns the chosen value for the named knob: the first
	// domain element in discovery mode, the entity-bound value in apply
	// mode. Unknown knobs are an error in both modes.
	Value(name string) (space.Value, error)
}

// DiscoveryContext records knob definitions into a mutable space.
// Value lookups return the first element of each domain so the template
// body can complete a full pass during discovery.
type DiscoveryContext struct {
	space *space.Space
}

// NewDiscoveryContext wraps an unfrozen space for a discovery pass.
func NewDiscoveryContext(s *space.Space) *DiscoveryContext {
	return &DiscoveryContext{space: s}
}

// Mode returns ModeDiscover.
func (c *DiscoveryContext) Mode() Mode { return ModeDiscover }

// DefineKnob delegates to the underlying space.
func (c *DiscoveryContext) DefineKnob(name string, values []space.Value) error {
	return c.space.DefineKnob(name, values)
}

// DefineSplit delegates to the underlying space.
func (c *DiscoveryContext) DefineSplit(name string, extent int64, parts int) error {
	return c.space.DefineSplit(name, extent, parts)
}

// DefineReorder delegates to the underlying space.
func (c *DiscoveryContext) DefineReorder(name string, axes []string, policy space.ReorderPolicy) error {
	return c.space.DefineReorder(name, axes, policy)
}

// DefineAnnotate delegates to the underlying space.
func (c *DiscoveryContext) DefineAnnotate(name string, annotations []string) error {
	return c.space.DefineAnnotate(name, annotations)
}

// Value returns the first domain element of the named knob.
func (c *DiscoveryContext) Value(name string) (space.Value, error) {
	k, ok := c.space.Knob(name)
	if !ok {
		return nil, fmt.Errorf("value lookup before definition: unknown knob %q", name)
	}
	return k.At(0), nil
}

// ApplyContext answers value lookups from one bound entity. All Define*
// calls are no-ops: the space was already discovered and frozen, and
// re-running the definitions must not mutate it.
type ApplyContext struct {
	entity *space.Entity
}

// NewApplyContext binds a context to a chosen entity.
func NewApplyContext(e *space.Entity) *ApplyContext {
	return &ApplyContext{entity: e}
}

// Mode returns ModeApply.
func (c *ApplyContext) Mode() Mode { return ModeApply }

// DefineKnob is a no-op in apply mode.
func (c *ApplyContext) DefineKnob(string, []space.Value) error { return nil }

// DefineSplit is a no-op in apply mode.
func (c *ApplyContext) DefineSplit(string, int64, int) error { return nil }

// DefineReorder is a no-op in apply mode.
func (c *ApplyContext) DefineReorder(string, []string, space.ReorderPolicy) error { return nil }

// DefineAnnotate is a no-op in apply mode.
func (c *ApplyContext) DefineAnnotate(string, []string) error { return nil }

// Value returns the entity-bound value for the named knob.
func (c *ApplyContext) Value(name string) (space.Value, error) {
	v, ok := c.entity.Value(name)
	if !ok {
		return nil, fmt.Errorf("value lookup for unknown knob %q", name)
	}
	return v, nil
}
