package template

import (
	"strings"

	"github.com/wanshanhsieh/riptide/internal/space"
)

// Schedule is the materialized artifact of one template evaluation: an
// ordered list of schedule directives. Two evaluations of the same
// template against the same entity produce structurally identical
// schedules, which String() makes directly comparable.
type Schedule struct {
	directives []Directive
}

// Directive is one schedule transformation step.
type Directive struct {
	// Op is the transformation kind: "split", "reorder", or "annotate".
	Op string `json:"op"`

	// Axis names the loop axis (or axis list owner) being transformed.
	Axis string `json:"axis"`

	// Arg is the encoded value applied: factor tuple, permutation, or
	// annotation name.
	Arg string `json:"arg"`
}

// NewSchedule creates an empty schedule.
func NewSchedule() *Schedule {
	return &Schedule{}
}

// Split records splitting axis by the given outer-to-inner factors.
func (s *Schedule) Split(axis string, factors space.Value) {
	s.directives = append(s.directives, Directive{Op: "split", Axis: axis, Arg: factors.Encode()})
}

// Reorder records a loop order for the axes owned by axisGroup.
func (s *Schedule) Reorder(axisGroup string, perm space.Value) {
	s.directives = append(s.directives, Directive{Op: "reorder", Axis: axisGroup, Arg: perm.Encode()})
}

// Annotate records an annotation (unroll, vectorize, ...) on axis.
func (s *Schedule) Annotate(axis string, annotation space.Value) {
	s.directives = append(s.directives, Directive{Op: "annotate", Axis: axis, Arg: annotation.Encode()})
}

// Directives returns the ordered directive list.
func (s *Schedule) Directives() []Directive {
	out := make([]Directive, len(s.directives))
	copy(out, s.directives)
	return out
}

// Len returns the number of directives.
func (s *Schedule) Len() int { return len(s.directives) }

// String returns the canonical single-line form, e.g.
// "split(y,[16,32]); split(x,[4,128]); annotate(x_inner,vectorize)".
func (s *Schedule) String() string {
	parts := make([]string, len(s.directives))
	for i, d := range s.directives {
		parts[i] = d.Op + "(" + d.Axis + "," + d.Arg + ")"
	}
	return strings.Join(parts, "; ")
}
