package tuner

import (
	"fmt"

	"github.com/wanshanhsieh/riptide/internal/measure"
	"github.com/wanshanhsieh/riptide/internal/space"
)

// Grid enumerates indices in a fixed deterministic order: row-major
// over the knob domains (index 0, 1, 2, ...). Run to completion it
// visits every index exactly once.
type Grid struct {
	cursor int64
}

// NewGrid creates a grid-search tuner.
func NewGrid() *Grid {
	return &Grid{}
}

// Name returns "grid".
func (g *Grid) Name() string { return "grid" }

// ProposeBatch returns the next n indices in enumeration order, fewer
// at the tail of the space, empty once exhausted.
func (g *Grid) ProposeBatch(sp *space.Space, n int) ([]*space.Entity, error) {
	size := sp.Size()
	if g.cursor >= size {
		return nil, nil
	}
	end := g.cursor + int64(n)
	if end > size {
		end = size
	}
	batch := make([]*space.Entity, 0, end-g.cursor)
	for ; g.cursor < end; g.cursor++ {
		e, err := sp.Entity(g.cursor)
		if err != nil {
			return nil, fmt.Errorf("grid propose: %w", err)
		}
		batch = append(batch, e)
	}
	return batch, nil
}

// Update is a no-op: the enumeration order is fixed.
func (g *Grid) Update([]*space.Entity, []measure.Result) {}
