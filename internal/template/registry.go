package template

import (
	"fmt"
	"sort"
	"sync"

	"github.com/wanshanhsieh/riptide/internal/space"
)

// Registry maps template names to template functions so tuning jobs can
// reference templates declaratively. An explicit Registry value is
// passed to whatever needs lookups; Builtin() returns one preloaded
// with the reference templates.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]Template)}
}

// Register adds a named template. Registering a taken name is an error.
func (r *Registry) Register(name string, tmpl Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.templates[name]; exists {
		return fmt.Errorf("template %q already registered", name)
	}
	r.templates[name] = tmpl
	return nil
}

// Lookup returns the named template, or false if not registered.
func (r *Registry) Lookup(name string) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tmpl, ok := r.templates[name]
	return tmpl, ok
}

// Names returns the registered template names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns a registry preloaded with the reference templates.
func Builtin() *Registry {
	r := NewRegistry()
	// Names are unique within Builtin, so Register cannot fail here.
	_ = r.Register("matmul_tile", MatmulTile)
	_ = r.Register("vecadd_unroll", VecaddUnroll)
	return r
}

// MatmulTile tiles a matmul output over two independent split knobs.
// args: [height, width]. For 512x512 each axis admits 10 factorizations
// (one per divisor), a 100-point space.
func MatmulTile(ctx Context, sched *Schedule, args []int64) error {
	if len(args) != 2 {
		return fmt.Errorf("matmul_tile expects [height, width] args, got %d", len(args))
	}

	if err := ctx.DefineSplit("tile_y", args[0], 2); err != nil {
		return err
	}
	if err := ctx.DefineSplit("tile_x", args[1], 2); err != nil {
		return err
	}

	ty, err := ctx.Value("tile_y")
	if err != nil {
		return err
	}
	tx, err := ctx.Value("tile_x")
	if err != nil {
		return err
	}

	sched.Split("y", ty)
	sched.Split("x", tx)
	return nil
}

// VecaddUnroll splits a vector-add loop and annotates the inner axis.
// args: [extent].
func VecaddUnroll(ctx Context, sched *Schedule, args []int64) error {
	if len(args) != 1 {
		return fmt.Errorf("vecadd_unroll expects [extent] arg, got %d", len(args))
	}

	if err := ctx.DefineSplit("tile_i", args[0], 2); err != nil {
		return err
	}
	if err := ctx.DefineAnnotate("ann_inner", []string{"none", "unroll", "vectorize"}); err != nil {
		return err
	}
	if err := ctx.DefineReorder("order", []string{"i_outer", "i_inner"}, space.PolicyAll{}); err != nil {
		return err
	}

	ti, err := ctx.Value("tile_i")
	if err != nil {
		return err
	}
	ann, err := ctx.Value("ann_inner")
	if err != nil {
		return err
	}
	ord, err := ctx.Value("order")
	if err != nil {
		return err
	}

	sched.Split("i", ti)
	sched.Reorder("i", ord)
	sched.Annotate("i_inner", ann)
	return nil
}
