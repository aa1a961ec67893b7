package template

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wanshanhsieh/riptide/internal/space"
)

// Task binds a template, its workload arguments, and a compilation
// target to the space discovered for that combination. Created once per
// tuning session; the space is frozen by construction.
type Task struct {
	// Name is the template identity (registry key).
	Name string

	// Template is the schedule-construction function.
	Template Template

	// Args is the workload argument tuple the template was instantiated
	// for (e.g. matrix extents).
	Args []int64

	// Target identifies the compilation target, e.g. "llvm -mcpu=core-avx2".
	Target string

	// Space is the frozen configuration space discovered for this task.
	Space *space.Space
}

// NewTask runs the discovery pass for the template and returns the task
// with its frozen space. Definition errors from the template surface
// unchanged.
func NewTask(name string, tmpl Template, args []int64, target string) (*Task, error) {
	sp, err := Discover(tmpl, args)
	if err != nil {
		return nil, fmt.Errorf("task %q: %w", name, err)
	}
	return &Task{
		Name:     name,
		Template: tmpl,
		Args:     append([]int64(nil), args...),
		Target:   target,
		Space:    sp,
	}, nil
}

// ArgSig returns the canonical argument signature, e.g. "[512,512]".
func (t *Task) ArgSig() string {
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = strconv.FormatInt(a, 10)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Hash returns the content-addressed task identity derived from
// (template name, argument signature, target).
func (t *Task) Hash() (string, error) {
	return space.TaskHash(t.Name, t.ArgSig(), t.Target)
}

// Apply materializes the schedule for one entity of this task's space.
func (t *Task) Apply(entity *space.Entity) (*Schedule, error) {
	return Apply(t.Template, entity, t.Args)
}
