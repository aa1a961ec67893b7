package record

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wanshanhsieh/riptide/internal/space"
)

// Key identifies a tuning task: which template, instantiated with which
// arguments, for which target. Records and best-config lookups are
// scoped by Key.
type Key struct {
	Template string `json:"template"`
	ArgSig   string `json:"arg_sig"`
	Target   string `json:"target"`
}

// String returns a compact display form, e.g. "matmul_tile[512,512]@llvm-sim".
func (k Key) String() string {
	return k.Template + k.ArgSig + "@" + k.Target
}

// Record is one persisted trial outcome: a task key, the measured
// entity's encoding, and the result or error marker. Serialized as one
// JSON object per line.
type Record struct {
	// Session is the tuning session token the trial belonged to.
	Session string `json:"session"`

	// Template, ArgSig, and Target form the task key.
	Template string `json:"template"`
	ArgSig   string `json:"arg_sig"`
	Target   string `json:"target"`

	// Index is the entity's flat index in its space.
	Index int64 `json:"index"`

	// Knobs is the ordered knob-value encoding of the entity.
	Knobs []space.Pair `json:"knobs"`

	// Status is the measurement status marker ("success",
	// "build_error", "run_error", "timeout").
	Status string `json:"status"`

	// Latencies holds the timing samples in milliseconds; empty on
	// failure.
	Latencies []float64 `json:"latencies,omitempty"`

	// Err carries the failure detail; empty on success.
	Err string `json:"error,omitempty"`

	// AtUnixMs is the wall-clock completion time in Unix milliseconds.
	AtUnixMs int64 `json:"at"`
}

// Key returns the task key the record belongs to.
func (r Record) Key() Key {
	return Key{Template: r.Template, ArgSig: r.ArgSig, Target: r.Target}
}

// OK reports whether the trial succeeded.
func (r Record) OK() bool { return r.Status == "success" }

// Mean returns the mean latency in milliseconds, or 0 without samples.
func (r Record) Mean() float64 {
	if len(r.Latencies) == 0 {
		return 0
	}
	sum := 0.0
	for _, l := range r.Latencies {
		sum += l
	}
	return sum / float64(len(r.Latencies))
}

// ID computes the content-addressed record identity used for idempotent
// store writes. A session measures each entity at most once, so the
// (session, task key, index) tuple identifies the trial.
func (r Record) ID() (string, error) {
	data, err := space.MarshalCanonical(map[string]any{
		"session":  r.Session,
		"template": r.Template,
		"arg_sig":  r.ArgSig,
		"target":   r.Target,
		"index":    r.Index,
	})
	if err != nil {
		return "", fmt.Errorf("record id: %w", err)
	}
	return space.RecordHash(data), nil
}

// MarshalLine serializes the record as one JSON line, newline included.
func (r Record) MarshalLine() ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return append(b, '\n'), nil
}

// ParseLine deserializes one JSON line into a record.
func ParseLine(line []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(line, &r); err != nil {
		return Record{}, fmt.Errorf("parse record line: %w", err)
	}
	return r, nil
}

// Log is an append-only sink of trial records. A write is atomic per
// completed measurement: either the whole record lands or none of it.
type Log interface {
	// Append durably adds one record.
	Append(ctx context.Context, r Record) error

	// Close releases the underlying resource.
	Close() error
}

// Reader iterates previously persisted records in append order.
type Reader interface {
	// ForEach calls fn for every record. A non-nil error from fn stops
	// the iteration and is returned.
	ForEach(ctx context.Context, fn func(Record) error) error
}
