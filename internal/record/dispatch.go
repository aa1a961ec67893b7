package record

import (
	"context"
	"sync"
)

// Dispatch is the best-config lookup table: for each task key it holds
// the best successful record observed so far (lowest mean latency; ties
// keep the first observed record, so replays of the same history always
// resolve to the same entity).
//
// Dispatch is an explicit value passed to whatever needs best-config
// lookups. There is no process-wide instance.
type Dispatch struct {
	mu   sync.RWMutex
	best map[Key]Record
}

// NewDispatch creates an empty dispatch table.
func NewDispatch() *Dispatch {
	return &Dispatch{best: make(map[Key]Record)}
}

// Observe folds one record into the table. Failed records are ignored.
// An incoming record replaces the held one only when strictly better;
// equal means keep the earlier record.
func (d *Dispatch) Observe(r Record) {
	if !r.OK() || len(r.Latencies) == 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	key := r.Key()
	current, exists := d.best[key]
	if !exists || r.Mean() < current.Mean() {
		d.best[key] = r
	}
}

// Lookup returns the best known record for a key, or false when the
// table holds nothing for it. Callers fall back to their default
// configuration on a miss.
func (d *Dispatch) Lookup(key Key) (Record, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.best[key]
	return r, ok
}

// Load hydrates the table from a persisted log, folding every record in
// append order. May be called repeatedly to merge several logs.
func (d *Dispatch) Load(ctx context.Context, reader Reader) error {
	return reader.ForEach(ctx, func(r Record) error {
		d.Observe(r)
		return nil
	})
}

// Len returns the number of task keys with a best record.
func (d *Dispatch) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.best)
}

// Keys returns the task keys currently held, in no particular order.
func (d *Dispatch) Keys() []Key {
	d.mu.RLock()
	defer d.mu.RUnlock()
	keys := make([]Key, 0, len(d.best))
	for k := range d.best {
		keys = append(keys, k)
	}
	return keys
}
