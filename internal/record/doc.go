// Package record persists tuning trial outcomes and tracks the best
// known configuration per task.
//
// Two Log implementations share one record shape: FileLog appends one
// JSON record per line to a plain file, and Store keeps records in
// SQLite for multi-session history and indexed best-config queries.
// Either can hydrate a Dispatch table, the explicit best-config lookup
// passed to code that wants to reuse tuned configurations.
package record
