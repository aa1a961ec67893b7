package record

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"
)

// FileLog is an append-only JSONL log: one record per line, one
// write syscall per record so a crash never leaves a torn record
// visible to line-oriented readers.
type FileLog struct {
	mu   sync.Mutex
	path string
	f    *os.File
	sync bool
}

// FileLogOption configures a FileLog.
type FileLogOption func(*FileLog)

// WithFsync makes every append fsync before returning. Slower, but a
// completed measurement survives power loss.
func WithFsync() FileLogOption {
	return func(l *FileLog) { l.sync = true }
}

// OpenFileLog opens (creating if needed) an append-only record log.
func OpenFileLog(path string, opts ...FileLogOption) (*FileLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open record log: %w", err)
	}
	l := &FileLog{path: path, f: f}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Append writes one record as a single line.
func (l *FileLog) Append(ctx context.Context, r Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line, err := r.MarshalLine()
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.f.Write(line); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	if l.sync {
		if err := l.f.Sync(); err != nil {
			return fmt.Errorf("sync record log: %w", err)
		}
	}
	return nil
}

// Close closes the underlying file.
func (l *FileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// ForEach reads the log from the beginning, calling fn per record in
// append order. Safe to call while the log is open for appending: the
// read uses an independent file handle.
func (l *FileLog) ForEach(ctx context.Context, fn func(Record) error) error {
	return ForEachInFile(ctx, l.path, fn)
}

// ForEachInFile iterates the records of a JSONL log file.
// A missing file iterates zero records, matching an empty log.
func ForEachInFile(ctx context.Context, path string, fn func(Record) error) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open record log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		r, err := ParseLine(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan record log: %w", err)
	}
	return nil
}

var (
	_ Log    = (*FileLog)(nil)
	_ Reader = (*FileLog)(nil)
)
