package record

import (
	"context"
	"errors"
)

// teeLog fans every append out to all underlying logs.
type teeLog struct {
	logs []Log
}

// Tee returns a Log that appends to every given log. Appends go to all
// sinks even when one fails; the combined error is returned so a
// partial write is never silent.
func Tee(logs ...Log) Log {
	return &teeLog{logs: logs}
}

func (t *teeLog) Append(ctx context.Context, r Record) error {
	var errs []error
	for _, l := range t.logs {
		if err := l.Append(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *teeLog) Close() error {
	var errs []error
	for _, l := range t.logs {
		if err := l.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
