package types

import (
	"errors"
	"fmt"
)

var (
	// ErrNoLogRoots means no log directory exists at any candidate root.
	ErrNoLogRoots = errors.New("no log directory found")
	// ErrNoUsableEntries means files were found but none yielded usage records.
	ErrNoUsableEntries = errors.New("no usable usage records found")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

// LoaderError reports a per-file read failure. Parsing continues with the
// remaining files; the coordinator surfaces the failure count.
type LoaderError struct {
	Path string
	Err  error
}

func (e LoaderError) Error() string {
	return fmt.Sprintf("failed to load from %s: %v", e.Path, e.Err)
}

func (e LoaderError) Unwrap() error {
	return e.Err
}
