// Package runerr defines the fatal error kinds of a csrmv run.
//
// Packages wrap these sentinels with context, e.g.
//
//	fmt.Errorf("entry %d: %w", i, runerr.ErrInputFormat)
//
// and callers match them with errors.Is. Every kind aborts the run.
package runerr

import "errors"

var (
	// ErrUsage is returned when the command line is incomplete or a setting is invalid.
	ErrUsage = errors.New("usage error")

	// ErrFileOpen is returned when the input file or one of the output logs cannot be opened.
	ErrFileOpen = errors.New("cannot open file")

	// ErrAllocation is returned when buffers for the parsed dimensions cannot be reserved.
	ErrAllocation = errors.New("allocation failed")

	// ErrInputFormat is returned when a required line is missing or its tokens do not parse.
	ErrInputFormat = errors.New("malformed input")

	// ErrCapacityExceeded is returned when n or nnz exceeds the configured limits.
	ErrCapacityExceeded = errors.New("capacity exceeded")
)

// ExitCode maps an error to the process exit status: 0 for nil, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// Kind returns the sentinel err wraps, or nil if it wraps none of them.
func Kind(err error) error {
	for _, k := range []error{ErrUsage, ErrFileOpen, ErrAllocation, ErrInputFormat, ErrCapacityExceeded} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
