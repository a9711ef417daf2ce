// Package errs defines the error kinds a symbol run can fail with.
// Every kind is scoped to one symbol; a batch keeps going after any of them.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch indicates the provider call failed (network or non-2xx).
	ErrFetch = errors.New("fetch failed")

	// ErrNoData indicates a series is missing or too short for a derivation.
	// It is soft: the affected output is skipped.
	ErrNoData = errors.New("no data")

	// ErrInvalidRange indicates degenerate input to the pivot math.
	ErrInvalidRange = errors.New("invalid range")

	// ErrIO indicates a cache or CSV read/write failure.
	ErrIO = errors.New("io failure")
)

// FetchError describes a failed provider request.
type FetchError struct {
	Symbol string
	URL    string
	Status int // 0 when the request never got a response
	Body   string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d, body: %s", e.Symbol, e.Status, e.Body)
	}
	return fmt.Sprintf("fetch %s: %v", e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// InvalidRangeError rejects a high/low pair the pivot formulas cannot use.
type InvalidRangeError struct {
	High   float64
	Low    float64
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range high=%v low=%v: %s", e.High, e.Low, e.Reason)
}

func (e *InvalidRangeError) Is(target error) bool { return target == ErrInvalidRange }

// IOError wraps a filesystem failure with the operation and path.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }

// NoData returns an ErrNoData wrapped with context.
func NoData(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNoData)
}
