// Package snapshot reads every collection from the data access gateway
// concurrently and hands the rest of the engine one complete, immutable
// Snapshot or a FetchError.
package snapshot

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/portfolio-report/internal/model"
)

// State distinguishes "no rows" from "could not read".
type State int

const (
	// Empty means the read succeeded and returned no rows.
	Empty State = iota
	// Unavailable means the read failed, timed out or was rejected.
	Unavailable
	// Some means the read succeeded with at least one row.
	Some
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Unavailable:
		return "unavailable"
	case Some:
		return "some"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON diagnostics.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Fetched is the outcome of reading one collection.
type Fetched[T any] struct {
	state State
	rows  []T
	err   error
}

// Rows builds a Fetched from a successful read.
func Rows[T any](rows []T) Fetched[T] {
	if len(rows) == 0 {
		return Fetched[T]{state: Empty}
	}
	return Fetched[T]{state: Some, rows: rows}
}

// Failed builds an Unavailable Fetched.
func Failed[T any](err error) Fetched[T] {
	return Fetched[T]{state: Unavailable, err: err}
}

// State returns the fetch state.
func (f Fetched[T]) State() State { return f.state }

// Rows returns the fetched rows, or nil unless the state is Some.
func (f Fetched[T]) Rows() []T {
	if f.state != Some {
		return nil
	}
	return f.rows
}

// Err returns the read error of an Unavailable fetch.
func (f Fetched[T]) Err() error { return f.err }

// FetchError reports that a collection was Unavailable. A run that hits one
// fails outright instead of computing metrics from a partial snapshot.
type FetchError struct {
	Collection model.Collection
	Err        error
}

func (e *FetchError) Error() string {
	return "snapshot: fetch " + string(e.Collection) + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error { return e.Err }

// errNoGateway is returned when Gather is called without a gateway.
var errNoGateway = eris.New("snapshot: nil gateway")
