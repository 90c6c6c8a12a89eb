// Package persist defines the durable storage abstraction the scheduler
// writes its driver state through, so that accepted submissions survive a
// process restart. Engines are selected at construction time; the scheduler
// never inspects which implementation it is talking to.
package persist

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Read when no state has been persisted under
// the requested id.
var ErrNotFound = errors.New("not found")

// Engine is a key/value style store for scheduler state.
//
// A successful Persist must be visible to a subsequent Read and ReadAll,
// including after a process restart for durable implementations. ReadAll
// makes no ordering guarantee; callers reconstruct ordering from the
// persisted records themselves.
type Engine interface {

	// Persist durably stores state under id, replacing any previous value.
	Persist(id string, state []byte) error

	// Read returns the state stored under id, or ErrNotFound if absent.
	Read(id string) ([]byte, error)

	// ReadAll returns the state of every id currently stored.
	ReadAll() ([][]byte, error)

	// Expunge removes the state stored under id. Removing an absent id
	// is not an error.
	Expunge(id string) error
}

// StorageFailure indicates the backing store was unavailable, timed out, or
// otherwise could not serve the request. The triggering operation fails and
// may be retried later as a fresh operation; the scheduler keeps running.
type StorageFailure struct {
	op  string
	err error
}

func NewStorageFailure(op string, err error) StorageFailure {
	return StorageFailure{op: op, err: err}
}

func (e StorageFailure) Error() string {
	return fmt.Sprintf("storage failure during %v: %v", e.op, e.err)
}

// Cause returns the underlying engine error, following the pkg/errors
// causer convention.
func (e StorageFailure) Cause() error {
	return e.err
}

// IsStorageFailure reports whether err is a StorageFailure.
func IsStorageFailure(err error) bool {
	_, ok := err.(StorageFailure)
	return ok
}
