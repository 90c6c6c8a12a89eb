// Package server implements the driver registry and lifecycle state machine
// behind the public submission API.
package server

import (
	"time"

	"github.com/drydocklab/drydock/scheduler/domain"
)

// Scheduler is the public operation surface consumed by the API layer and by
// the offer-matching/execution layer.
type Scheduler interface {
	// Submit validates and accepts a driver description, durably recording
	// it before acknowledging.
	Submit(desc domain.DriverDescription) domain.SubmissionResult

	// Kill stops a queued driver immediately or requests termination of a
	// launched one. Idempotent for drivers that were already killed.
	Kill(submissionID string) domain.KillResult

	// Status returns a consistent point-in-time snapshot. Never blocks on
	// storage I/O.
	Status() SchedulerState

	// QueuedDrivers enumerates the drivers awaiting resources, in
	// submission order, for the offer-matching layer.
	QueuedDrivers() []domain.DriverState

	// OnOfferAccepted records that the matching layer launched the driver
	// on an accepted resource offer.
	OnOfferAccepted(submissionID string, handles map[string]string) error

	// OnTerminated records that a launched driver ended with the given
	// outcome.
	OnTerminated(submissionID string, outcome domain.Outcome) error
}

// Terminator is the execution-layer collaborator that stops a launched
// driver when a kill has been requested. The scheduler signals it and waits
// for confirmation through OnTerminated.
type Terminator interface {
	Terminate(submissionID string, handles map[string]string)
}

// SchedulerState is a read-only view of the registry: queued drivers in
// submission order, currently launched and retrying drivers, and a bounded
// set of recently terminated drivers retained for observability.
type SchedulerState struct {
	Queued   []domain.DriverState `json:"queued"`
	Launched []domain.DriverState `json:"launched"`
	Retrying []domain.DriverState `json:"retrying"`
	Retained []domain.DriverState `json:"retained"`
}

// Scheduler config variables read at initialization.
// MaxRetries - how many times a supervised driver is relaunched after
//     non-user failure before it is marked Failed for good.
// InitialInterval/MaxInterval/Multiplier - the exponential backoff schedule
//     applied between a supervised failure and the requeue.
// RetainedDrivers - how many terminated drivers to keep for status queries;
//     the oldest entry is evicted (and expunged from storage) on overflow.
// TickRate - how often the requeue loop wakes up.
// DebugMode - if true the requeue loop is not started; tests advance it
//     manually by calling step().
type SchedulerConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	RetainedDrivers int
	TickRate        time.Duration
	DebugMode       bool
}

const (
	// Provide defaults for config settings that should never be
	// uninitialized/zero. Reasonable for a small cluster.
	DefaultMaxRetries      = 3
	DefaultInitialInterval = 1 * time.Second
	DefaultMaxInterval     = 1 * time.Minute
	DefaultMultiplier      = 2.0
	DefaultRetainedDrivers = 200
	DefaultTickRate        = 250 * time.Millisecond
)

func (c SchedulerConfig) withDefaults() SchedulerConfig {
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.InitialInterval == 0 {
		c.InitialInterval = DefaultInitialInterval
	}
	if c.MaxInterval == 0 {
		c.MaxInterval = DefaultMaxInterval
	}
	if c.Multiplier == 0 {
		c.Multiplier = DefaultMultiplier
	}
	if c.RetainedDrivers == 0 {
		c.RetainedDrivers = DefaultRetainedDrivers
	}
	if c.TickRate == 0 {
		c.TickRate = DefaultTickRate
	}
	return c
}
