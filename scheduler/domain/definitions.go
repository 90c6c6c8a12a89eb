// Package domain provides definitions for drydock driver submissions.
package domain

import (
	"fmt"
	"time"
)

// Command describes how to start a driver once the cluster has granted it
// resources.
type Command struct {
	// Main entry point of the driver application.
	Main string

	Arguments   []string
	Environment map[string]string
	Classpath   []string
	LibraryPath []string
}

// DriverDescription is the immutable request to launch one driver. It is
// created when a submission is accepted and never mutated afterwards.
type DriverDescription struct {
	AppName    string
	Command    Command
	MemoryMB   int
	Cores      int
	Supervise  bool
	Properties map[string]string
	SubmitTime time.Time
}

func (d *DriverDescription) String() string {
	return fmt.Sprintf("app:%s, main:%s, mem:%dM, cores:%d, supervise:%t",
		d.AppName, d.Command.Main, d.MemoryMB, d.Cores, d.Supervise)
}

// DriverState is the mutable lifecycle record for one accepted submission,
// persisted on every transition. Owned exclusively by the driver registry.
type DriverState struct {
	ID   string
	Desc DriverDescription

	Status        Status
	RetryCount    int
	FailureReason string

	// Seq orders submissions for queue reconstruction after a restart.
	Seq uint64

	// KillRequested is set when a launched driver has been asked to stop
	// but the execution layer has not yet confirmed termination.
	KillRequested bool

	// Handles are launch-specific identifiers reported by the execution
	// layer, opaque to the scheduler.
	Handles map[string]string
}

// Status of a driver in its lifecycle.
type Status int

const (
	// Accepted and waiting to be matched against cluster resources.
	Queued Status = iota

	// Running on the cluster.
	Launched

	// Failed under supervision, waiting out its backoff before requeue.
	Retrying

	// Ran to successful completion. Terminal.
	Finished

	// Failed without supervision, or exhausted its retry budget. Terminal.
	Failed

	// Stopped by client request. Terminal.
	Killed
)

func (s Status) String() string {
	asString := [6]string{"Queued", "Launched", "Retrying", "Finished", "Failed", "Killed"}
	if s < 0 || int(s) >= len(asString) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return asString[s]
}

// Terminal reports whether no further transitions can occur from s.
func (s Status) Terminal() bool {
	return s == Finished || s == Failed || s == Killed
}

// Outcome reports how a launched driver ended, delivered by the execution
// layer. Status must be Finished, Failed or Killed.
type Outcome struct {
	Status  Status
	Message string
}

// SubmissionResult is returned to the client for every submit call.
type SubmissionResult struct {
	Success      bool   `json:"success"`
	SubmissionID string `json:"submissionId"`
	Message      string `json:"message,omitempty"`
}

// KillResult is returned to the client for every kill call.
type KillResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ValidateDescription checks a submission before any state is created for it.
func ValidateDescription(desc DriverDescription) error {
	if desc.AppName == "" {
		return fmt.Errorf("invalid driver description. Application name must not be empty")
	}
	if desc.Command.Main == "" {
		return fmt.Errorf("invalid driver description. Command main entry point must not be empty")
	}
	if desc.MemoryMB <= 0 {
		return fmt.Errorf("invalid driver description. Memory must be positive; was %d", desc.MemoryMB)
	}
	if desc.Cores <= 0 {
		return fmt.Errorf("invalid driver description. Cores must be positive; was %d", desc.Cores)
	}
	return nil
}
