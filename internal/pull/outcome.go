// Package pull reconciles a local directory with its remote project: it
// resolves the project link, downloads every target's environment variables
// concurrently, and persists the resolved identity once all downloads succeed.
package pull

import "github.com/marcus/vcpull/internal/models"

// LinkOutcome is the result of link resolution. It is exactly one of
// Linked, Aborted or Failed; callers switch on the concrete type.
type LinkOutcome interface {
	linkOutcome()
}

// Linked carries the resolved link.
type Linked struct {
	Link models.Link
}

// Aborted means the user declined setup. It is not a failure.
type Aborted struct{}

// Failed carries the exit code reported by the failing collaborator.
type Failed struct {
	Code int
}

func (Linked) linkOutcome()  {}
func (Aborted) linkOutcome() {}
func (Failed) linkOutcome()  {}
