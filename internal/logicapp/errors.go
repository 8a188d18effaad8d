package logicapp

import (
	"errors"
	"fmt"

	"logicprobe/internal/auth"
	"logicprobe/internal/management"
)

// Sentinel errors for workflow execution. All not-found variants satisfy
// errors.Is(err, ErrNotFound).
var (
	// ErrAuthentication means the identity provider rejected the credentials
	// or was unreachable.
	ErrAuthentication = auth.ErrAuthentication

	// ErrClientInitialization means [Session.Start] could not build a client.
	// The cause stays reachable through errors.Is.
	ErrClientInitialization = errors.New("client initialization failed")

	// ErrNetwork wraps transport failures.
	ErrNetwork = management.ErrNetwork

	// ErrNotFound is the parent of every not-found error.
	ErrNotFound = errors.New("not found")

	// ErrWorkflowNotFound means no workflow with the name exists in the resource group.
	ErrWorkflowNotFound = fmt.Errorf("workflow %w", ErrNotFound)

	// ErrTriggerNotFound means the workflow has no trigger with the name.
	ErrTriggerNotFound = fmt.Errorf("trigger %w", ErrNotFound)

	// ErrActionNotFound means the run has no action with the name.
	ErrActionNotFound = fmt.Errorf("action %w", ErrNotFound)

	// ErrRunNotFound means the run identifier is unknown to the workflow.
	ErrRunNotFound = fmt.Errorf("run %w", ErrNotFound)

	// ErrPollTimeout means the run did not reach Succeeded or Failed within
	// the configured bound.
	ErrPollTimeout = errors.New("timed out waiting for run to complete")

	// ErrNotStarted is returned by [Session] operations called before Start.
	ErrNotStarted = errors.New("session not started")

	// ErrNoActiveRun means the execution carries no run identifier.
	ErrNoActiveRun = errors.New("no active run")

	// ErrRunIDMissing means the trigger response carried no run identifier header.
	ErrRunIDMissing = errors.New("response has no " + management.RunIDHeader + " header")
)

// notFound translates a 404 from the API into the given sentinel, keeping
// the API error in the chain.
func notFound(err error, sentinel error, name string) error {
	if management.IsNotFound(err) {
		return fmt.Errorf("%w: %s: %w", sentinel, name, err)
	}
	return err
}
