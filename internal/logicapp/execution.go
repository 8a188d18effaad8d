// Package logicapp drives Logic App workflows for acceptance tests.
//
// The package checks whether a workflow is enabled, fires one of its triggers,
// waits for the resulting run to finish and reads action statuses.
//
// Key types:
//   - [Runner] performs the operations against an [API] and is safe for concurrent use
//   - [Execution] is the caller-owned handle tying a run to its workflow
//   - [Session] keeps a single current Execution for callers that want the
//     start/execute/check/reset flow without threading handles themselves
//
// Waiting is bounded: [Runner.WaitForRun] stops with [ErrPollTimeout] after
// the configured timeout or poll count, and honours context cancellation.
package logicapp

import (
	"fmt"
	"net/http"
	"strings"
)

// Execution identifies a workflow and, once triggered, one of its runs.
//
// A RunID is only meaningful together with the ResourceGroup and Workflow it
// was captured with.
type Execution struct {
	ResourceGroup string
	Workflow      string
	RunID         string
}

// Reset clears the run identifier and keeps the workflow coordinates.
func (e *Execution) Reset() {
	e.RunID = ""
}

// HasRun reports whether a run identifier is set.
func (e Execution) HasRun() bool {
	return e.RunID != ""
}

func (e Execution) String() string {
	if e.RunID == "" {
		return e.ResourceGroup + "/" + e.Workflow
	}
	return e.ResourceGroup + "/" + e.Workflow + "/runs/" + e.RunID
}

// TriggerKind selects how a workflow is started.
type TriggerKind int

const (
	// TriggerHTTPCallback posts the payload to the trigger's callback URL and
	// waits for the run to finish.
	TriggerHTTPCallback TriggerKind = iota

	// TriggerNamed runs the trigger through the management API without waiting.
	TriggerNamed
)

func (k TriggerKind) String() string {
	switch k {
	case TriggerHTTPCallback:
		return "http"
	case TriggerNamed:
		return "named"
	default:
		return fmt.Sprintf("TriggerKind(%d)", int(k))
	}
}

// ParseTriggerKind accepts "http", "callback", "named" and "other".
func ParseTriggerKind(s string) (TriggerKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "http", "callback", "":
		return TriggerHTTPCallback, nil
	case "named", "other":
		return TriggerNamed, nil
	default:
		return 0, fmt.Errorf("unknown trigger kind %q (want http or named)", s)
	}
}

// RunStatus is the collapsed status of a run.
type RunStatus int

const (
	RunOther RunStatus = iota
	RunRunning
	RunSucceeded
	RunFailed
)

// ParseRunStatus maps the API status text onto a [RunStatus].
// Matching is case-insensitive; anything unrecognised is [RunOther].
func ParseRunStatus(s string) RunStatus {
	switch strings.ToLower(s) {
	case "running":
		return RunRunning
	case "succeeded":
		return RunSucceeded
	case "failed":
		return RunFailed
	default:
		return RunOther
	}
}

// Terminal reports whether waiting stops at this status.
// Only Succeeded and Failed are terminal.
func (s RunStatus) Terminal() bool {
	return s == RunSucceeded || s == RunFailed
}

func (s RunStatus) String() string {
	switch s {
	case RunRunning:
		return "Running"
	case RunSucceeded:
		return "Succeeded"
	case RunFailed:
		return "Failed"
	default:
		return "Other"
	}
}

// Result describes a trigger invocation.
type Result struct {
	// Execution is the handle for the started run. RunID is empty when a
	// named trigger response did not report one.
	Execution Execution

	// StatusCode is the HTTP status of the trigger response.
	StatusCode int

	// RunStatus is the final status of the run. Set only for
	// [TriggerHTTPCallback], which waits for completion.
	RunStatus RunStatus

	// Polls is the number of status reads made while waiting.
	Polls int

	// Body is the raw response body of the trigger call.
	Body []byte
}

// StatusText returns the status code as a compact name such as "OK",
// "Accepted" or "InternalServerError".
func (r *Result) StatusText() string {
	text := http.StatusText(r.StatusCode)
	if text == "" {
		return fmt.Sprintf("%d", r.StatusCode)
	}
	return strings.NewReplacer(" ", "", "-", "").Replace(text)
}

// Success reports whether the trigger response was 2xx.
func (r *Result) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
