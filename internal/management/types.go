// Package management is a client for the Logic Apps management REST API.
//
// The client covers the calls a test harness needs to drive a workflow:
// listing workflows and triggers, resolving a trigger's callback URL, running a
// trigger, reading a run and listing the actions of a run. It also posts
// payloads to callback URLs, which are authorised by their own signature rather
// than by the management bearer token.
//
// Key types:
//   - [Client] performs the HTTP calls using resty
//   - [ResponseError] describes a non-2xx answer from the API
//   - [FakeServer] is an in-process stand-in for the API used in tests
package management

import (
	"net/http"
	"time"
)

// RunIDHeader is the response header carrying the identifier of the run
// started by a trigger.
const RunIDHeader = "x-ms-workflow-run-id"

// Workflow is a Logic App definition as returned by the list call.
type Workflow struct {
	ID         string             `json:"id,omitempty"`
	Name       string             `json:"name"`
	Type       string             `json:"type,omitempty"`
	Location   string             `json:"location,omitempty"`
	Properties WorkflowProperties `json:"properties"`
}

// WorkflowProperties holds the workflow fields the client reads.
type WorkflowProperties struct {
	State             string     `json:"state"`
	ProvisioningState string     `json:"provisioningState,omitempty"`
	CreatedTime       *time.Time `json:"createdTime,omitempty"`
	ChangedTime       *time.Time `json:"changedTime,omitempty"`
}

// Trigger is a named entry point of a workflow.
type Trigger struct {
	ID         string            `json:"id,omitempty"`
	Name       string            `json:"name"`
	Properties TriggerProperties `json:"properties"`
}

// TriggerProperties holds the trigger fields the client reads.
type TriggerProperties struct {
	State             string `json:"state,omitempty"`
	ProvisioningState string `json:"provisioningState,omitempty"`
}

// CallbackURL is the signed URL that starts a run when posted to.
type CallbackURL struct {
	Value        string `json:"value"`
	Method       string `json:"method,omitempty"`
	BasePath     string `json:"basePath,omitempty"`
	RelativePath string `json:"relativePath,omitempty"`
}

// Run is one execution of a workflow.
type Run struct {
	ID         string        `json:"id,omitempty"`
	Name       string        `json:"name"`
	Properties RunProperties `json:"properties"`
}

// RunProperties holds the run fields the client reads.
type RunProperties struct {
	Status    string     `json:"status"`
	Code      string     `json:"code,omitempty"`
	StartTime *time.Time `json:"startTime,omitempty"`
	EndTime   *time.Time `json:"endTime,omitempty"`
}

// Action is a named step inside a run.
type Action struct {
	ID         string           `json:"id,omitempty"`
	Name       string           `json:"name"`
	Properties ActionProperties `json:"properties"`
}

// ActionProperties holds the action fields the client reads.
type ActionProperties struct {
	Status    string     `json:"status"`
	Code      string     `json:"code,omitempty"`
	StartTime *time.Time `json:"startTime,omitempty"`
	EndTime   *time.Time `json:"endTime,omitempty"`
}

// Payload is the request sent to a callback URL.
type Payload struct {
	// Body is sent as-is. A nil body posts an empty request.
	Body []byte

	// ContentType defaults to "application/json" when empty.
	ContentType string

	// Headers are added to the request.
	Headers map[string]string
}

// TriggerResponse is the answer to a trigger invocation, either through the
// callback URL or through the run-trigger call.
type TriggerResponse struct {
	StatusCode int
	Status     string
	RunID      string
	Header     http.Header
	Body       []byte
}

// page is one page of a list response.
type page[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"nextLink,omitempty"`
}

// armError is the error envelope of the management API.
type armError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
