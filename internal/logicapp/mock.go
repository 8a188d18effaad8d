package logicapp

import (
	"context"
	"net/http"
	"sync"

	"logicprobe/internal/management"
)

// MockAPI is an in-memory [API] for tests.
//
// GetRun reports RunStatuses one per call and repeats the last entry. Any
// non-nil *Err field is returned by the matching method.
type MockAPI struct {
	Workflows   []management.Workflow
	Triggers    []string
	RunID       string
	StatusCode  int
	RunStatuses []string
	Actions     []management.Action

	ListWorkflowsErr error
	CallbackURLErr   error
	PostErr          error
	RunTriggerErr    error
	GetRunErr        error
	ListActionsErr   error

	mu          sync.Mutex
	GetRunCalls int
	Posted      []management.Payload
	TriggerRuns []string
}

func (m *MockAPI) ListWorkflows(_ context.Context, _ string) ([]management.Workflow, error) {
	if m.ListWorkflowsErr != nil {
		return nil, m.ListWorkflowsErr
	}
	return m.Workflows, nil
}

func (m *MockAPI) ListTriggers(_ context.Context, _, _ string) ([]management.Trigger, error) {
	out := make([]management.Trigger, len(m.Triggers))
	for i, name := range m.Triggers {
		out[i] = management.Trigger{Name: name}
	}
	return out, nil
}

func (m *MockAPI) hasTrigger(name string) bool {
	for _, t := range m.Triggers {
		if t == name {
			return true
		}
	}
	return false
}

func (m *MockAPI) ListCallbackURL(_ context.Context, _, _, trigger string) (*management.CallbackURL, error) {
	if m.CallbackURLErr != nil {
		return nil, m.CallbackURLErr
	}
	if !m.hasTrigger(trigger) {
		return nil, &management.ResponseError{Operation: "list callback url", StatusCode: http.StatusNotFound}
	}
	return &management.CallbackURL{Value: "https://callback.invalid/" + trigger}, nil
}

func (m *MockAPI) PostCallback(_ context.Context, _ string, payload management.Payload) (*management.TriggerResponse, error) {
	m.mu.Lock()
	m.Posted = append(m.Posted, payload)
	m.mu.Unlock()
	if m.PostErr != nil {
		return nil, m.PostErr
	}
	return m.response(), nil
}

func (m *MockAPI) RunTrigger(_ context.Context, _, _, trigger string) (*management.TriggerResponse, error) {
	if m.RunTriggerErr != nil {
		return nil, m.RunTriggerErr
	}
	if !m.hasTrigger(trigger) {
		return nil, &management.ResponseError{Operation: "run trigger", StatusCode: http.StatusNotFound}
	}
	m.mu.Lock()
	m.TriggerRuns = append(m.TriggerRuns, trigger)
	m.mu.Unlock()
	return m.response(), nil
}

func (m *MockAPI) response() *management.TriggerResponse {
	code := m.StatusCode
	if code == 0 {
		code = http.StatusAccepted
	}
	return &management.TriggerResponse{
		StatusCode: code,
		Status:     http.StatusText(code),
		RunID:      m.RunID,
	}
}

func (m *MockAPI) GetRun(_ context.Context, _, _, runID string) (*management.Run, error) {
	m.mu.Lock()
	idx := m.GetRunCalls
	m.GetRunCalls++
	m.mu.Unlock()

	if m.GetRunErr != nil {
		return nil, m.GetRunErr
	}
	status := ""
	if len(m.RunStatuses) > 0 {
		status = m.RunStatuses[min(idx, len(m.RunStatuses)-1)]
	}
	return &management.Run{Name: runID, Properties: management.RunProperties{Status: status}}, nil
}

func (m *MockAPI) ListRunActions(_ context.Context, _, _, _ string) ([]management.Action, error) {
	if m.ListActionsErr != nil {
		return nil, m.ListActionsErr
	}
	return m.Actions, nil
}

// Polls returns the number of GetRun calls so far.
func (m *MockAPI) Polls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.GetRunCalls
}
