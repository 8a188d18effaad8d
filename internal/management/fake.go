package management

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

// FakeServer is an in-process management API and callback endpoint.
//
// It serves the subset of routes used by [Client] for a single subscription.
// Runs report the statuses queued with [FakeServer.SetRunStatuses] one per
// read, repeating the last one forever. Set PageSize to split list responses
// into nextLink pages.
type FakeServer struct {
	*httptest.Server

	// Token, when set, is required as the bearer token on management calls.
	Token string

	// PageSize splits list responses into pages of this size. Zero disables paging.
	PageSize int

	// CallbackStatus is the status answered by callback URLs. Default: 202.
	CallbackStatus int

	// OmitRunID makes trigger responses leave out the run identifier header.
	OmitRunID bool

	subscriptionID string

	mu          sync.Mutex
	workflows   map[string][]Workflow
	triggers    map[string][]string
	runIDs      map[string]string
	runStatuses map[string][]string
	runReads    map[string]int
	actions     map[string][]Action
	callbacks   [][]byte
	headers     []http.Header
	triggerRuns int
}

// NewFakeServer starts a fake for the given subscription. Call Close when done.
func NewFakeServer(subscriptionID string) *FakeServer {
	f := &FakeServer{
		subscriptionID: subscriptionID,
		CallbackStatus: http.StatusAccepted,
		workflows:      make(map[string][]Workflow),
		triggers:       make(map[string][]string),
		runIDs:         make(map[string]string),
		runStatuses:    make(map[string][]string),
		runReads:       make(map[string]int),
		actions:        make(map[string][]Action),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	return f
}

// AddWorkflow registers a workflow with the given state and trigger names.
func (f *FakeServer) AddWorkflow(resourceGroup, name, state string, triggers ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.workflows[resourceGroup] = append(f.workflows[resourceGroup], Workflow{
		ID:         fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Logic/workflows/%s", f.subscriptionID, resourceGroup, name),
		Name:       name,
		Type:       "Microsoft.Logic/workflows",
		Properties: WorkflowProperties{State: state},
	})
	f.triggers[resourceGroup+"/"+name] = append(f.triggers[resourceGroup+"/"+name], triggers...)
}

// SetTriggerRunID sets the run identifier returned when the trigger fires.
func (f *FakeServer) SetTriggerRunID(resourceGroup, workflow, trigger, runID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runIDs[resourceGroup+"/"+workflow+"/"+trigger] = runID
}

// SetRunStatuses queues the statuses reported by successive reads of a run.
func (f *FakeServer) SetRunStatuses(runID string, statuses ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runStatuses[runID] = statuses
	f.runReads[runID] = 0
}

// SetActions sets the actions listed for a run.
func (f *FakeServer) SetActions(runID string, actions ...Action) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions[runID] = actions
}

// RunReads returns how many times the run was read.
func (f *FakeServer) RunReads(runID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runReads[runID]
}

// CallbackBodies returns the bodies posted to callback URLs, in order.
func (f *FakeServer) CallbackBodies() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.callbacks...)
}

// CallbackHeaders returns the headers posted to callback URLs, in order.
func (f *FakeServer) CallbackHeaders() []http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]http.Header(nil), f.headers...)
}

// TriggerRuns returns how many times the run-trigger call was made.
func (f *FakeServer) TriggerRuns() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.triggerRuns
}

func (f *FakeServer) serve(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	if len(parts) == 4 && parts[0] == "callback" {
		f.serveCallback(w, r, parts[1], parts[2], parts[3])
		return
	}

	if f.Token != "" && r.Header.Get("Authorization") != "Bearer "+f.Token {
		writeError(w, http.StatusUnauthorized, "AuthenticationFailed", "invalid bearer token")
		return
	}

	// subscriptions/{sub}/resourceGroups/{rg}/providers/Microsoft.Logic/workflows/...
	if len(parts) < 7 || parts[0] != "subscriptions" || parts[2] != "resourceGroups" || parts[6] != "workflows" {
		writeError(w, http.StatusNotFound, "NotFound", "unknown route "+r.URL.Path)
		return
	}
	if parts[1] != f.subscriptionID {
		writeError(w, http.StatusNotFound, "SubscriptionNotFound", "subscription not found")
		return
	}
	if r.URL.Query().Get("api-version") == "" {
		writeError(w, http.StatusBadRequest, "MissingApiVersionParameter", "api-version is required")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	rg := parts[3]
	rest := parts[7:]

	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		writePage(w, r, f.workflows[rg], f.PageSize)

	case len(rest) == 2 && rest[1] == "triggers" && r.Method == http.MethodGet:
		key := rg + "/" + rest[0]
		if !f.hasWorkflow(rg, rest[0]) {
			writeError(w, http.StatusNotFound, "WorkflowNotFound", "workflow not found")
			return
		}
		var out []Trigger
		for _, name := range f.triggers[key] {
			out = append(out, Trigger{Name: name, Properties: TriggerProperties{State: "Enabled"}})
		}
		writePage(w, r, out, f.PageSize)

	case len(rest) == 4 && rest[1] == "triggers" && rest[3] == "listCallbackUrl" && r.Method == http.MethodPost:
		if !f.hasTrigger(rg, rest[0], rest[2]) {
			writeError(w, http.StatusNotFound, "WorkflowTriggerNotFound", "trigger not found")
			return
		}
		writeJSON(w, http.StatusOK, CallbackURL{
			Value:  fmt.Sprintf("%s/callback/%s/%s/%s?sig=fake", f.URL, rg, rest[0], rest[2]),
			Method: http.MethodPost,
		})

	case len(rest) == 4 && rest[1] == "triggers" && rest[3] == "run" && r.Method == http.MethodPost:
		if !f.hasTrigger(rg, rest[0], rest[2]) {
			writeError(w, http.StatusNotFound, "WorkflowTriggerNotFound", "trigger not found")
			return
		}
		f.triggerRuns++
		if runID := f.runIDs[rg+"/"+rest[0]+"/"+rest[2]]; runID != "" && !f.OmitRunID {
			w.Header().Set(RunIDHeader, runID)
		}
		w.WriteHeader(http.StatusAccepted)

	case len(rest) == 3 && rest[1] == "runs" && r.Method == http.MethodGet:
		statuses, ok := f.runStatuses[rest[2]]
		if !ok {
			writeError(w, http.StatusNotFound, "WorkflowRunNotFound", "run not found")
			return
		}
		idx := f.runReads[rest[2]]
		f.runReads[rest[2]]++
		if idx >= len(statuses) {
			idx = len(statuses) - 1
		}
		status := ""
		if idx >= 0 {
			status = statuses[idx]
		}
		writeJSON(w, http.StatusOK, Run{Name: rest[2], Properties: RunProperties{Status: status}})

	case len(rest) == 4 && rest[1] == "runs" && rest[3] == "actions" && r.Method == http.MethodGet:
		actions, ok := f.actions[rest[2]]
		if !ok {
			if _, known := f.runStatuses[rest[2]]; !known {
				writeError(w, http.StatusNotFound, "WorkflowRunNotFound", "run not found")
				return
			}
		}
		writePage(w, r, actions, f.PageSize)

	default:
		writeError(w, http.StatusNotFound, "NotFound", "unknown route "+r.URL.Path)
	}
}

func (f *FakeServer) serveCallback(w http.ResponseWriter, r *http.Request, rg, workflow, trigger string) {
	if r.URL.Query().Get("sig") == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.callbacks = append(f.callbacks, body)
	f.headers = append(f.headers, r.Header.Clone())
	runID := f.runIDs[rg+"/"+workflow+"/"+trigger]
	status := f.CallbackStatus
	omit := f.OmitRunID
	f.mu.Unlock()

	if runID != "" && !omit {
		w.Header().Set(RunIDHeader, runID)
	}
	w.WriteHeader(status)
}

func (f *FakeServer) hasWorkflow(rg, name string) bool {
	for _, wf := range f.workflows[rg] {
		if wf.Name == name {
			return true
		}
	}
	return false
}

func (f *FakeServer) hasTrigger(rg, workflow, trigger string) bool {
	for _, t := range f.triggers[rg+"/"+workflow] {
		if t == trigger {
			return true
		}
	}
	return false
}

func writePage[T any](w http.ResponseWriter, r *http.Request, items []T, size int) {
	if items == nil {
		items = []T{}
	}
	if size <= 0 {
		writeJSON(w, http.StatusOK, page[T]{Value: items})
		return
	}

	start, _ := strconv.Atoi(r.URL.Query().Get("$skiptoken"))
	if start > len(items) {
		start = len(items)
	}
	end := min(start+size, len(items))

	out := page[T]{Value: items[start:end]}
	if end < len(items) {
		q := r.URL.Query()
		q.Set("$skiptoken", strconv.Itoa(end))
		out.NextLink = fmt.Sprintf("http://%s%s?%s", r.Host, r.URL.Path, q.Encode())
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	var body armError
	body.Error.Code = code
	body.Error.Message = message
	writeJSON(w, status, body)
}
