package logicapp

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecution_Reset(t *testing.T) {
	exec := Execution{ResourceGroup: "RG1", Workflow: "Wf1", RunID: "run-1"}

	exec.Reset()

	assert.Empty(t, exec.RunID)
	assert.Equal(t, "RG1", exec.ResourceGroup)
	assert.Equal(t, "Wf1", exec.Workflow)
	assert.False(t, exec.HasRun())
}

func TestExecution_String(t *testing.T) {
	assert.Equal(t, "RG1/Wf1", Execution{ResourceGroup: "RG1", Workflow: "Wf1"}.String())
	assert.Equal(t, "RG1/Wf1/runs/r1", Execution{ResourceGroup: "RG1", Workflow: "Wf1", RunID: "r1"}.String())
}

func TestParseTriggerKind(t *testing.T) {
	tests := []struct {
		in      string
		want    TriggerKind
		wantErr bool
	}{
		{in: "http", want: TriggerHTTPCallback},
		{in: "HTTP", want: TriggerHTTPCallback},
		{in: "callback", want: TriggerHTTPCallback},
		{in: "", want: TriggerHTTPCallback},
		{in: "named", want: TriggerNamed},
		{in: "other", want: TriggerNamed},
		{in: "queue", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTriggerKind(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRunStatus(t *testing.T) {
	tests := []struct {
		in       string
		want     RunStatus
		terminal bool
	}{
		{"Running", RunRunning, false},
		{"Succeeded", RunSucceeded, true},
		{"succeeded", RunSucceeded, true},
		{"Failed", RunFailed, true},
		{"Cancelled", RunOther, false},
		{"Waiting", RunOther, false},
		{"", RunOther, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseRunStatus(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.terminal, got.Terminal())
		})
	}
}

func TestResult_StatusText(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{http.StatusOK, "OK"},
		{http.StatusAccepted, "Accepted"},
		{http.StatusInternalServerError, "InternalServerError"},
		{http.StatusNonAuthoritativeInfo, "NonAuthoritativeInformation"},
		{599, "599"},
	}

	for _, tt := range tests {
		r := &Result{StatusCode: tt.code}
		assert.Equal(t, tt.want, r.StatusText())
	}
	assert.True(t, (&Result{StatusCode: 202}).Success())
	assert.False(t, (&Result{StatusCode: 500}).Success())
}
