package management

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logicprobe/internal/logger"
)

func setupClient(t *testing.T) (*Client, *FakeServer) {
	t.Helper()
	fake := NewFakeServer("sub-1")
	fake.Token = "tok"
	t.Cleanup(fake.Close)

	client := New(Options{
		BaseURL:        fake.URL,
		SubscriptionID: "sub-1",
		APIVersion:     "2016-06-01",
		Token:          "tok",
		Timeout:        5 * time.Second,
		Logger:         logger.NewLogger(logger.TestConfig()),
	})
	t.Cleanup(func() { _ = client.Close() })
	return client, fake
}

func TestClient_ListWorkflows(t *testing.T) {
	client, fake := setupClient(t)
	fake.AddWorkflow("RG1", "Wf1", "Enabled", "manual")
	fake.AddWorkflow("RG1", "Wf2", "Disabled")
	fake.AddWorkflow("RG2", "Other", "Enabled")

	workflows, err := client.ListWorkflows(context.Background(), "RG1")

	require.NoError(t, err)
	require.Len(t, workflows, 2)
	assert.Equal(t, "Wf1", workflows[0].Name)
	assert.Equal(t, "Enabled", workflows[0].Properties.State)
	assert.Equal(t, "Wf2", workflows[1].Name)
	assert.Equal(t, "Disabled", workflows[1].Properties.State)
}

func TestClient_ListWorkflows_FollowsNextLink(t *testing.T) {
	client, fake := setupClient(t)
	fake.PageSize = 2
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		fake.AddWorkflow("RG1", name, "Enabled")
	}

	workflows, err := client.ListWorkflows(context.Background(), "RG1")

	require.NoError(t, err)
	require.Len(t, workflows, 5)
	assert.Equal(t, "e", workflows[4].Name)
}

func TestClient_ListWorkflows_Empty(t *testing.T) {
	client, _ := setupClient(t)

	workflows, err := client.ListWorkflows(context.Background(), "RG-empty")

	require.NoError(t, err)
	assert.Empty(t, workflows)
}

func TestClient_Unauthorized(t *testing.T) {
	fake := NewFakeServer("sub-1")
	fake.Token = "expected"
	defer fake.Close()

	client := New(Options{BaseURL: fake.URL, SubscriptionID: "sub-1", APIVersion: "2016-06-01", Token: "wrong"})

	_, err := client.ListWorkflows(context.Background(), "RG1")

	var re *ResponseError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusUnauthorized, re.StatusCode)
	assert.Equal(t, "AuthenticationFailed", re.Code)
	assert.False(t, re.IsNotFound())
}

func TestClient_ListTriggers(t *testing.T) {
	client, fake := setupClient(t)
	fake.AddWorkflow("RG1", "Wf1", "Enabled", "manual", "recurrence")

	triggers, err := client.ListTriggers(context.Background(), "RG1", "Wf1")

	require.NoError(t, err)
	require.Len(t, triggers, 2)
	assert.Equal(t, "manual", triggers[0].Name)
	assert.Equal(t, "recurrence", triggers[1].Name)

	_, err = client.ListTriggers(context.Background(), "RG1", "missing")
	assert.True(t, IsNotFound(err))
}

func TestClient_ListCallbackURL(t *testing.T) {
	client, fake := setupClient(t)
	fake.AddWorkflow("RG1", "Wf1", "Enabled", "manual")

	url, err := client.ListCallbackURL(context.Background(), "RG1", "Wf1", "manual")

	require.NoError(t, err)
	assert.Contains(t, url.Value, "/callback/RG1/Wf1/manual")
	assert.Equal(t, http.MethodPost, url.Method)

	_, err = client.ListCallbackURL(context.Background(), "RG1", "Wf1", "nope")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "WorkflowTriggerNotFound")
}

func TestClient_PostCallback(t *testing.T) {
	client, fake := setupClient(t)
	fake.AddWorkflow("RG1", "Wf1", "Enabled", "manual")
	fake.SetTriggerRunID("RG1", "Wf1", "manual", "run-123")

	url, err := client.ListCallbackURL(context.Background(), "RG1", "Wf1", "manual")
	require.NoError(t, err)

	resp, err := client.PostCallback(context.Background(), url.Value, Payload{
		Body:    []byte(`{"orderId":42}`),
		Headers: map[string]string{"x-correlation-id": "abc"},
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "Accepted", resp.Status)
	assert.Equal(t, "run-123", resp.RunID)

	bodies := fake.CallbackBodies()
	require.Len(t, bodies, 1)
	assert.JSONEq(t, `{"orderId":42}`, string(bodies[0]))

	headers := fake.CallbackHeaders()
	require.Len(t, headers, 1)
	assert.Equal(t, "abc", headers[0].Get("x-correlation-id"))
	assert.Equal(t, "application/json", headers[0].Get("Content-Type"))
	assert.Empty(t, headers[0].Get("Authorization"), "management token must not reach callback URLs")
}

func TestClient_PostCallback_ErrorStatusIsNotAnError(t *testing.T) {
	client, fake := setupClient(t)
	fake.AddWorkflow("RG1", "Wf1", "Enabled", "manual")
	fake.SetTriggerRunID("RG1", "Wf1", "manual", "run-9")
	fake.CallbackStatus = http.StatusBadGateway

	resp, err := client.PostCallback(context.Background(), fake.URL+"/callback/RG1/Wf1/manual?sig=x", Payload{})

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "run-9", resp.RunID)
}

func TestClient_PostCallback_NetworkError(t *testing.T) {
	client, _ := setupClient(t)
	dead := httptest.NewServer(http.NotFoundHandler())
	url := dead.URL
	dead.Close()

	_, err := client.PostCallback(context.Background(), url, Payload{})

	assert.ErrorIs(t, err, ErrNetwork)
}

func TestClient_RunTrigger(t *testing.T) {
	client, fake := setupClient(t)
	fake.AddWorkflow("RG1", "Wf1", "Enabled", "recurrence")
	fake.SetTriggerRunID("RG1", "Wf1", "recurrence", "run-7")

	resp, err := client.RunTrigger(context.Background(), "RG1", "Wf1", "recurrence")

	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "run-7", resp.RunID)
	assert.Equal(t, 1, fake.TriggerRuns())

	_, err = client.RunTrigger(context.Background(), "RG1", "Wf1", "missing")
	assert.True(t, IsNotFound(err))
}

func TestClient_GetRun(t *testing.T) {
	client, fake := setupClient(t)
	fake.SetRunStatuses("run-1", "Running", "Succeeded")

	first, err := client.GetRun(context.Background(), "RG1", "Wf1", "run-1")
	require.NoError(t, err)
	second, err := client.GetRun(context.Background(), "RG1", "Wf1", "run-1")
	require.NoError(t, err)
	third, err := client.GetRun(context.Background(), "RG1", "Wf1", "run-1")
	require.NoError(t, err)

	assert.Equal(t, "Running", first.Properties.Status)
	assert.Equal(t, "Succeeded", second.Properties.Status)
	assert.Equal(t, "Succeeded", third.Properties.Status)
	assert.Equal(t, 3, fake.RunReads("run-1"))

	_, err = client.GetRun(context.Background(), "RG1", "Wf1", "unknown")
	assert.True(t, IsNotFound(err))
}

func TestClient_ListRunActions(t *testing.T) {
	client, fake := setupClient(t)
	fake.PageSize = 1
	fake.SetRunStatuses("run-1", "Succeeded")
	fake.SetActions("run-1",
		Action{Name: "Parse_JSON", Properties: ActionProperties{Status: "Succeeded"}},
		Action{Name: "Send_Email", Properties: ActionProperties{Status: "Failed"}},
	)

	actions, err := client.ListRunActions(context.Background(), "RG1", "Wf1", "run-1")

	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "Send_Email", actions[1].Name)
	assert.Equal(t, "Failed", actions[1].Properties.Status)
}

func TestClient_ContextCanceled(t *testing.T) {
	client, _ := setupClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListWorkflows(ctx, "RG1")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestResponseError_Error(t *testing.T) {
	withCode := &ResponseError{Operation: "get run", StatusCode: 404, Code: "WorkflowRunNotFound", Message: "gone"}
	assert.Equal(t, "get run: status 404: WorkflowRunNotFound: gone", withCode.Error())

	bare := &ResponseError{Operation: "get run", StatusCode: 500}
	assert.Equal(t, "get run: status 500", bare.Error())
}

func TestRestyLogger(t *testing.T) {
	var buf bytes.Buffer
	rl := restyLogger{l: logger.NewLogger(&logger.Config{Level: logger.DebugLevel, Output: &buf})}

	rl.Warnf("using credentials over %s\n", "http")
	rl.Debugf("attempt %d", 2)

	out := buf.String()
	assert.Contains(t, out, "using credentials over http")
	assert.Contains(t, out, "attempt 2")
}
