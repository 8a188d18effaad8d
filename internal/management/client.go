package management

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"logicprobe/internal/logger"
)

const workflowsPath = "/subscriptions/{subscriptionId}/resourceGroups/{resourceGroupName}/providers/Microsoft.Logic/workflows"

// Options configures a [Client].
type Options struct {
	// BaseURL is the management endpoint, e.g. "https://management.azure.com".
	BaseURL string

	// SubscriptionID scopes every call.
	SubscriptionID string

	// APIVersion is sent as the api-version query parameter.
	APIVersion string

	// Token is the bearer token for the management API.
	Token string

	// Timeout is the per-request timeout for both the management and the
	// callback transport. Zero means no timeout.
	Timeout time.Duration

	// Logger receives transport warnings. Nil uses the package default.
	Logger logger.Logger
}

// Client calls the Logic Apps management API.
//
// Create it with [New] and release it with [Client.Close]. A Client is safe
// for concurrent use.
type Client struct {
	api            *resty.Client
	callback       *resty.Client
	subscriptionID string
	apiVersion     string
}

// New creates a [Client] authenticated with opts.Token.
func New(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = logger.FromContext(context.Background())
	}
	rl := restyLogger{l: log.With("component", "management")}

	api := resty.New().
		SetLogger(rl).
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		SetAuthToken(opts.Token)

	// Callback URLs carry their own signature; the management token must
	// never be sent to them.
	callback := resty.New().SetLogger(rl).SetTimeout(opts.Timeout)

	return &Client{
		api:            api,
		callback:       callback,
		subscriptionID: opts.SubscriptionID,
		apiVersion:     opts.APIVersion,
	}
}

// Close releases idle connections held by the client.
func (c *Client) Close() error {
	c.api.GetClient().CloseIdleConnections()
	c.callback.GetClient().CloseIdleConnections()
	return nil
}

func (c *Client) request(ctx context.Context, resourceGroup string) *resty.Request {
	return c.api.R().
		SetContext(ctx).
		SetQueryParam("api-version", c.apiVersion).
		SetPathParams(map[string]string{
			"subscriptionId":    c.subscriptionID,
			"resourceGroupName": resourceGroup,
		}).
		SetError(&armError{})
}

// ListWorkflows returns every workflow in the resource group.
func (c *Client) ListWorkflows(ctx context.Context, resourceGroup string) ([]Workflow, error) {
	req := c.request(ctx, resourceGroup)
	return listAll[Workflow](ctx, c, "list workflows", req, workflowsPath)
}

// ListTriggers returns the triggers of a workflow.
func (c *Client) ListTriggers(ctx context.Context, resourceGroup, workflow string) ([]Trigger, error) {
	req := c.request(ctx, resourceGroup).SetPathParam("workflowName", workflow)
	return listAll[Trigger](ctx, c, "list triggers", req, workflowsPath+"/{workflowName}/triggers")
}

// ListCallbackURL resolves the signed callback URL of a trigger.
func (c *Client) ListCallbackURL(ctx context.Context, resourceGroup, workflow, trigger string) (*CallbackURL, error) {
	var out CallbackURL
	resp, err := c.request(ctx, resourceGroup).
		SetPathParam("workflowName", workflow).
		SetPathParam("triggerName", trigger).
		SetResult(&out).
		Post(workflowsPath + "/{workflowName}/triggers/{triggerName}/listCallbackUrl")
	if err := check("list callback url", resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// RunTrigger invokes a trigger directly through the management API.
func (c *Client) RunTrigger(ctx context.Context, resourceGroup, workflow, trigger string) (*TriggerResponse, error) {
	resp, err := c.request(ctx, resourceGroup).
		SetPathParam("workflowName", workflow).
		SetPathParam("triggerName", trigger).
		Post(workflowsPath + "/{workflowName}/triggers/{triggerName}/run")
	if err := check("run trigger", resp, err); err != nil {
		return nil, err
	}
	return toTriggerResponse(resp), nil
}

// GetRun reads a single run.
func (c *Client) GetRun(ctx context.Context, resourceGroup, workflow, runID string) (*Run, error) {
	var out Run
	resp, err := c.request(ctx, resourceGroup).
		SetPathParam("workflowName", workflow).
		SetPathParam("runName", runID).
		SetResult(&out).
		Get(workflowsPath + "/{workflowName}/runs/{runName}")
	if err := check("get run", resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRunActions returns the actions of a run in API order.
func (c *Client) ListRunActions(ctx context.Context, resourceGroup, workflow, runID string) ([]Action, error) {
	req := c.request(ctx, resourceGroup).
		SetPathParam("workflowName", workflow).
		SetPathParam("runName", runID)
	return listAll[Action](ctx, c, "list run actions", req, workflowsPath+"/{workflowName}/runs/{runName}/actions")
}

// PostCallback posts payload to a signed callback URL and reports the
// response, including the run identifier header when present.
//
// Non-2xx answers are returned as a response, not an error: a workflow may
// reply with an error status from its own response action and still have
// started a run.
func (c *Client) PostCallback(ctx context.Context, url string, payload Payload) (*TriggerResponse, error) {
	contentType := payload.ContentType
	if contentType == "" {
		contentType = "application/json"
	}

	req := c.callback.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetHeaders(payload.Headers)
	if payload.Body != nil {
		req.SetBody(payload.Body)
	}

	resp, err := req.Post(url)
	if err != nil {
		return nil, fmt.Errorf("%w: post callback: %w", ErrNetwork, err)
	}
	return toTriggerResponse(resp), nil
}

func listAll[T any](ctx context.Context, c *Client, op string, first *resty.Request, path string) ([]T, error) {
	var items []T

	var pg page[T]
	resp, err := first.SetResult(&pg).Get(path)
	if err := check(op, resp, err); err != nil {
		return nil, err
	}
	items = append(items, pg.Value...)

	// nextLink is absolute and already carries api-version.
	for next := pg.NextLink; next != ""; {
		var more page[T]
		resp, err := c.api.R().
			SetContext(ctx).
			SetError(&armError{}).
			SetResult(&more).
			Get(next)
		if err := check(op, resp, err); err != nil {
			return nil, err
		}
		items = append(items, more.Value...)
		next = more.NextLink
	}

	return items, nil
}

func check(op string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNetwork, op, err)
	}
	if !resp.IsError() {
		return nil
	}

	re := &ResponseError{Operation: op, StatusCode: resp.StatusCode()}
	if body, ok := resp.Error().(*armError); ok && body != nil {
		re.Code = body.Error.Code
		re.Message = body.Error.Message
	}
	return re
}

func toTriggerResponse(resp *resty.Response) *TriggerResponse {
	return &TriggerResponse{
		StatusCode: resp.StatusCode(),
		Status:     http.StatusText(resp.StatusCode()),
		RunID:      resp.Header().Get(RunIDHeader),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}
}

// restyLogger forwards resty's printf-style messages to a [logger.Logger].
type restyLogger struct {
	l logger.Logger
}

func (r restyLogger) Errorf(format string, v ...any) { r.l.Error(strings.TrimSpace(fmt.Sprintf(format, v...))) }
func (r restyLogger) Warnf(format string, v ...any)  { r.l.Warn(strings.TrimSpace(fmt.Sprintf(format, v...))) }
func (r restyLogger) Debugf(format string, v ...any) { r.l.Debug(strings.TrimSpace(fmt.Sprintf(format, v...))) }
