package logicapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"logicprobe/internal/logger"
	"logicprobe/internal/management"
)

// Default polling bounds.
const (
	DefaultPollInterval = 50 * time.Millisecond
	DefaultPollTimeout  = 5 * time.Minute
)

// enabledState is the workflow state reported for enabled workflows.
const enabledState = "Enabled"

// Payload is the request posted to a callback URL.
type Payload = management.Payload

// API is the subset of the management API used by [Runner].
// [management.Client] implements it.
type API interface {
	ListWorkflows(ctx context.Context, resourceGroup string) ([]management.Workflow, error)
	ListTriggers(ctx context.Context, resourceGroup, workflow string) ([]management.Trigger, error)
	ListCallbackURL(ctx context.Context, resourceGroup, workflow, trigger string) (*management.CallbackURL, error)
	PostCallback(ctx context.Context, url string, payload management.Payload) (*management.TriggerResponse, error)
	RunTrigger(ctx context.Context, resourceGroup, workflow, trigger string) (*management.TriggerResponse, error)
	GetRun(ctx context.Context, resourceGroup, workflow, runID string) (*management.Run, error)
	ListRunActions(ctx context.Context, resourceGroup, workflow, runID string) ([]management.Action, error)
}

// Option configures a [Runner].
type Option func(*Runner)

// WithPollInterval sets the delay between status reads. Non-positive values
// keep the default.
func WithPollInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// WithPollTimeout bounds the total wait for a terminal status. Non-positive
// values keep the default.
func WithPollTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.pollTimeout = d
		}
	}
}

// WithMaxPolls caps the number of status reads. Zero means no count bound.
func WithMaxPolls(n int) Option {
	return func(r *Runner) {
		if n >= 0 {
			r.maxPolls = n
		}
	}
}

// WithLogger sets the logger. Without it the logger from the call context is used.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		r.log = l
	}
}

// Runner performs workflow operations against an [API].
//
// Runner holds no per-run state; every call takes the [Execution] it acts on,
// so one Runner can serve concurrent callers.
type Runner struct {
	api          API
	pollInterval time.Duration
	pollTimeout  time.Duration
	maxPolls     int
	log          logger.Logger
}

// NewRunner creates a [Runner] with a 50ms poll interval and a five minute
// poll timeout unless overridden.
func NewRunner(api API, opts ...Option) *Runner {
	r := &Runner{
		api:          api,
		pollInterval: DefaultPollInterval,
		pollTimeout:  DefaultPollTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) logger(ctx context.Context) logger.Logger {
	if r.log != nil {
		return r.log
	}
	return logger.FromContext(ctx)
}

// CheckEnabled reports whether the workflow's state is "Enabled".
//
// The returned [Execution] always carries resourceGroup and workflow, also
// when the workflow does not exist. A missing workflow is reported as
// [ErrWorkflowNotFound] rather than as disabled.
func (r *Runner) CheckEnabled(ctx context.Context, resourceGroup, workflow string) (Execution, bool, error) {
	exec := Execution{ResourceGroup: resourceGroup, Workflow: workflow}

	workflows, err := r.api.ListWorkflows(ctx, resourceGroup)
	if err != nil {
		return exec, false, err
	}

	for _, wf := range workflows {
		if wf.Name == workflow {
			return exec, wf.Properties.State == enabledState, nil
		}
	}
	return exec, false, fmt.Errorf("%w: %s", ErrWorkflowNotFound, exec)
}

// Triggers lists the trigger names of the execution's workflow.
func (r *Runner) Triggers(ctx context.Context, exec Execution) ([]string, error) {
	triggers, err := r.api.ListTriggers(ctx, exec.ResourceGroup, exec.Workflow)
	if err != nil {
		return nil, notFound(err, ErrWorkflowNotFound, exec.String())
	}
	names := make([]string, len(triggers))
	for i, t := range triggers {
		names[i] = t.Name
	}
	return names, nil
}

// Execute fires the named trigger of the execution's workflow.
//
// With [TriggerHTTPCallback] the payload is posted to the trigger's callback
// URL, the run identifier is taken from the response header and Execute
// blocks until the run is Succeeded or Failed (see [Runner.WaitForRun]).
// The returned Result is non-nil whenever a run was started, also when
// waiting fails.
//
// With [TriggerNamed] the trigger is run through the management API, the
// payload is ignored and Execute returns without waiting.
func (r *Runner) Execute(ctx context.Context, exec Execution, kind TriggerKind, trigger string, payload Payload) (*Result, error) {
	if exec.Workflow == "" {
		return nil, fmt.Errorf("%w: execution has no workflow", ErrWorkflowNotFound)
	}
	exec.Reset()

	switch kind {
	case TriggerHTTPCallback:
		return r.executeCallback(ctx, exec, trigger, payload)
	case TriggerNamed:
		return r.executeNamed(ctx, exec, trigger)
	default:
		return nil, fmt.Errorf("unsupported trigger kind %s", kind)
	}
}

func (r *Runner) executeCallback(ctx context.Context, exec Execution, trigger string, payload Payload) (*Result, error) {
	log := r.logger(ctx).With("workflow", exec.String(), "trigger", trigger)

	url, err := r.api.ListCallbackURL(ctx, exec.ResourceGroup, exec.Workflow, trigger)
	if err != nil {
		return nil, notFound(err, ErrTriggerNotFound, trigger)
	}

	resp, err := r.api.PostCallback(ctx, url.Value, payload)
	if err != nil {
		return nil, err
	}
	if resp.RunID == "" {
		return nil, fmt.Errorf("%w (status %d)", ErrRunIDMissing, resp.StatusCode)
	}

	exec.RunID = resp.RunID
	log.Info("run started", "run_id", exec.RunID, "status_code", resp.StatusCode)

	result := &Result{
		Execution:  exec,
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
	}

	status, polls, err := r.wait(ctx, exec)
	result.RunStatus = status
	result.Polls = polls
	if err != nil {
		return result, err
	}

	log.Info("run completed", "run_id", exec.RunID, "status", status, "polls", polls)
	return result, nil
}

func (r *Runner) executeNamed(ctx context.Context, exec Execution, trigger string) (*Result, error) {
	resp, err := r.api.RunTrigger(ctx, exec.ResourceGroup, exec.Workflow, trigger)
	if err != nil {
		return nil, notFound(err, ErrTriggerNotFound, trigger)
	}

	exec.RunID = resp.RunID
	r.logger(ctx).Info("trigger fired", "workflow", exec.String(), "trigger", trigger, "status_code", resp.StatusCode)

	return &Result{
		Execution:  exec,
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
	}, nil
}

// GetRun reads the current state of the execution's run once.
func (r *Runner) GetRun(ctx context.Context, exec Execution) (*management.Run, error) {
	if !exec.HasRun() {
		return nil, ErrNoActiveRun
	}
	run, err := r.api.GetRun(ctx, exec.ResourceGroup, exec.Workflow, exec.RunID)
	if err != nil {
		return nil, notFound(err, ErrRunNotFound, exec.RunID)
	}
	return run, nil
}

// WaitForRun polls the execution's run until its status is Succeeded or Failed.
//
// The first read happens immediately, then one read per poll interval. Any
// other status, including unrecognised ones, keeps the loop going. Waiting
// stops with [ErrPollTimeout] once the poll timeout elapses or the maximum
// number of polls is used up, and with the context error when ctx ends.
// Errors from a status read end the wait at once.
func (r *Runner) WaitForRun(ctx context.Context, exec Execution) (RunStatus, error) {
	status, _, err := r.wait(ctx, exec)
	return status, err
}

// errRunPending marks a non-terminal read inside the poll loop.
var errRunPending = errors.New("run not finished")

func (r *Runner) wait(ctx context.Context, exec Execution) (RunStatus, int, error) {
	if !exec.HasRun() {
		return RunOther, 0, ErrNoActiveRun
	}
	log := r.logger(ctx)

	pollCtx, cancel := context.WithTimeout(ctx, r.pollTimeout)
	defer cancel()

	backoff := retry.NewConstant(r.pollInterval)
	if r.maxPolls > 0 {
		backoff = retry.WithMaxRetries(uint64(r.maxPolls-1), backoff)
	}
	backoff = retry.WithMaxDuration(r.pollTimeout, backoff)

	status := RunOther
	polls := 0
	err := retry.Do(pollCtx, backoff, func(ctx context.Context) error {
		run, err := r.api.GetRun(ctx, exec.ResourceGroup, exec.Workflow, exec.RunID)
		polls++
		if err != nil {
			return notFound(err, ErrRunNotFound, exec.RunID)
		}

		status = ParseRunStatus(run.Properties.Status)
		log.Debug("polled run", "run_id", exec.RunID, "status", run.Properties.Status, "poll", polls)
		if status.Terminal() {
			return nil
		}
		return retry.RetryableError(errRunPending)
	})

	switch {
	case err == nil:
		return status, polls, nil
	case ctx.Err() != nil:
		return status, polls, ctx.Err()
	case errors.Is(err, errRunPending), errors.Is(pollCtx.Err(), context.DeadlineExceeded):
		return status, polls, fmt.Errorf("%w: %s still %s after %d polls", ErrPollTimeout, exec, status, polls)
	default:
		return status, polls, err
	}
}

// ListActions returns the actions of the execution's run.
func (r *Runner) ListActions(ctx context.Context, exec Execution) ([]management.Action, error) {
	if !exec.HasRun() {
		return nil, ErrNoActiveRun
	}
	actions, err := r.api.ListRunActions(ctx, exec.ResourceGroup, exec.Workflow, exec.RunID)
	if err != nil {
		return nil, notFound(err, ErrRunNotFound, exec.RunID)
	}
	return actions, nil
}

// CheckAction returns the status text of the first action named action in
// the execution's run, or [ErrActionNotFound].
func (r *Runner) CheckAction(ctx context.Context, exec Execution, action string) (string, error) {
	actions, err := r.ListActions(ctx, exec)
	if err != nil {
		return "", err
	}
	for _, a := range actions {
		if a.Name == action {
			return a.Properties.Status, nil
		}
	}
	return "", fmt.Errorf("%w: %q in %s", ErrActionNotFound, action, exec)
}
