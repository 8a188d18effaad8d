package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"logicprobe/internal/logicapp"
)

// Sentinel errors for scenario execution.
var (
	// ErrWorkflowDisabled means a step targets a workflow that is not enabled.
	ErrWorkflowDisabled = errors.New("workflow is not enabled")

	// ErrUnexpectedStatus means an observed status differs from expected_status.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// WorkflowRunner is the subset of [logicapp.Runner] used by [Executor].
type WorkflowRunner interface {
	CheckEnabled(ctx context.Context, resourceGroup, workflow string) (logicapp.Execution, bool, error)
	Execute(ctx context.Context, exec logicapp.Execution, kind logicapp.TriggerKind, trigger string, payload logicapp.Payload) (*logicapp.Result, error)
	CheckAction(ctx context.Context, exec logicapp.Execution, action string) (string, error)
}

// ProgressCallback is invoked before each step begins.
//
// stepIndex is 1-based.
type ProgressCallback func(stepIndex, totalSteps int, step Step)

// Outcome is the observed result of one step.
type Outcome struct {
	Step Step

	// Result is the trigger result; nil when the step failed before firing.
	Result *logicapp.Result

	// ActionStatus is the status of Step.Action, when one was checked.
	ActionStatus string

	// Err is nil for a passing step.
	Err error
}

// Passed reports whether the step completed and met its expectation.
func (o Outcome) Passed() bool {
	return o.Err == nil
}

// Executor runs scenario steps in order and stops at the first failure.
type Executor struct {
	runner   WorkflowRunner
	progress ProgressCallback
}

// NewExecutor creates an [Executor] backed by runner.
func NewExecutor(runner WorkflowRunner) *Executor {
	return &Executor{runner: runner}
}

// SetProgressCallback configures an optional progress callback.
func (e *Executor) SetProgressCallback(cb ProgressCallback) {
	e.progress = cb
}

// Run executes every step of s. It returns the outcomes of the steps that ran
// and the error of the failing step, if any.
func (e *Executor) Run(ctx context.Context, s *Scenario) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(s.Steps))

	for i, step := range s.Steps {
		if e.progress != nil {
			e.progress(i+1, len(s.Steps), step)
		}

		outcome := e.runStep(ctx, s, step)
		outcomes = append(outcomes, outcome)
		if outcome.Err != nil {
			return outcomes, fmt.Errorf("step %d (line %d): %w", i+1, step.Line, outcome.Err)
		}
	}

	return outcomes, nil
}

func (e *Executor) runStep(ctx context.Context, s *Scenario, step Step) Outcome {
	outcome := Outcome{Step: step}

	exec, enabled, err := e.runner.CheckEnabled(ctx, step.ResourceGroup, step.Workflow)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	if !enabled {
		outcome.Err = fmt.Errorf("%w: %s", ErrWorkflowDisabled, exec)
		return outcome
	}

	payload, err := s.LoadPayload(step)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	result, err := e.runner.Execute(ctx, exec, step.Kind, step.Trigger, payload)
	outcome.Result = result
	if err != nil {
		outcome.Err = err
		return outcome
	}

	if step.Action != "" {
		status, err := e.runner.CheckAction(ctx, result.Execution, step.Action)
		outcome.ActionStatus = status
		if err != nil {
			outcome.Err = err
			return outcome
		}
		outcome.Err = expect(step.ExpectedStatus, status, "action "+step.Action)
		return outcome
	}

	if step.ExpectedStatus != "" {
		outcome.Err = expect(step.ExpectedStatus, result.RunStatus.String(), "run")
	}
	return outcome
}

func expect(want, got, subject string) error {
	if want == "" || strings.EqualFold(want, got) {
		return nil
	}
	return fmt.Errorf("%w: %s is %s, want %s", ErrUnexpectedStatus, subject, got, want)
}
