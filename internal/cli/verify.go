package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"logicprobe/internal/logicapp"
	"logicprobe/internal/scenario"
)

type stepReport struct {
	Line         int    `json:"line" yaml:"line"`
	Workflow     string `json:"workflow" yaml:"workflow"`
	Trigger      string `json:"trigger" yaml:"trigger"`
	RunID        string `json:"runId,omitempty" yaml:"runId,omitempty"`
	RunStatus    string `json:"runStatus,omitempty" yaml:"runStatus,omitempty"`
	Action       string `json:"action,omitempty" yaml:"action,omitempty"`
	ActionStatus string `json:"actionStatus,omitempty" yaml:"actionStatus,omitempty"`
	Passed       bool   `json:"passed" yaml:"passed"`
	Error        string `json:"error,omitempty" yaml:"error,omitempty"`
}

type verifyReport struct {
	Scenario string       `json:"scenario" yaml:"scenario"`
	Passed   bool         `json:"passed" yaml:"passed"`
	Steps    []stepReport `json:"steps" yaml:"steps"`
}

func newVerifyCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <scenario.csv>",
		Short: "Run a CSV scenario of trigger steps",
		Long: `Run a CSV scenario of trigger steps in order, stopping at the first failure.

Columns: resource_group, workflow, trigger (required) and kind, payload,
action, expected_status (optional). A payload starting with @ is read from
a file relative to the scenario.

Example scenario.csv:
  resource_group,workflow,trigger,kind,payload,action,expected_status
  RG1,OrderFlow,manual,http,@order.json,Send_email,Succeeded`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			s, err := scenario.ReadFromFile(path)
			if err != nil {
				return &ExitError{Code: 2, Err: err}
			}

			return app.withRunner(cmd.Context(), func(r *logicapp.Runner) error {
				p := app.Printer
				executor := scenario.NewExecutor(r)
				if !p.Structured() {
					executor.SetProgressCallback(func(i, n int, step scenario.Step) {
						p.Progress(i, n, "%s/%s %s", step.ResourceGroup, step.Workflow, step.Trigger)
					})
				}

				outcomes, runErr := executor.Run(cmd.Context(), s)

				report := verifyReport{Scenario: path, Passed: runErr == nil}
				for _, o := range outcomes {
					report.Steps = append(report.Steps, toStepReport(o))
				}

				if p.Structured() {
					if err := p.Write(report); err != nil {
						return err
					}
				} else {
					printOutcomes(app, outcomes)
					if runErr == nil {
						p.Success("%d steps passed", len(outcomes))
					} else {
						p.Failure("%s", runErr)
					}
				}

				if runErr != nil {
					return NewExitError(1)
				}
				return nil
			})
		},
	}
}

func toStepReport(o scenario.Outcome) stepReport {
	r := stepReport{
		Line:         o.Step.Line,
		Workflow:     o.Step.ResourceGroup + "/" + o.Step.Workflow,
		Trigger:      o.Step.Trigger,
		Action:       o.Step.Action,
		ActionStatus: o.ActionStatus,
		Passed:       o.Passed(),
	}
	if o.Result != nil {
		r.RunID = o.Result.Execution.RunID
		if o.Step.Kind == logicapp.TriggerHTTPCallback {
			r.RunStatus = o.Result.RunStatus.String()
		}
	}
	if o.Err != nil {
		r.Error = o.Err.Error()
	}
	return r
}

func printOutcomes(app *App, outcomes []scenario.Outcome) {
	p := app.Printer
	for _, o := range outcomes {
		if !o.Passed() {
			continue
		}
		parts := []string{o.Step.Workflow}
		if o.Result != nil && o.Result.Execution.RunID != "" {
			parts = append(parts, o.Result.Execution.RunID)
		}
		if o.Step.Action != "" {
			parts = append(parts, o.Step.Action+"="+o.ActionStatus)
		}
		p.Success("%s", strings.Join(parts, " "))
	}
}

