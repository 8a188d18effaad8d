package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"logicprobe/internal/logicapp"
)

type executeReport struct {
	ResourceGroup string `json:"resourceGroup" yaml:"resourceGroup"`
	Workflow      string `json:"workflow" yaml:"workflow"`
	Trigger       string `json:"trigger" yaml:"trigger"`
	Kind          string `json:"kind" yaml:"kind"`
	StatusCode    int    `json:"statusCode" yaml:"statusCode"`
	Status        string `json:"status" yaml:"status"`
	RunID         string `json:"runId,omitempty" yaml:"runId,omitempty"`
	RunStatus     string `json:"runStatus,omitempty" yaml:"runStatus,omitempty"`
	Polls         int    `json:"polls,omitempty" yaml:"polls,omitempty"`
}

func newExecuteCommand(app *App) *cobra.Command {
	var (
		kind        string
		payloadPath string
		data        string
		contentType string
		headers     map[string]string
		timeout     time.Duration
		maxPolls    int
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "execute <resource-group> <workflow> <trigger>",
		Short: "Fire a workflow trigger",
		Long: `Fire a workflow trigger.

With --kind http (default) the payload is posted to the trigger's callback
URL and the command waits until the run is Succeeded or Failed. With
--kind named the trigger is run through the management API and the command
returns immediately.

Exits 1 when the workflow is disabled, the run failed or waiting timed out.

Example:
  logicprobe execute RG1 OrderFlow manual --payload order.json -H x-test=1`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			rg, wf, trigger := args[0], args[1], args[2]

			triggerKind, err := logicapp.ParseTriggerKind(kind)
			if err != nil {
				return &ExitError{Code: 2, Err: err}
			}

			body, err := readPayload(app.Stdin, payloadPath, data)
			if err != nil {
				return &ExitError{Code: 2, Err: err}
			}
			payload := logicapp.Payload{Body: body, ContentType: contentType, Headers: headers}

			if timeout > 0 {
				app.Config.Poll.Timeout = timeout
			}
			if cmd.Flags().Changed("max-polls") {
				app.Config.Poll.MaxPolls = maxPolls
			}

			return app.withSession(cmd.Context(), func(s *logicapp.Session) error {
				enabled, err := s.IsWorkflowEnabled(cmd.Context(), rg, wf)
				if err != nil {
					return err
				}
				if !enabled && !force {
					app.Printer.Failure("%s/%s is disabled (use --force to fire anyway)", rg, wf)
					return NewExitError(1)
				}

				result, execErr := s.Execute(cmd.Context(), triggerKind, trigger, payload)
				if result != nil {
					if err := printExecute(app, rg, wf, trigger, triggerKind, result); err != nil {
						return err
					}
				}
				if execErr != nil {
					return execErr
				}
				if triggerKind == logicapp.TriggerHTTPCallback && result.RunStatus == logicapp.RunFailed {
					return NewExitError(1)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "http", "trigger kind: http or named")
	cmd.Flags().StringVar(&payloadPath, "payload", "", "file holding the request body, or - for stdin")
	cmd.Flags().StringVar(&data, "data", "", "inline request body")
	cmd.Flags().StringVar(&contentType, "content-type", "application/json", "request content type")
	cmd.Flags().StringToStringVarP(&headers, "header", "H", nil, "extra request header key=value (repeatable)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "bound on waiting for the run (default from config)")
	cmd.Flags().IntVar(&maxPolls, "max-polls", 0, "bound on status reads, 0 for none")
	cmd.Flags().BoolVar(&force, "force", false, "fire even when the workflow is disabled")
	cmd.MarkFlagsMutuallyExclusive("payload", "data")

	return cmd
}

func readPayload(stdin io.Reader, path, data string) ([]byte, error) {
	switch {
	case data != "":
		return []byte(data), nil
	case path == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read payload from stdin: %w", err)
		}
		return b, nil
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read payload: %w", err)
		}
		return b, nil
	default:
		return nil, nil
	}
}

func printExecute(app *App, rg, wf, trigger string, kind logicapp.TriggerKind, result *logicapp.Result) error {
	report := executeReport{
		ResourceGroup: rg,
		Workflow:      wf,
		Trigger:       trigger,
		Kind:          kind.String(),
		StatusCode:    result.StatusCode,
		Status:        result.StatusText(),
		RunID:         result.Execution.RunID,
		Polls:         result.Polls,
	}
	if kind == logicapp.TriggerHTTPCallback {
		report.RunStatus = result.RunStatus.String()
	}

	p := app.Printer
	if p.Structured() {
		return p.Write(report)
	}

	p.Field("Status", fmt.Sprintf("%d %s", report.StatusCode, report.Status))
	if report.RunID != "" {
		p.Field("Run ID", report.RunID)
	}
	if report.RunStatus == "" {
		return nil
	}
	p.Field("Polls", report.Polls)
	switch result.RunStatus {
	case logicapp.RunSucceeded:
		p.Success("run %s succeeded", report.RunID)
	case logicapp.RunFailed:
		p.Failure("run %s failed", report.RunID)
	default:
		p.Failure("run %s is still %s", report.RunID, report.RunStatus)
	}
	return nil
}
