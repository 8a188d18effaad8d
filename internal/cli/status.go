package cli

import (
	"time"

	"github.com/spf13/cobra"

	"logicprobe/internal/logicapp"
)

type statusReport struct {
	RunID     string     `json:"runId" yaml:"runId"`
	Status    string     `json:"status" yaml:"status"`
	StartTime *time.Time `json:"startTime,omitempty" yaml:"startTime,omitempty"`
	EndTime   *time.Time `json:"endTime,omitempty" yaml:"endTime,omitempty"`
}

func newStatusCommand(app *App) *cobra.Command {
	var (
		wait    bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "status <resource-group> <workflow> <run-id>",
		Short: "Show the status of a workflow run",
		Long: `Show the status of a workflow run.

With --wait the run is polled until it is Succeeded or Failed. Exits 1 when
the run failed or waiting timed out.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			exec := logicapp.Execution{ResourceGroup: args[0], Workflow: args[1], RunID: args[2]}
			if timeout > 0 {
				app.Config.Poll.Timeout = timeout
			}

			return app.withRunner(cmd.Context(), func(r *logicapp.Runner) error {
				if wait {
					if _, err := r.WaitForRun(cmd.Context(), exec); err != nil {
						return err
					}
				}

				run, err := r.GetRun(cmd.Context(), exec)
				if err != nil {
					return err
				}

				report := statusReport{
					RunID:     exec.RunID,
					Status:    run.Properties.Status,
					StartTime: run.Properties.StartTime,
					EndTime:   run.Properties.EndTime,
				}

				p := app.Printer
				if p.Structured() {
					if err := p.Write(report); err != nil {
						return err
					}
				} else {
					p.Field("Run ID", report.RunID)
					p.Field("Status", report.Status)
					if report.StartTime != nil {
						p.Field("Started", report.StartTime.Format(time.RFC3339))
					}
					if report.EndTime != nil {
						p.Field("Ended", report.EndTime.Format(time.RFC3339))
					}
				}

				if wait && logicapp.ParseRunStatus(run.Properties.Status) == logicapp.RunFailed {
					return NewExitError(1)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "poll until the run is Succeeded or Failed")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "bound on waiting for the run (default from config)")

	return cmd
}
