package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"logicprobe/internal/logicapp"
)

type actionReport struct {
	Name   string `json:"name" yaml:"name"`
	Status string `json:"status" yaml:"status"`
	Code   string `json:"code,omitempty" yaml:"code,omitempty"`
}

func newActionCommand(app *App) *cobra.Command {
	var expect string

	cmd := &cobra.Command{
		Use:   "action <resource-group> <workflow> <run-id> <action>",
		Short: "Show the status of one action in a run",
		Long: `Show the status of one action in a run.

With --expect the command exits 1 unless the status matches (case-insensitive).`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			exec := logicapp.Execution{ResourceGroup: args[0], Workflow: args[1], RunID: args[2]}
			name := args[3]

			return app.withRunner(cmd.Context(), func(r *logicapp.Runner) error {
				status, err := r.CheckAction(cmd.Context(), exec, name)
				if err != nil {
					return err
				}

				p := app.Printer
				if p.Structured() {
					if err := p.Write(actionReport{Name: name, Status: status}); err != nil {
						return err
					}
				} else {
					p.Field(name, status)
				}

				if expect != "" && !strings.EqualFold(expect, status) {
					if !p.Structured() {
						p.Failure("expected %s", expect)
					}
					return NewExitError(1)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&expect, "expect", "", "required action status, e.g. Succeeded")

	return cmd
}

func newActionsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "actions <resource-group> <workflow> <run-id>",
		Short: "List the actions of a run",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			exec := logicapp.Execution{ResourceGroup: args[0], Workflow: args[1], RunID: args[2]}

			return app.withRunner(cmd.Context(), func(r *logicapp.Runner) error {
				actions, err := r.ListActions(cmd.Context(), exec)
				if err != nil {
					return err
				}

				reports := make([]actionReport, 0, len(actions))
				for _, a := range actions {
					reports = append(reports, actionReport{Name: a.Name, Status: a.Properties.Status, Code: a.Properties.Code})
				}

				p := app.Printer
				if p.Structured() {
					return p.Write(reports)
				}
				for _, a := range reports {
					p.Field(a.Name, a.Status)
				}
				return nil
			})
		},
	}
}
