package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"logicprobe/internal/logicapp"
)

type enabledReport struct {
	ResourceGroup string   `json:"resourceGroup" yaml:"resourceGroup"`
	Workflow      string   `json:"workflow" yaml:"workflow"`
	Enabled       bool     `json:"enabled" yaml:"enabled"`
	Triggers      []string `json:"triggers,omitempty" yaml:"triggers,omitempty"`
}

func newEnabledCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "enabled <resource-group> <workflow>",
		Short: "Check that a workflow is enabled",
		Long: `Check that a workflow exists and is enabled, and list its triggers.

Exits 0 when enabled, 1 when disabled or not found.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rg, wf := args[0], args[1]

			return app.withSession(cmd.Context(), func(s *logicapp.Session) error {
				enabled, err := s.IsWorkflowEnabled(cmd.Context(), rg, wf)
				if err != nil {
					return err
				}

				r, err := s.Runner()
				if err != nil {
					return err
				}
				triggers, err := r.Triggers(cmd.Context(), s.Current())
				if err != nil {
					return err
				}

				p := app.Printer
				if p.Structured() {
					report := enabledReport{ResourceGroup: rg, Workflow: wf, Enabled: enabled, Triggers: triggers}
					if err := p.Write(report); err != nil {
						return err
					}
				} else {
					if enabled {
						p.Success("%s/%s is enabled", rg, wf)
					} else {
						p.Failure("%s/%s is disabled", rg, wf)
					}
					if len(triggers) > 0 {
						p.Field("Triggers", strings.Join(triggers, ", "))
					}
				}

				if !enabled {
					return NewExitError(1)
				}
				return nil
			})
		},
	}
}
