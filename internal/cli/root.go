// Package cli provides the logicprobe command-line interface.
//
// Commands are built with Cobra around an [App] holding configuration,
// printer and logger, so tests can run commands in-process through
// [RunWithConfig] and assert on exit codes and output.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"logicprobe/internal/auth"
	"logicprobe/internal/config"
	"logicprobe/internal/logger"
	"logicprobe/internal/logicapp"
	"logicprobe/internal/output"
)

// App holds the dependencies shared by all commands.
type App struct {
	Config  *config.Config
	Printer *output.Printer
	Logger  logger.Logger

	// Stdin feeds "--payload -".
	Stdin io.Reader

	// Stderr receives logs and error messages.
	Stderr io.Writer
}

// NewApp creates an [App] writing to the standard streams.
func NewApp(cfg *config.Config) *App {
	app := &App{
		Config:  cfg,
		Printer: output.NewPrinter(),
		Stdin:   os.Stdin,
		Stderr:  os.Stderr,
	}
	app.Logger = app.newLogger()
	return app
}

func (a *App) newLogger() logger.Logger {
	return logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(a.Config.Log.Level),
		Output:     a.Stderr,
		JSON:       a.Config.Log.JSON,
		TimeFormat: "15:04:05",
	})
}

// newSession builds a session authenticated with the configured service principal.
func (a *App) newSession() *logicapp.Session {
	cfg := a.Config
	provider := auth.NewClientCredentials(
		cfg.AuthorityHost, cfg.TenantID, cfg.ApplicationID, cfg.Secret, cfg.Resource,
		auth.WithHTTPClient(&http.Client{Timeout: cfg.HTTP.Timeout}),
	)
	return logicapp.NewSession(logicapp.SessionConfigFrom(cfg), provider)
}

// withSession starts a session, runs fn and stops the session.
func (a *App) withSession(ctx context.Context, fn func(s *logicapp.Session) error) error {
	s := a.newSession()
	if err := s.Start(ctx); err != nil {
		return err
	}
	defer s.Stop()
	return fn(s)
}

// withRunner is withSession for commands that work on explicit executions.
func (a *App) withRunner(ctx context.Context, fn func(r *logicapp.Runner) error) error {
	return a.withSession(ctx, func(s *logicapp.Session) error {
		r, err := s.Runner()
		if err != nil {
			return err
		}
		return fn(r)
	})
}

// NewRootCommand builds the command tree.
func NewRootCommand(app *App) *cobra.Command {
	var (
		configPath string
		logLevel   string
		format     string
	)

	root := &cobra.Command{
		Use:   "logicprobe",
		Short: "Drive Logic App workflows from acceptance tests",
		Long: `logicprobe checks that Logic App workflows are enabled, fires their
triggers, waits for runs to finish and reports action statuses.

Credentials come from logicprobe.yaml or LOGICPROBE_* environment variables:
  LOGICPROBE_SUBSCRIPTION_ID, LOGICPROBE_TENANT_ID,
  LOGICPROBE_APPLICATION_ID, LOGICPROBE_SECRET`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			rebuildLogger := false
			if configPath != "" {
				cfg, err := config.NewLoader().LoadFromFile(configPath)
				if err != nil {
					return &ExitError{Code: 2, Err: err}
				}
				app.Config = cfg
				rebuildLogger = true
			}
			if logLevel != "" {
				app.Config.Log.Level = logLevel
				rebuildLogger = true
			}
			if rebuildLogger {
				app.Logger = app.newLogger()
			}

			f, err := output.ParseFormat(format)
			if err != nil {
				return &ExitError{Code: 2, Err: err}
			}
			app.Printer.SetFormat(f)

			cmd.SetContext(logger.ContextWithLogger(cmd.Context(), app.Logger))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVarP(&format, "output", "o", "text", "output format: text, json, yaml")

	root.AddCommand(
		newEnabledCommand(app),
		newExecuteCommand(app),
		newStatusCommand(app),
		newActionCommand(app),
		newActionsCommand(app),
		newVerifyCommand(app),
	)

	return root
}

// ExecuteResult is the outcome of running the command tree.
type ExecuteResult struct {
	ExitCode int
	Err      error
}

// RunWithConfig runs the command tree with args and reports the exit code.
func RunWithConfig(ctx context.Context, app *App, args []string) ExecuteResult {
	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetIn(app.Stdin)
	root.SetErr(app.Stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExecuteResult{}
	}

	if code, ok := IsExitError(err); ok {
		var exitErr *ExitError
		if errors.As(err, &exitErr) && exitErr.Err != nil {
			fmt.Fprintln(app.Stderr, "Error:", exitErr.Err)
		}
		return ExecuteResult{ExitCode: code, Err: err}
	}

	fmt.Fprintln(app.Stderr, "Error:", err)
	return ExecuteResult{ExitCode: 1, Err: err}
}

// Execute loads configuration, runs the command line and exits the process.
func Execute() {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}

	app := NewApp(cfg)
	logger.SetDefault(app.Logger)

	result := RunWithConfig(context.Background(), app, os.Args[1:])
	os.Exit(result.ExitCode)
}
