// Package cli provides the command-line interface of adkplatform.
//
// Commands share an [App] that holds the configuration and, once built, the
// orchestration loop with its collaborators. Tests inject their own
// collaborators into App before executing the root command; anything left
// nil is built from the configuration on first use.
//
// Commands:
//   - run <panel> [input]: run one panel task once
//   - loop: run the panel rotation unattended
//   - panels: list panels and validate the rotation
//   - config show: print the effective configuration
//   - dashboard: interactive terminal dashboard
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"adkplatform/internal/action"
	"adkplatform/internal/config"
	"adkplatform/internal/credential"
	"adkplatform/internal/event"
	"adkplatform/internal/lifecycle"
	"adkplatform/internal/logger"
	"adkplatform/internal/output"
	"adkplatform/internal/panel"
	"adkplatform/internal/platform"
	"adkplatform/internal/router"
	"adkplatform/internal/status"
)

// App holds the dependencies shared by all commands.
type App struct {
	Config *config.Config
	Log    *logrus.Logger

	// Printer renders loop activity for run and loop. Built from
	// Config.Output when nil.
	Printer *output.Printer

	// Executor performs generation calls. When nil it is built from
	// Config.API: a Gemini executor, or a simulated one in offline mode.
	// Either way it is wrapped with the gate and logging decorators.
	Executor action.Executor

	// Stepper runs deploy stages. Defaults to a simulated executor.
	Stepper action.Executor

	Gate     credential.Gate
	Registry *panel.Registry
	Router   *router.Router
	Store    *platform.Store
	Status   *status.Reporter
	Bus      *event.Bus
	Loop     *lifecycle.Loop

	flags rootFlags
}

type rootFlags struct {
	debug      bool
	json       bool
	quiet      bool
	offline    bool
	configPath string
}

// NewRootCommand creates the root command with all subcommands attached.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "adkplatform",
		Short: "Drive the ADK platform panels on demand or in an unattended rotation",
		Long: `adkplatform runs the six simulated business panels (terminal, ide, deploy,
marketing, image, crm) against a shared growth context. Panels can be run
one at a time or rotated continuously, with the context evolving between
steps.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: app.setup,
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&app.flags.debug, "debug", false, "Enable debug logging")
	pf.BoolVar(&app.flags.json, "json", false, "Output logs in JSON format")
	pf.BoolVarP(&app.flags.quiet, "quiet", "q", false, "Only log errors")
	pf.BoolVar(&app.flags.offline, "offline", false, "Use the simulated executor instead of the Gemini API")
	pf.StringVar(&app.flags.configPath, "config", "", "Path to a config file")

	rootCmd.AddCommand(
		newRunCommand(app),
		newLoopCommand(app),
		newPanelsCommand(app),
		newConfigCommand(app),
		newDashboardCommand(app),
	)
	return rootCmd
}

// setup loads an explicit config file and configures logging.
func (app *App) setup(cmd *cobra.Command, _ []string) error {
	if app.flags.configPath != "" {
		cfg, err := config.NewLoader().LoadFromFile(app.flags.configPath)
		if err != nil {
			return err
		}
		app.Config = cfg
	}
	if app.Config == nil {
		app.Config = config.DefaultConfig()
	}
	if app.flags.offline {
		app.Config.API.Offline = true
	}

	if app.Log == nil {
		log, err := logger.Setup(logger.Options{
			Debug: app.flags.debug,
			JSON:  app.flags.json || app.Config.Log.JSON,
			Quiet: app.flags.quiet,
			Level: app.Config.Log.Level,
			Out:   cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}
		app.Log = log
	}
	app.Log.WithField("command", cmd.Name()).Debug("configuration loaded")
	return nil
}

// ExecuteResult is the outcome of [RunWithConfig].
type ExecuteResult struct {
	ExitCode int
	Err      error
}

// RunWithConfig runs the root command with os.Args and the given config.
// Interrupts cancel the command's context.
func RunWithConfig(cfg *config.Config) ExecuteResult {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &App{Config: cfg}
	rootCmd := NewRootCommand(app)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if code, ok := IsExitError(err); ok {
			return ExecuteResult{ExitCode: code, Err: err}
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExecuteResult{ExitCode: 1, Err: err}
	}
	return ExecuteResult{}
}

// Execute loads the configuration, runs the CLI and exits with its code.
func Execute() {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	os.Exit(RunWithConfig(cfg).ExitCode)
}
