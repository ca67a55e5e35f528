// pattern: Imperative Shell
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pweiskircher/profile-sync/internal/cli/middleware"
	"github.com/pweiskircher/profile-sync/internal/commands"
	"github.com/pweiskircher/profile-sync/internal/contracts"
	"github.com/pweiskircher/profile-sync/internal/lock"
	"github.com/pweiskircher/profile-sync/internal/output"
)

type AppContext struct {
	Stdout  io.Writer
	Stderr  io.Writer
	Now     func() time.Time
	WorkDir string
}

type globalFlags struct {
	json    bool
	verbose bool
	project string
}

type executionState struct {
	global      globalFlags
	commandName string
	dryRun      bool
}

func (state *executionState) outputMode() contracts.OutputMode {
	if state.global.json {
		return contracts.OutputModeJSON
	}
	return contracts.OutputModeHuman
}

func (state *executionState) resolvedCommandName() string {
	if state.commandName != "" {
		return state.commandName
	}
	return "root"
}

// Run executes the CLI using shared output and exit-code plumbing.
func Run(args []string, stdout io.Writer, stderr io.Writer) int {
	app := normalizeAppContext(AppContext{
		Stdout: stdout,
		Stderr: stderr,
		Now:    time.Now,
	})

	root, state := newRootCommand(app)
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return int(contracts.ExitCodeSuccess)
	}

	var exitErr *codedExitError
	if errors.As(err, &exitErr) {
		return int(exitErr.Code)
	}

	report := output.Report{CommandName: state.resolvedCommandName(), DryRun: state.dryRun}
	if renderErr := output.Write(state.outputMode(), app.Stdout, app.Stderr, report, 0, err); renderErr != nil {
		_, _ = fmt.Fprintln(app.Stderr, output.FormatDiagnostic(renderErr))
	}

	return int(contracts.ExitCodeFatal)
}

// NewRootCommand constructs the Cobra command tree for the CLI.
func NewRootCommand(app AppContext) *cobra.Command {
	root, _ := newRootCommand(app)
	return root
}

func newRootCommand(app AppContext) (*cobra.Command, *executionState) {
	app = normalizeAppContext(app)
	state := &executionState{}

	root := &cobra.Command{
		Use:           "profile-sync",
		Short:         "Sync permission profiles between a local workspace and remote orgs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVar(&state.global.json, "json", false, "emit machine-readable JSON envelope output")
	root.PersistentFlags().BoolVar(&state.global.verbose, "verbose", false, "enable debug logging on stderr")
	root.PersistentFlags().StringVar(&state.global.project, "project", "", "project directory (default: working directory)")

	root.AddCommand(
		newInitCommand(app, state),
		newCompareCommand(app, state),
		newMergeCommand(app, state),
		newValidateCommand(app, state),
		newPullCommand(app, state),
		newListCommand(app, state),
	)

	return root, state
}

func newInitCommand(app AppContext, state *executionState) *cobra.Command {
	var options commands.InitOptions

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a profile sync workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, app, state, contracts.CommandInit, false, func(ctx context.Context, workDir string) (output.Report, error) {
				return commands.RunInit(workDir, options)
			})
		},
	}

	cmd.Flags().StringVar(&options.Org, "org", "", "alias of the org to register")
	cmd.Flags().StringVar(&options.BaseURL, "url", "", "base URL of the org's metadata API")
	cmd.Flags().StringVar(&options.TokenEnv, "token-env", "", "environment variable holding this org's API token")
	cmd.Flags().StringVar(&options.Strategy, "strategy", "", "default merge strategy to record in the config")
	cmd.Flags().BoolVar(&options.Force, "force", false, "overwrite an existing config")

	return cmd
}

func newCompareCommand(app AppContext, state *executionState) *cobra.Command {
	var sources []string

	cmd := &cobra.Command{
		Use:   "compare [profiles...]",
		Short: "Diff local profiles against one or more orgs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, app, state, contracts.CommandCompare, false, func(ctx context.Context, workDir string) (output.Report, error) {
				return commands.RunCompare(ctx, workDir, commands.CompareOptions{
					Profiles: args,
					Sources:  sources,
					Runtime:  runtimeOptions(state),
				})
			})
		},
	}

	cmd.Flags().StringArrayVar(&sources, "source", nil, "org alias to compare against (repeatable)")

	return cmd
}

func newMergeCommand(app AppContext, state *executionState) *cobra.Command {
	var options commands.MergeOptions

	cmd := &cobra.Command{
		Use:   "merge [profiles...]",
		Short: "Merge org changes into local profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, app, state, contracts.CommandMerge, options.DryRun, func(ctx context.Context, workDir string) (output.Report, error) {
				options.Profiles = args
				options.Runtime = runtimeOptions(state)
				return commands.RunMerge(ctx, workDir, options)
			})
		},
	}

	cmd.Flags().StringVar(&options.Source, "source", "", "org alias to merge from")
	cmd.Flags().StringVar(&options.Strategy, "strategy", "", "conflict resolution strategy")
	cmd.Flags().BoolVar(&options.SkipBackup, "skip-backup", false, "merge without a pre-merge backup")
	cmd.Flags().BoolVar(&options.DryRun, "dry-run", false, "resolve and validate without writing")

	return cmd
}

func newValidateCommand(app AppContext, state *executionState) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [profiles...]",
		Short: "Validate stored profile documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, app, state, contracts.CommandValidate, false, func(ctx context.Context, workDir string) (output.Report, error) {
				return commands.RunValidate(ctx, workDir, commands.ValidateOptions{
					Profiles: args,
					Logger:   buildLogger(state.global.verbose),
				})
			})
		},
	}
}

func newPullCommand(app AppContext, state *executionState) *cobra.Command {
	var options commands.PullOptions

	cmd := &cobra.Command{
		Use:   "pull [profiles...]",
		Short: "Overwrite local profiles with the org copies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, app, state, contracts.CommandPull, false, func(ctx context.Context, workDir string) (output.Report, error) {
				options.Profiles = args
				options.Runtime = runtimeOptions(state)
				return commands.RunPull(ctx, workDir, options)
			})
		},
	}

	cmd.Flags().StringVar(&options.Source, "source", "", "org alias to pull from")
	cmd.Flags().BoolVar(&options.SkipBackup, "skip-backup", false, "overwrite without backups")

	return cmd
}

func newListCommand(app AppContext, state *executionState) *cobra.Command {
	var options commands.ListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List remote profiles for an org",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, app, state, contracts.CommandList, false, func(ctx context.Context, workDir string) (output.Report, error) {
				options.Runtime = runtimeOptions(state)
				return commands.RunList(ctx, workDir, options)
			})
		},
	}

	cmd.Flags().StringVar(&options.Source, "source", "", "org alias to list")

	return cmd
}

type commandRun func(ctx context.Context, workDir string) (output.Report, error)

// execute is the shared command shell: lock middleware, timing, envelope
// rendering, and exit-code mapping.
func execute(cmd *cobra.Command, app AppContext, state *executionState, name contracts.CommandName, dryRun bool, run commandRun) error {
	state.commandName = string(name)
	state.dryRun = dryRun

	workDir := state.global.project
	if workDir == "" {
		workDir = app.WorkDir
	}

	locker := lock.NewFileLock(
		filepath.Join(workDir, contracts.DefaultLockFilePath),
		lock.Options{Command: string(name)},
	)

	start := app.Now()
	var report output.Report
	runner := middleware.WithCommandLock(name, locker, func(ctx context.Context) error {
		var runErr error
		report, runErr = run(ctx, workDir)
		return runErr
	})
	runErr := runner(cmd.Context())

	if report.CommandName == "" {
		report.CommandName = string(name)
	}
	report.DryRun = report.DryRun || dryRun

	duration := app.Now().Sub(start)
	if err := output.Write(state.outputMode(), app.Stdout, app.Stderr, report, duration, runErr); err != nil {
		return err
	}

	code := output.ResolveExitCode(report, runErr)
	if code == contracts.ExitCodeSuccess {
		return nil
	}
	return &codedExitError{Code: code}
}

func runtimeOptions(state *executionState) commands.RuntimeOptions {
	return commands.RuntimeOptions{
		Logger: buildLogger(state.global.verbose),
	}
}

func buildLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func normalizeAppContext(app AppContext) AppContext {
	if app.Now == nil {
		app.Now = time.Now
	}
	if app.WorkDir == "" {
		if wd, err := os.Getwd(); err == nil {
			app.WorkDir = wd
		} else {
			app.WorkDir = "."
		}
	}
	return app
}

type codedExitError struct {
	Code contracts.ExitCode
}

func (err codedExitError) Error() string {
	return fmt.Sprintf("exit with code %d", err.Code)
}
