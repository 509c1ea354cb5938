package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/synthplane/internal/engine"
	"github.com/roach88/synthplane/internal/harness"
	"github.com/roach88/synthplane/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string

	// RunIDs overrides the run id source (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.IDGenerator
}

// RunOutput is the JSON payload of the run command.
type RunOutput struct {
	Scenario string               `json:"scenario"`
	RunID    string               `json:"run_id"`
	Pass     bool                 `json:"pass"`
	Trace    []harness.TraceEvent `json:"trace"`
	Errors   []string             `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Execute a scenario",
		Long: `Execute one scenario against a headless context and print its trace.

Blocks are pulled one at a time, so the run is deterministic. With --db the
events and edge states are recorded in a SQLite trace store (created if it
does not exist) under a fresh run id, unless the scenario pins run_id.

Example:
  synthplane run ./scenarios/route_fade.yaml
  synthplane run --db ./trace.db ./scenarios/route_fade.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	cfg, err := opts.libraryConfig()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	logger := opts.logger(cfg)

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	runIDs := opts.RunIDs
	if runIDs == nil {
		runIDs = engine.UUIDv7Generator{}
	}
	runOpts := []harness.Option{
		harness.WithConfig(cfg),
		harness.WithLogger(logger),
		harness.WithRunIDGenerator(runIDs),
	}

	if opts.Database != "" {
		logger.Info("opening trace database", "path", opts.Database)
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		runOpts = append(runOpts, harness.WithStore(st))
	}

	logger.Debug("running scenario", "name", scenario.Name, "blocks", scenario.Blocks)
	result, err := harness.Run(scenario, runOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "scenario execution failed", err)
	}
	logger.Debug("scenario finished", slog.String("run_id", result.RunID), slog.Bool("pass", result.Pass))

	if opts.Format == "json" {
		return outputRunJSON(cmd, scenario.Name, opts.Database != "", result)
	}
	return outputRunText(cmd, scenario.Name, opts.Database != "", result)
}

func outputRunJSON(cmd *cobra.Command, name string, stored bool, result *harness.Result) error {
	response := CLIResponse{
		Status: "ok",
		Data: RunOutput{
			Scenario: name,
			RunID:    result.RunID,
			Pass:     result.Pass,
			Trace:    result.Trace,
			Errors:   result.Errors,
		},
	}
	if stored {
		response.RunID = result.RunID
	}
	if !result.Pass {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeScenarioFailed,
			Message: fmt.Sprintf("scenario %s failed", name),
			Details: result.Errors,
		}
	}

	if err := writeJSON(cmd.OutOrStdout(), response); err != nil {
		return err
	}
	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", name))
	}
	return nil
}

func outputRunText(cmd *cobra.Command, name string, stored bool, result *harness.Result) error {
	w := cmd.OutOrStdout()

	for _, ev := range result.Trace {
		fmt.Fprintf(w, "[%4d] %-5s %s\n", ev.Block, ev.Kind, ev.Detail)
	}
	fmt.Fprintln(w)
	if stored {
		fmt.Fprintf(w, "Run: %s\n", result.RunID)
	}

	if !result.Pass {
		fmt.Fprintf(w, "✗ %s\n", name)
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", name))
	}

	fmt.Fprintf(w, "✓ %s\n", name)
	return nil
}
