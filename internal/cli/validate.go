package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/synthplane/internal/harness"
)

// ValidationError is one file that failed to load.
type ValidationError struct {
	File    string `json:"file"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Files  int               `json:"files"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario>...",
		Short: "Check scenario files without running them",
		Long: `Check scenarios against the scenario schema and resolve their references.

Object names, step targets, property names and expectation fields are all
checked, as is the --config settings file when one is given. Nothing is
rendered.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, files []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			_ = formatter.Error(ErrCodeScenario, fmt.Sprintf("file not found: %s", f), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("file not found: %s", f))
		}
	}

	var errs []ValidationError
	if opts.Config != "" {
		formatter.VerboseLog("Validating config: %s", opts.Config)
		if _, err := opts.libraryConfig(); err != nil {
			errs = append(errs, ValidationError{File: opts.Config, Code: ErrCodeConfig, Message: err.Error()})
		}
	}
	for _, f := range files {
		formatter.VerboseLog("Validating scenario: %s", f)
		if _, err := harness.LoadScenario(f); err != nil {
			errs = append(errs, ValidationError{File: f, Code: ErrCodeScenario, Message: err.Error()})
		}
	}

	if len(errs) > 0 {
		return outputValidationErrors(formatter, len(files), errs)
	}
	return outputValidateSuccess(formatter, len(files))
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, files int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Files: files})
	}

	fmt.Fprintf(formatter.Writer, "✓ %d scenario(s) valid\n", files)
	return nil
}

// outputValidationErrors outputs every failed file.
func outputValidationErrors(formatter *OutputFormatter, files int, errs []ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Files:  files,
				Errors: errs,
			},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}
		if err := writeJSON(formatter.Writer, response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "%s\n  %s: %s\n\n", err.File, err.Code, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
