package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/synthplane/internal/ir"
)

// VersionInfo is the JSON payload of the version command.
type VersionInfo struct {
	Version string `json:"version"`
	Major   int    `json:"major"`
	Minor   int    `json:"minor"`
	Patch   int    `json:"patch"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the engine version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rootOpts.Format == "json" {
				formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
				return formatter.Success(VersionInfo{
					Version: ir.EngineVersion,
					Major:   ir.VersionMajor,
					Minor:   ir.VersionMinor,
					Patch:   ir.VersionPatch,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synthplane %s\n", ir.EngineVersion)
			return nil
		},
	}
}
