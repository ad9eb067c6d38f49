package cmd

import (
	"github.com/spf13/cobra"
)

// NewVerifyCommand creates the verify command
func NewVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify screenshots already in the staging directory",
		Long: `Send every screenshot in the staging directory to the vision model
without pulling from the device first. The staging directory is left
untouched.

Examples:
  shotcheck verify
  shotcheck verify --staging ./shots --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, phases{verify: true})
		},
	}

	addRunFlags(cmd)
	return cmd
}
