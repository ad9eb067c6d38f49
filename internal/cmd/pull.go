package cmd

import (
	"github.com/spf13/cobra"
)

// NewPullCommand creates the pull command
func NewPullCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Pull screenshots from the device without verifying them",
		Long: `Delete and recreate the staging directory, then copy the device
screenshot folder into it with adb. The device is never modified.

Examples:
  shotcheck pull
  shotcheck pull --serial emulator-5554 --staging ./shots`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, phases{retrieve: true})
		},
	}

	addRunFlags(cmd)
	return cmd
}
