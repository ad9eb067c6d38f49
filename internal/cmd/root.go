package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for shotcheck
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shotcheck",
		Short: "Pull Android screenshots and verify them with a vision model",
		Long: `shotcheck pulls screenshots from an attached Android device and asks
a vision-language model whether each one shows the expected content.

A run wipes the local staging directory, copies the device screenshot
folder into it with adb, then sends every PNG to Gemini together with a
prompt. A screenshot passes when the model's answer mentions every
configured keyword.

Configuration is loaded from .shotcheck/config.yaml if present.
The Gemini API key is read from GEMINI_API_KEY or from a .env file.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		// main prints the error once, with the right exit code
		SilenceErrors: true,
	}

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewPullCommand())
	cmd.AddCommand(NewVerifyCommand())

	return cmd
}
