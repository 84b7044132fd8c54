// Package cli implements the craftgen commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/craftgen/craftgen/internal/app"
)

var opts app.Options

var rootCmd = &cobra.Command{
	Use:   "craftgen",
	Short: "Craftgen desktop shell",
	Long: `Craftgen runs the desktop shell: a tray icon, the main window and the
bundled edge runtime that serves the app's functions locally.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Run(opts)
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().BoolVar(&opts.Minimized, "minimized", false, "Start without showing the main window")
	rootCmd.Flags().BoolVar(&opts.Foreground, "foreground", false, "Run without the system tray, logging to stderr")
	rootCmd.Flags().StringVar(&opts.LogLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")

	// Add subcommands (alphabetical)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}
