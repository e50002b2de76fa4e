package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rehearse-dev/rehearse/internal/cli"
	"github.com/rehearse-dev/rehearse/internal/logging"
)

var runCmd = &cobra.Command{
	Use:   "run <flow-file>",
	Short: "Rehearse a flow interactively in the terminal",
	Long:  `Loads a flow file and walks it conversationally, one message per turn, with an in-memory engine.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plain, _ := cmd.Flags().GetBool("plain")
		noBanner, _ := cmd.Flags().GetBool("no-banner")
		levelFlag, _ := cmd.Flags().GetString("log-level")

		return cli.RunPreview(cmd.Context(), cli.PreviewOptions{
			FlowPath: args[0],
			Debug:    logging.ParseLevel(levelFlag) == slog.LevelDebug,
			Plain:    plain,
			NoBanner: noBanner,
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("plain", false, "Disable markdown rendering")
	runCmd.Flags().Bool("no-banner", false, "Skip the startup banner")
}
