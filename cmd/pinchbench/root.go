package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pinchbench",
		Short: "PinchBench - benchmark openclaw agents against a shared task suite",
		Long: `PinchBench runs a suite of benchmark tasks against an openclaw agent,
grades each run (automated checks, an LLM judge, or a weighted blend of
both), and can submit the results to the shared leaderboard.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newTasksCommand())
	cmd.AddCommand(newUploadCommand())
	cmd.AddCommand(newRegisterCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
