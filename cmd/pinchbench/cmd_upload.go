package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pinchbench/pinchbench/internal/leaderboard"
)

var (
	uploadServerURL string
	uploadToken     string
	uploadDryRun    bool
)

func newUploadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <results.json>",
		Short: "Upload a results file to the leaderboard",
		Args:  cobra.ExactArgs(1),
		RunE:  uploadCommandE,
	}

	cmd.Flags().StringVar(&uploadServerURL, "server", "", "Leaderboard server URL (default: PINCHBENCH_SERVER_URL or production)")
	cmd.Flags().StringVar(&uploadToken, "token", "", "Auth token (default: PINCHBENCH_TOKEN or saved config)")
	cmd.Flags().BoolVar(&uploadDryRun, "dry-run", false, "Build and validate the payload without sending it")

	return cmd
}

func uploadCommandE(cmd *cobra.Command, args []string) error {
	client := &leaderboard.Client{
		ServerURL: uploadServerURL,
		Token:     uploadToken,
		Version:   version,
	}

	result, err := client.Upload(cmd.Context(), args[0], uploadDryRun)
	if err != nil {
		return err
	}
	printUploadResult(cmd.OutOrStdout(), result)
	return nil
}

var registerServerURL string

func newRegisterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Request a leaderboard token and save it locally",
		RunE:  registerCommandE,
	}

	cmd.Flags().StringVar(&registerServerURL, "server", "", "Leaderboard server URL (default: PINCHBENCH_SERVER_URL or production)")

	return cmd
}

func registerCommandE(cmd *cobra.Command, args []string) error {
	client := &leaderboard.Client{ServerURL: registerServerURL, Version: version}

	token, claimURL, err := client.Register(cmd.Context())
	if err != nil {
		return err
	}

	path, err := leaderboard.SaveToken(token, claimURL)
	if err != nil {
		return fmt.Errorf("token received but not saved: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Token saved to %s\n", path)
	if claimURL != "" {
		fmt.Fprintf(w, "Claim your submissions at %s\n", claimURL)
	}
	return nil
}
