// Package cli wires the pipewright commands: serve (webhook daemon), run
// (one-shot pipeline), plan (stage and retry policy table) and version.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/softforge/pipewright/internal/logging"
)

type ExitCode int

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)

var (
	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func Run() ExitCode {
	rootCmd := &cobra.Command{
		Use:   "pipewright",
		Short: "Build-and-release pipeline runner for the Softaculous plugin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := cmd.Help()
			if err != nil {
				return fmt.Errorf("failed to show help: %w", err)
			}
			return nil
		},
	}

	var verbose bool
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "set debug logging level")

	var configPath string
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", envWithDefault("PIPEWRIGHT_CONFIG", ""), "path to the pipeline config file (env: PIPEWRIGHT_CONFIG)")

	rootCmd.AddCommand(
		NewServeCmd().Command(),
		NewRunCmd().Command(),
		NewPlanCmd().Command(),
		NewVersionCmd().Command(),
	)

	if err := rootCmd.Execute(); err != nil {
		return exitCodeError
	}

	return exitCodeSuccess
}

func newLogger(verbose bool) *slog.Logger {
	return logging.New(os.Stdout, verbose)
}

func rootFlags(cmd *cobra.Command) (verbose bool, configPath string, err error) {
	verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
	if err != nil {
		return false, "", fmt.Errorf("failed to get verbose flag: %w", err)
	}
	configPath, err = cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return false, "", fmt.Errorf("failed to get config flag: %w", err)
	}
	return verbose, configPath, nil
}

func envWithDefault(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	return defaultValue
}
