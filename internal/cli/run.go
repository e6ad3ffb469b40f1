package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/softforge/pipewright/internal/config"
	"github.com/softforge/pipewright/internal/pipeline"
)

type RunCmd struct{}

func NewRunCmd() *RunCmd {
	return &RunCmd{}
}

func (c *RunCmd) Command() *cobra.Command {
	var workdir string
	var branch string
	var commitSHA string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once against a local checkout, bypassing trigger filtering",
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, configPath, err := rootFlags(cmd)
			if err != nil {
				return err
			}
			log := newLogger(verbose)

			cfg, err := config.Load(configPath)
			if err != nil {
				log.Error("failed to load config", "error", err)
				return err
			}
			if branch == "" {
				branch = cfg.DefaultBranch
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			p, err := buildPipeline(log, cfg, workdir)
			if err != nil {
				log.Error("failed to assemble pipeline", "error", err)
				return err
			}
			return p.Run(ctx, pipeline.RunInput{Branch: branch, Commit: commitSHA})
		},
	}

	cmd.Flags().StringVar(&workdir, "workdir", ".", "working tree the pipeline operates on")
	cmd.Flags().StringVar(&branch, "branch", "", "branch to push to (default: the configured default branch)")
	cmd.Flags().StringVar(&commitSHA, "commit", "", "commit to check out before building (default: current HEAD)")

	return cmd
}
