package cli

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/softforge/pipewright/internal/config"
	"github.com/softforge/pipewright/internal/pipeline"
	"github.com/softforge/pipewright/internal/server"
	"github.com/softforge/pipewright/internal/trigger"
)

type ServeCmd struct{}

func NewServeCmd() *ServeCmd {
	return &ServeCmd{}
}

func (c *ServeCmd) Command() *cobra.Command {
	var listenAddr string
	var metricsAddr string
	var workdir string
	var poolSize int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Receive repository events over HTTP and run the pipeline for each accepted one",
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

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if metricsAddr != "" {
				pipeline.BuildInfo.WithLabelValues(version, commit, date).Set(1)
				go func() {
					listener, err := net.Listen("tcp", metricsAddr)
					if err != nil {
						log.Error("failed to start prometheus metrics listener", "error", err)
						os.Exit(1)
					}
					log.Info("prometheus metrics server listening", "address", listener.Addr().String())
					mux := http.NewServeMux()
					mux.Handle("/metrics", promhttp.Handler())
					if err := http.Serve(listener, mux); err != nil {
						log.Error("prometheus metrics server failed", "error", err)
						os.Exit(1)
					}
				}()
			}

			p, err := buildPipeline(log, cfg, workdir)
			if err != nil {
				log.Error("failed to assemble pipeline", "error", err)
				return err
			}

			filter, err := trigger.NewFilter(cfg.DefaultBranch, cfg.IgnorePaths)
			if err != nil {
				return err
			}
			srv, err := server.New(log, server.Config{
				Workflow: cfg.Workflow,
				Filter:   filter,
				Runner:   p,
				PoolSize: poolSize,
			})
			if err != nil {
				return err
			}

			listener, err := net.Listen("tcp", listenAddr)
			if err != nil {
				log.Error("failed to listen", "address", listenAddr, "error", err)
				return err
			}
			return srv.Serve(ctx, listener)
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", ":8471", "address for the webhook endpoint")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address for prometheus metrics (empty disables)")
	cmd.Flags().StringVar(&workdir, "workdir", ".", "working tree the pipeline operates on")
	cmd.Flags().IntVar(&poolSize, "pool-size", 4, "maximum concurrent pipeline runs across branches")

	return cmd
}
