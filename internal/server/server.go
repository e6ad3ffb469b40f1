// Package server exposes the webhook endpoint that turns repository events
// into pipeline runs. Events pass the trigger filter, take their concurrency
// key in the guard, and execute on a bounded worker pool.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/alitto/pond/v2"

	"github.com/softforge/pipewright/internal/guard"
	"github.com/softforge/pipewright/internal/pipeline"
	"github.com/softforge/pipewright/internal/trigger"
)

const (
	defaultPoolSize        = 4
	defaultShutdownTimeout = 10 * time.Second
)

// Runner is the slice of pipeline.Pipeline the server needs.
type Runner interface {
	Run(ctx context.Context, in pipeline.RunInput) error
}

type Config struct {
	Workflow string
	Filter   *trigger.Filter
	Runner   Runner

	// Optional configuration.
	Guard           *guard.Guard
	PoolSize        int
	ShutdownTimeout time.Duration
}

func (c *Config) Validate() error {
	if c.Workflow == "" {
		return errors.New("workflow name is required")
	}
	if c.Filter == nil {
		return errors.New("trigger filter is required")
	}
	if c.Runner == nil {
		return errors.New("runner is required")
	}
	if c.Guard == nil {
		c.Guard = guard.New()
	}
	if c.PoolSize <= 0 {
		c.PoolSize = defaultPoolSize
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	return nil
}

type Server struct {
	log *slog.Logger
	cfg Config

	handler *Handler
	pool    pond.Pool

	httpSrv      *http.Server
	shutdownOnce sync.Once
}

func New(log *slog.Logger, cfg Config) (*Server, error) {
	if log == nil {
		return nil, errors.New("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		log:  log,
		cfg:  cfg,
		pool: pond.NewPool(cfg.PoolSize),
	}
	s.handler = NewHandler(log, cfg.Workflow, cfg.Filter, s.dispatch)
	return s, nil
}

// dispatch takes the concurrency key for the event's branch and hands the
// run to the pool. Acquire happens here, not on the worker, so a newer
// event supersedes an older queued run even before it starts.
func (s *Server) dispatch(baseCtx context.Context, in pipeline.RunInput) {
	key := guard.NewKey(s.cfg.Workflow, in.Branch)
	runCtx, release := s.cfg.Guard.Acquire(baseCtx, key)
	_ = s.pool.Submit(func() {
		defer release()
		if err := s.cfg.Runner.Run(runCtx, in); err != nil {
			s.log.Error("run failed", "branch", in.Branch, "error", err)
		}
	})
}

func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	mux := http.NewServeMux()
	s.handler.Register(mux)

	s.httpSrv = &http.Server{
		Handler: mux,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()
		s.shutdown()
	}()

	s.log.Info("webhook server listening", "address", listener.Addr().String())
	err := s.httpSrv.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) shutdown() {
	s.shutdownOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if s.httpSrv != nil {
			_ = s.httpSrv.Shutdown(ctx)
		}
		s.pool.StopAndWait()
	})
}
