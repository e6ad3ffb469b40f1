// Package pipeline sequences the run stages: provision, precondition check,
// build, publish. Stages run strictly in order; the first failure is
// terminal for the run and there is no compensating rollback.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/softforge/pipewright/internal/build"
)

type Stage string

const (
	StageProvision    Stage = "provision"
	StagePrecondition Stage = "precondition"
	StageBuild        Stage = "build"
	StagePublish      Stage = "publish"
)

// Stages lists the pipeline stages in execution order.
var Stages = []Stage{StageProvision, StagePrecondition, StageBuild, StagePublish}

type Provisioner interface {
	Provision(ctx context.Context, repoURL, dir, commit string) error
}

type PreconditionChecker interface {
	Ensure(ctx context.Context) (bool, error)
}

type Builder interface {
	Run(ctx context.Context, workdir string) (build.Result, error)
}

type Publisher interface {
	Publish(ctx context.Context, branch string, res build.Result) error
}

type Config struct {
	Workflow     string
	Workdir      string
	RepoURL      string
	Provisioner  Provisioner
	Precondition PreconditionChecker
	Builder      Builder
	Publisher    Publisher

	// Optional configuration.
	Clock clockwork.Clock
}

func (c *Config) Validate() error {
	if c.Workflow == "" {
		return errors.New("workflow name is required")
	}
	if c.Provisioner == nil {
		return errors.New("provisioner is required")
	}
	if c.Precondition == nil {
		return errors.New("precondition checker is required")
	}
	if c.Builder == nil {
		return errors.New("builder is required")
	}
	if c.Publisher == nil {
		return errors.New("publisher is required")
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	return nil
}

type Pipeline struct {
	log *slog.Logger
	cfg Config
}

func New(log *slog.Logger, cfg Config) (*Pipeline, error) {
	if log == nil {
		return nil, errors.New("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{log: log, cfg: cfg}, nil
}

// RunInput identifies what one run operates on.
type RunInput struct {
	Branch string
	Commit string
}

// Run executes one end-to-end pipeline run.
func (p *Pipeline) Run(ctx context.Context, in RunInput) error {
	log := p.log.With("workflow", p.cfg.Workflow, "branch", in.Branch)
	log.Info("run started", "commit", in.Commit)

	err := p.run(ctx, log, in)
	if err != nil {
		RunsTotal.WithLabelValues(p.cfg.Workflow, "failure").Inc()
		return err
	}
	RunsTotal.WithLabelValues(p.cfg.Workflow, "success").Inc()
	log.Info("run succeeded")
	return nil
}

func (p *Pipeline) run(ctx context.Context, log *slog.Logger, in RunInput) error {
	if err := p.stage(ctx, log, StageProvision, func(ctx context.Context) error {
		return p.cfg.Provisioner.Provision(ctx, p.cfg.RepoURL, p.cfg.Workdir, in.Commit)
	}); err != nil {
		return err
	}

	if err := p.stage(ctx, log, StagePrecondition, func(ctx context.Context) error {
		installed, err := p.cfg.Precondition.Ensure(ctx)
		if err == nil && installed {
			log.Info("container engine installed during run")
		}
		return err
	}); err != nil {
		return err
	}

	var res build.Result
	if err := p.stage(ctx, log, StageBuild, func(ctx context.Context) error {
		var err error
		res, err = p.cfg.Builder.Run(ctx, p.cfg.Workdir)
		return err
	}); err != nil {
		return err
	}

	return p.stage(ctx, log, StagePublish, func(ctx context.Context) error {
		return p.cfg.Publisher.Publish(ctx, in.Branch, res)
	})
}

func (p *Pipeline) stage(ctx context.Context, log *slog.Logger, stage Stage, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run cancelled before stage %s: %w", stage, context.Cause(ctx))
	}

	start := p.cfg.Clock.Now()
	log.Debug("stage started", "stage", stage)
	err := fn(ctx)
	elapsed := p.cfg.Clock.Since(start)
	StageDuration.WithLabelValues(p.cfg.Workflow, string(stage)).Observe(elapsed.Seconds())

	if err != nil {
		failure := Classify(err)
		RunFailuresTotal.WithLabelValues(p.cfg.Workflow, string(stage), string(failure)).Inc()
		log.Error("stage failed", "stage", stage, "failure", failure, "elapsed", elapsed, "error", err)
		return fmt.Errorf("stage %s: %w", stage, err)
	}
	log.Info("stage finished", "stage", stage, "elapsed", elapsed)
	return nil
}
