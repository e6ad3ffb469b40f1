// Package release publishes a finished build: it commits and pushes the
// build's changes, then cuts a tagged release on the hosting platform.
package release

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/softforge/pipewright/internal/build"
	"github.com/softforge/pipewright/internal/config"
	"github.com/softforge/pipewright/internal/forge"
	"github.com/softforge/pipewright/internal/gitx"
)

// ErrInvalidVersion means the build left no usable VERSION artifact.
var ErrInvalidVersion = errors.New("VERSION artifact missing or empty after build")

type GitClient interface {
	ConfigureIdentity(ctx context.Context, name, email string) error
	Stage(ctx context.Context, paths []string) error
	Commit(ctx context.Context, message string) error
	Push(ctx context.Context, remote, branch string) error
}

type ForgeClient interface {
	TagExists(ctx context.Context, tag string) (bool, error)
	CreateRelease(ctx context.Context, rel forge.Release) error
}

type Config struct {
	Publish config.Publish

	// RetryInitialInterval seeds the exponential backoff for the
	// network-dependent steps (push, release API). Tests shrink it.
	RetryInitialInterval time.Duration
}

func (c *Config) Validate() error {
	if c.Publish.MaxAttempts <= 0 {
		c.Publish.MaxAttempts = config.DefaultMaxAttempts
	}
	if c.RetryInitialInterval <= 0 {
		c.RetryInitialInterval = time.Second
	}
	return nil
}

type Publisher struct {
	log   *slog.Logger
	git   GitClient
	forge ForgeClient
	cfg   Config
}

func New(log *slog.Logger, git GitClient, forgeClient ForgeClient, cfg Config) (*Publisher, error) {
	if log == nil {
		return nil, errors.New("logger is required")
	}
	if git == nil {
		return nil, errors.New("git client is required")
	}
	if forgeClient == nil {
		return nil, errors.New("forge client is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Publisher{log: log, git: git, forge: forgeClient, cfg: cfg}, nil
}

// Publish runs the three publisher sub-steps in order: identity, commit &
// push, release creation. A failed step aborts the rest; a pushed commit is
// never rolled back if release creation fails afterwards.
func (p *Publisher) Publish(ctx context.Context, branch string, res build.Result) error {
	if res.Version == "" {
		return ErrInvalidVersion
	}

	if err := p.git.ConfigureIdentity(ctx, p.cfg.Publish.BotName, p.cfg.Publish.BotEmail); err != nil {
		return err
	}

	if err := p.commitAndPush(ctx, branch, res); err != nil {
		return err
	}

	return p.createRelease(ctx, res.Version)
}

func (p *Publisher) commitAndPush(ctx context.Context, branch string, res build.Result) error {
	if len(res.Changed) == 0 {
		if p.cfg.Publish.RequireChanges {
			return fmt.Errorf("%w: build produced no changes", gitx.ErrNothingToCommit)
		}
		p.log.Info("build produced no changes, skipping commit and push", "version", res.Version)
		return nil
	}

	if err := p.git.Stage(ctx, res.Changed); err != nil {
		return err
	}
	message := fmt.Sprintf("Build plugin version %s", res.Version)
	if err := p.git.Commit(ctx, message); err != nil {
		if errors.Is(err, gitx.ErrNothingToCommit) && !p.cfg.Publish.RequireChanges {
			// Staged paths collapsed to no diff; same policy as an
			// empty change list.
			p.log.Info("staged paths produced no diff, skipping push", "version", res.Version)
			return nil
		}
		return err
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, p.git.Push(ctx, p.cfg.Publish.Remote, branch)
	}, p.retryOpts()...)
	if err != nil {
		return fmt.Errorf("push to %s/%s failed after %d attempts: %w",
			p.cfg.Publish.Remote, branch, p.cfg.Publish.MaxAttempts, err)
	}
	return nil
}

func (p *Publisher) createRelease(ctx context.Context, version string) error {
	tag := "v" + version
	title := fmt.Sprintf("Release %s", tag)

	exists, err := p.forge.TagExists(ctx, tag)
	if err != nil {
		return err
	}
	if exists {
		if p.cfg.Publish.IdempotentRelease {
			p.log.Info("release already exists, treating as success", "tag", tag)
			return nil
		}
		return fmt.Errorf("%w: %s", forge.ErrDuplicateTag, tag)
	}

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		err := p.forge.CreateRelease(ctx, forge.Release{Tag: tag, Title: title, Notes: title})
		if errors.Is(err, forge.ErrDuplicateTag) || errors.Is(err, forge.ErrAuth) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, p.retryOpts()...)
	if err != nil {
		return err
	}
	p.log.Info("release created", "tag", tag, "title", title)
	return nil
}

func (p *Publisher) retryOpts() []backoff.RetryOption {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.cfg.RetryInitialInterval
	return []backoff.RetryOption{
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(p.cfg.Publish.MaxAttempts)),
	}
}
