// Package gitx wraps the git operations the publisher needs. It shells out
// to the git binary; the pipeline runs where git is guaranteed present and
// the exec path keeps credential and transport handling identical to what
// the hosting platform provisions.
package gitx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/softforge/pipewright/internal/execx"
)

var (
	// ErrNothingToCommit is returned when a commit is requested on a tree
	// with no staged changes.
	ErrNothingToCommit = errors.New("nothing to commit")

	// ErrPushRejected is returned for non-fast-forward and other remote
	// rejections. It is the retryable class of push failures.
	ErrPushRejected = errors.New("push rejected by remote")
)

type Git struct {
	log    *slog.Logger
	runner execx.Runner
	dir    string
}

func New(log *slog.Logger, runner execx.Runner, dir string) (*Git, error) {
	if log == nil {
		return nil, errors.New("logger is required")
	}
	if runner == nil {
		return nil, errors.New("command runner is required")
	}
	return &Git{log: log, runner: runner, dir: dir}, nil
}

func (g *Git) run(ctx context.Context, args ...string) (execx.Result, error) {
	return g.runner.Run(ctx, execx.Command{Name: "git", Args: args, Dir: g.dir})
}

// ConfigureIdentity sets the commit author for this clone only. Without it
// the subsequent commit has no identity on a fresh runner.
func (g *Git) ConfigureIdentity(ctx context.Context, name, email string) error {
	if _, err := g.run(ctx, "config", "user.name", name); err != nil {
		return fmt.Errorf("failed to set user.name: %w", err)
	}
	if _, err := g.run(ctx, "config", "user.email", email); err != nil {
		return fmt.Errorf("failed to set user.email: %w", err)
	}
	return nil
}

// Stage adds exactly the given paths, including deletions.
func (g *Git) Stage(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"add", "-A", "--"}, paths...)
	if _, err := g.run(ctx, args...); err != nil {
		return fmt.Errorf("failed to stage paths: %w", err)
	}
	return nil
}

func (g *Git) Commit(ctx context.Context, message string) error {
	res, err := g.run(ctx, "commit", "-m", message)
	if err != nil {
		out := res.Stdout + res.Stderr
		if strings.Contains(out, "nothing to commit") || strings.Contains(out, "nothing added to commit") {
			return ErrNothingToCommit
		}
		return fmt.Errorf("git commit failed: %w: %s", err, strings.TrimSpace(out))
	}
	return nil
}

func (g *Git) Push(ctx context.Context, remote, branch string) error {
	res, err := g.run(ctx, "push", remote, branch)
	if err != nil {
		out := strings.TrimSpace(res.Stderr)
		if strings.Contains(out, "non-fast-forward") || strings.Contains(out, "[rejected]") {
			return fmt.Errorf("%w: %s", ErrPushRejected, out)
		}
		return fmt.Errorf("git push failed: %w: %s", err, out)
	}
	g.log.Info("pushed", "remote", remote, "branch", branch)
	return nil
}
