// Package provision prepares the execution sandbox for a pipeline run: the
// repository checkout, the pinned Python interpreter and the declared
// dependencies.
package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/softforge/pipewright/internal/config"
	"github.com/softforge/pipewright/internal/execx"
)

// ErrDependencyInstall classifies any provisioning failure. Installation
// failures are terminal; no retry is attempted.
var ErrDependencyInstall = errors.New("dependency installation failed")

type Provisioner struct {
	log      *slog.Logger
	runner   execx.Runner
	lookPath execx.LookPath
	py       config.Python
}

func New(log *slog.Logger, runner execx.Runner, lookPath execx.LookPath, py config.Python) (*Provisioner, error) {
	if log == nil {
		return nil, errors.New("logger is required")
	}
	if runner == nil {
		return nil, errors.New("command runner is required")
	}
	if lookPath == nil {
		lookPath = execx.SystemLookPath()
	}
	return &Provisioner{log: log, runner: runner, lookPath: lookPath, py: py}, nil
}

// Checkout materializes the repository at the triggering commit under dir.
// With an existing clone it fetches and resets instead of recloning.
func (p *Provisioner) Checkout(ctx context.Context, repoURL, dir, commit string) error {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		p.log.Info("cloning repository", "url", repoURL, "dir", dir)
		if _, err := p.runner.Run(ctx, execx.Command{
			Name: "git",
			Args: []string{"clone", repoURL, dir},
		}); err != nil {
			return fmt.Errorf("%w: git clone: %v", ErrDependencyInstall, err)
		}
	} else {
		if _, err := p.runner.Run(ctx, execx.Command{
			Name: "git",
			Args: []string{"fetch", "--all"},
			Dir:  dir,
		}); err != nil {
			return fmt.Errorf("%w: git fetch: %v", ErrDependencyInstall, err)
		}
	}
	if commit != "" {
		if _, err := p.runner.Run(ctx, execx.Command{
			Name: "git",
			Args: []string{"checkout", commit},
			Dir:  dir,
		}); err != nil {
			return fmt.Errorf("%w: git checkout %s: %v", ErrDependencyInstall, commit, err)
		}
	}
	return nil
}

// EnsureInterpreter verifies the pinned interpreter resolves on PATH.
func (p *Provisioner) EnsureInterpreter(ctx context.Context) error {
	interpreter := p.py.Interpreter()
	path, err := p.lookPath(interpreter)
	if err != nil {
		return fmt.Errorf("%w: interpreter %s not found on PATH", ErrDependencyInstall, interpreter)
	}
	p.log.Debug("interpreter resolved", "interpreter", interpreter, "path", path)
	return nil
}

// InstallDependencies installs the requirements manifest and then the
// explicit extras. The extras run in a second pip invocation on purpose:
// their resolved versions may upgrade pins from the manifest.
func (p *Provisioner) InstallDependencies(ctx context.Context, workdir string) error {
	interpreter := p.py.Interpreter()

	p.log.Info("installing requirements", "manifest", p.py.Requirements)
	res, err := p.runner.Run(ctx, execx.Command{
		Name: interpreter,
		Args: []string{"-m", "pip", "install", "-r", p.py.Requirements},
		Dir:  workdir,
	})
	if err != nil {
		return fmt.Errorf("%w: pip install -r %s: %v: %s", ErrDependencyInstall, p.py.Requirements, err, res.Stderr)
	}

	if len(p.py.Extras) > 0 {
		p.log.Info("installing extra packages", "packages", p.py.Extras)
		args := append([]string{"-m", "pip", "install"}, p.py.Extras...)
		res, err := p.runner.Run(ctx, execx.Command{
			Name: interpreter,
			Args: args,
			Dir:  workdir,
		})
		if err != nil {
			return fmt.Errorf("%w: pip install extras: %v: %s", ErrDependencyInstall, err, res.Stderr)
		}
	}
	return nil
}

// Provision runs the full provisioning sequence for one run.
func (p *Provisioner) Provision(ctx context.Context, repoURL, dir, commit string) error {
	if repoURL != "" {
		if err := p.Checkout(ctx, repoURL, dir, commit); err != nil {
			return err
		}
	}
	if err := p.EnsureInterpreter(ctx); err != nil {
		return err
	}
	return p.InstallDependencies(ctx, dir)
}
