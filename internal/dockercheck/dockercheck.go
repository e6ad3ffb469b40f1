// Package dockercheck verifies the container engine precondition before the
// build runs. A missing engine is installed through the system package
// manager and started as a service; a present engine is left untouched, so
// repeated runs on a provisioned sandbox are no-ops.
package dockercheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"

	"github.com/softforge/pipewright/internal/config"
	"github.com/softforge/pipewright/internal/execx"
)

// ErrPreconditionInstall classifies failures to install or start the engine.
var ErrPreconditionInstall = errors.New("container engine precondition failed")

// Pinger is the slice of the Docker SDK client the checker needs.
type Pinger interface {
	Ping(ctx context.Context) (types.Ping, error)
}

// NewDaemonPinger dials the local daemon the same way the docker CLI does.
func NewDaemonPinger() (Pinger, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return cli, nil
}

type Checker struct {
	log      *slog.Logger
	runner   execx.Runner
	lookPath execx.LookPath
	pinger   Pinger
	cfg      config.Docker
}

func New(log *slog.Logger, runner execx.Runner, lookPath execx.LookPath, pinger Pinger, cfg config.Docker) (*Checker, error) {
	if log == nil {
		return nil, errors.New("logger is required")
	}
	if runner == nil {
		return nil, errors.New("command runner is required")
	}
	if lookPath == nil {
		lookPath = execx.SystemLookPath()
	}
	return &Checker{log: log, runner: runner, lookPath: lookPath, pinger: pinger, cfg: cfg}, nil
}

// Ensure makes the engine available. It reports whether an installation was
// performed, which stays false on a pre-provisioned sandbox.
func (c *Checker) Ensure(ctx context.Context) (installed bool, err error) {
	if c.available(ctx) {
		c.log.Info("container engine present", "executable", c.cfg.Executable)
		return false, nil
	}

	c.log.Info("container engine absent, installing",
		"package_manager", c.cfg.PackageManager, "package", c.cfg.Package)
	if _, err := c.runner.Run(ctx, execx.Command{
		Name: c.cfg.PackageManager,
		Args: []string{"install", "-y", c.cfg.Package},
	}); err != nil {
		return false, fmt.Errorf("%w: install %s: %v", ErrPreconditionInstall, c.cfg.Package, err)
	}
	if _, err := c.runner.Run(ctx, execx.Command{
		Name: "systemctl",
		Args: []string{"start", c.cfg.Service},
	}); err != nil {
		return true, fmt.Errorf("%w: start service %s: %v", ErrPreconditionInstall, c.cfg.Service, err)
	}
	if _, err := c.runner.Run(ctx, execx.Command{
		Name: "systemctl",
		Args: []string{"enable", c.cfg.Service},
	}); err != nil {
		return true, fmt.Errorf("%w: enable service %s: %v", ErrPreconditionInstall, c.cfg.Service, err)
	}
	return true, nil
}

// available requires both the CLI on PATH and a responding daemon. The
// daemon check catches the installed-but-stopped case a bare PATH lookup
// would miss.
func (c *Checker) available(ctx context.Context) bool {
	if _, err := c.lookPath(c.cfg.Executable); err != nil {
		return false
	}
	if c.pinger == nil {
		return true
	}
	if _, err := c.pinger.Ping(ctx); err != nil {
		c.log.Debug("container engine on PATH but daemon not responding", "error", err)
		return false
	}
	return true
}
