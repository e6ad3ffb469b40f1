// Package build runs the opaque plugin build script and harvests its output
// into a typed result, so the later stages consume an explicit value instead
// of rediscovering state from the working tree.
package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/softforge/pipewright/internal/config"
	"github.com/softforge/pipewright/internal/execx"
)

// ErrBuildScript classifies a non-zero exit from the build script.
var ErrBuildScript = errors.New("build script failed")

// Result is the build stage's contract with the publisher. Version carries
// the VERSION file contents ("" when the script left none; the publisher
// rejects that). Changed lists the working-tree paths the script touched.
type Result struct {
	Version string
	Changed []string
}

type Invoker struct {
	log    *slog.Logger
	runner execx.Runner
	py     config.Python
	plugin config.Plugin
}

func New(log *slog.Logger, runner execx.Runner, py config.Python, plugin config.Plugin) (*Invoker, error) {
	if log == nil {
		return nil, errors.New("logger is required")
	}
	if runner == nil {
		return nil, errors.New("command runner is required")
	}
	return &Invoker{log: log, runner: runner, py: py, plugin: plugin}, nil
}

// Run executes the build script with no arguments in workdir. The plugin
// name and upstream API base are passed through the environment; the
// pipeline itself never interprets them.
func (i *Invoker) Run(ctx context.Context, workdir string) (Result, error) {
	i.log.Info("running build script", "script", i.py.BuildScript, "plugin", i.plugin.Name)
	res, err := i.runner.Run(ctx, execx.Command{
		Name: i.py.Interpreter(),
		Args: []string{i.py.BuildScript},
		Dir:  workdir,
		Env: []string{
			"PLUGIN_NAME=" + i.plugin.Name,
			"SOFTACULOUS_API=" + i.plugin.UpstreamAPI,
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s exited %d: %v: %s",
			ErrBuildScript, i.py.BuildScript, res.ExitCode, err, lastLine(res.Stderr))
	}

	version := i.readVersion(workdir)
	changed, err := i.changedPaths(ctx, workdir)
	if err != nil {
		return Result{}, err
	}
	i.log.Info("build finished", "version", version, "changed_paths", len(changed))
	return Result{Version: version, Changed: changed}, nil
}

// readVersion returns the trimmed VERSION contents, or "" when the script
// left no usable file. Rejecting an empty version is the publisher's call.
func (i *Invoker) readVersion(workdir string) string {
	buf, err := os.ReadFile(filepath.Join(workdir, i.py.VersionFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(buf))
}

// changedPaths lists every added, modified or deleted path via
// `git status --porcelain`, so the publisher can stage exactly the build's
// output instead of the whole tree.
func (i *Invoker) changedPaths(ctx context.Context, workdir string) ([]string, error) {
	res, err := i.runner.Run(ctx, execx.Command{
		Name: "git",
		Args: []string{"status", "--porcelain"},
		Dir:  workdir,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: git status: %v", ErrBuildScript, err)
	}
	var paths []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		if len(line) < 4 {
			continue
		}
		path := strings.TrimSpace(line[3:])
		// Renames report "old -> new"; the new path is what gets staged.
		if _, after, ok := strings.Cut(path, " -> "); ok {
			path = after
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return lines[len(lines)-1]
}
