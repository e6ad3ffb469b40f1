// Package execx abstracts external command execution so pipeline stages can
// be tested without spawning processes.
package execx

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"
)

// Command describes one invocation. Env entries are appended to the current
// process environment; Dir is the working directory ("" means inherit).
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string
}

type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes commands. Implementations must propagate ctx cancellation
// to the spawned process.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// LookPath resolves an executable name, abstracted for tests.
type LookPath func(name string) (string, error)

func SystemLookPath() LookPath {
	return exec.LookPath
}

// ExecRunner runs commands with exec.CommandContext.
type ExecRunner struct {
	// Timeout bounds each command when > 0.
	Timeout time.Duration
}

func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	} else if err != nil {
		res.ExitCode = -1
	}
	return res, err
}
