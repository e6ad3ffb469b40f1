package execx

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// FakeRunner records every command and answers from a table of canned
// responses keyed by "name arg0 arg1 ...". Commands without an entry succeed
// with empty output. Used by stage tests across the module.
type FakeRunner struct {
	mu        sync.Mutex
	calls     []Command
	responses map[string]FakeResponse
}

type FakeResponse struct {
	Result Result
	Err    error
}

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{responses: make(map[string]FakeResponse)}
}

func (f *FakeRunner) Respond(commandLine string, res Result, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[commandLine] = FakeResponse{Result: res, Err: err}
}

func (f *FakeRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{ExitCode: -1}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmd)
	if resp, ok := f.responses[CommandLine(cmd)]; ok {
		return resp.Result, resp.Err
	}
	return Result{}, nil
}

// Calls returns the command lines run so far, in order.
func (f *FakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		lines = append(lines, CommandLine(c))
	}
	return lines
}

func CommandLine(cmd Command) string {
	if len(cmd.Args) == 0 {
		return cmd.Name
	}
	return fmt.Sprintf("%s %s", cmd.Name, strings.Join(cmd.Args, " "))
}
