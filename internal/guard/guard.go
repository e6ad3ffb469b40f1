// Package guard enforces at most one in-flight pipeline run per concurrency
// key. Starting a run for a key that already has one cancels the prior run's
// context; the cancelled run's processes die with it and no cleanup of its
// partial side effects is attempted.
package guard

import (
	"context"
	"errors"
	"sync"
)

// Key scopes mutual exclusion between runs, conventionally "workflow/branch".
type Key string

func NewKey(workflow, branch string) Key {
	return Key(workflow + "/" + branch)
}

type handle struct {
	id     uint64
	cancel context.CancelCauseFunc
}

type Guard struct {
	mu     sync.Mutex
	nextID uint64
	active map[Key]*handle
}

func New() *Guard {
	return &Guard{
		active: make(map[Key]*handle),
	}
}

// ErrSuperseded is the cancellation cause installed when a newer run takes
// over a key.
var ErrSuperseded = errors.New("run superseded by a newer run for the same key")

// Acquire registers a new run for key, cancelling any run currently holding
// it. The returned context is derived from ctx and is cancelled if a later
// run acquires the same key. The release func must be called when the run
// finishes; it is a no-op if the run has already been superseded.
func (g *Guard) Acquire(ctx context.Context, key Key) (context.Context, func()) {
	runCtx, cancel := context.WithCancelCause(ctx)

	g.mu.Lock()
	if prior, ok := g.active[key]; ok {
		prior.cancel(ErrSuperseded)
	}
	g.nextID++
	h := &handle{id: g.nextID, cancel: cancel}
	g.active[key] = h
	g.mu.Unlock()

	release := func() {
		g.mu.Lock()
		if current, ok := g.active[key]; ok && current.id == h.id {
			delete(g.active, key)
		}
		g.mu.Unlock()
		cancel(nil)
	}
	return runCtx, release
}

// Active reports whether a run currently holds key.
func (g *Guard) Active(key Key) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.active[key]
	return ok
}
