// Package trigger decides whether a repository event should start a pipeline
// run. Pushes to the default branch run unless every changed path matches an
// ignore glob; pull requests targeting the default branch always run.
package trigger

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/softforge/pipewright/internal/event"
)

// DefaultIgnorePaths skips documentation-only pushes.
var DefaultIgnorePaths = []string{"*.md", "docs/**", "LICENSE"}

type Filter struct {
	defaultBranch string
	ignorePaths   []string
}

func NewFilter(defaultBranch string, ignorePaths []string) (*Filter, error) {
	if defaultBranch == "" {
		return nil, fmt.Errorf("default branch is required")
	}
	for _, pattern := range ignorePaths {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid ignore glob %q", pattern)
		}
	}
	return &Filter{
		defaultBranch: defaultBranch,
		ignorePaths:   ignorePaths,
	}, nil
}

// Decide returns true when the event should start a run.
func (f *Filter) Decide(ev event.Event) bool {
	if ev.Branch != f.defaultBranch {
		return false
	}
	switch ev.Type {
	case event.TypePullRequest:
		// No path filtering for pull requests.
		return true
	case event.TypePush:
		for _, path := range ev.ChangedPaths {
			if !f.ignored(path) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func (f *Filter) ignored(path string) bool {
	for _, pattern := range f.ignorePaths {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}
