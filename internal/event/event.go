// Package event defines the repository events that can start a pipeline run.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

type Type string

const (
	TypePush        Type = "push"
	TypePullRequest Type = "pull_request"
)

// Event is the hosting platform's notification that something happened to the
// repository. For pushes, Branch is the pushed branch; for pull requests it is
// the target branch. ChangedPaths is only populated for pushes.
type Event struct {
	Type         Type     `json:"type"`
	Branch       string   `json:"branch"`
	Commit       string   `json:"commit"`
	ChangedPaths []string `json:"changed_paths,omitempty"`
}

func (e *Event) Validate() error {
	switch e.Type {
	case TypePush, TypePullRequest:
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.Branch == "" {
		return errors.New("branch is required")
	}
	return nil
}

// Decode reads one JSON-encoded event from r.
func Decode(r io.Reader) (Event, error) {
	var ev Event
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ev); err != nil {
		return Event{}, fmt.Errorf("failed to decode event: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	return ev, nil
}
