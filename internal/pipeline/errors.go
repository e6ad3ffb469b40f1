package pipeline

import (
	"context"
	"errors"

	"github.com/softforge/pipewright/internal/build"
	"github.com/softforge/pipewright/internal/dockercheck"
	"github.com/softforge/pipewright/internal/forge"
	"github.com/softforge/pipewright/internal/gitx"
	"github.com/softforge/pipewright/internal/guard"
	"github.com/softforge/pipewright/internal/provision"
	"github.com/softforge/pipewright/internal/release"
)

// Failure is the coarse classification of a terminal run error, used for
// logging and as a metric label. Trigger mismatches are not failures; a
// skipped event never reaches the pipeline.
type Failure string

const (
	FailureDependencyInstall   Failure = "dependency_install"
	FailurePreconditionInstall Failure = "precondition_install"
	FailureBuildScript         Failure = "build_script"
	FailureInvalidVersion      Failure = "invalid_version"
	FailureNothingToCommit     Failure = "nothing_to_commit"
	FailurePushRejected        Failure = "push_rejected"
	FailureDuplicateTag        Failure = "duplicate_tag"
	FailureAuth                Failure = "auth"
	FailureCancelled           Failure = "cancelled"
	FailureInternal            Failure = "internal"
)

// Classify maps a run error onto the failure taxonomy.
func Classify(err error) Failure {
	switch {
	case errors.Is(err, provision.ErrDependencyInstall):
		return FailureDependencyInstall
	case errors.Is(err, dockercheck.ErrPreconditionInstall):
		return FailurePreconditionInstall
	case errors.Is(err, build.ErrBuildScript):
		return FailureBuildScript
	case errors.Is(err, release.ErrInvalidVersion):
		return FailureInvalidVersion
	case errors.Is(err, gitx.ErrNothingToCommit):
		return FailureNothingToCommit
	case errors.Is(err, gitx.ErrPushRejected):
		return FailurePushRejected
	case errors.Is(err, forge.ErrDuplicateTag):
		return FailureDuplicateTag
	case errors.Is(err, forge.ErrAuth):
		return FailureAuth
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, guard.ErrSuperseded):
		return FailureCancelled
	default:
		return FailureInternal
	}
}
