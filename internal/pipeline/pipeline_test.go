package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/softforge/pipewright/internal/build"
	"github.com/softforge/pipewright/internal/dockercheck"
	"github.com/softforge/pipewright/internal/forge"
	"github.com/softforge/pipewright/internal/gitx"
	"github.com/softforge/pipewright/internal/provision"
	"github.com/softforge/pipewright/internal/release"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeStages struct {
	order []string

	provisionErr    error
	preconditionErr error
	buildErr        error
	buildRes        build.Result
	publishErr      error

	publishedBranch string
	publishedRes    build.Result
}

func (f *fakeStages) Provision(ctx context.Context, repoURL, dir, commit string) error {
	f.order = append(f.order, "provision")
	return f.provisionErr
}

func (f *fakeStages) Ensure(ctx context.Context) (bool, error) {
	f.order = append(f.order, "precondition")
	return false, f.preconditionErr
}

func (f *fakeStages) Run(ctx context.Context, workdir string) (build.Result, error) {
	f.order = append(f.order, "build")
	return f.buildRes, f.buildErr
}

func (f *fakeStages) Publish(ctx context.Context, branch string, res build.Result) error {
	f.order = append(f.order, "publish")
	f.publishedBranch = branch
	f.publishedRes = res
	return f.publishErr
}

func newPipeline(t *testing.T, f *fakeStages) *Pipeline {
	t.Helper()
	p, err := New(discardLogger(), Config{
		Workflow:     "build-plugin",
		Workdir:      "/work",
		Provisioner:  f,
		Precondition: f,
		Builder:      f,
		Publisher:    f,
		Clock:        clockwork.NewFakeClock(),
	})
	require.NoError(t, err)
	return p
}

func TestPipeline_StagesRunInOrder(t *testing.T) {
	t.Parallel()

	f := &fakeStages{buildRes: build.Result{Version: "2.3.1", Changed: []string{"VERSION"}}}
	p := newPipeline(t, f)

	require.NoError(t, p.Run(context.Background(), RunInput{Branch: "main", Commit: "abc123"}))
	require.Equal(t, []string{"provision", "precondition", "build", "publish"}, f.order)
	require.Equal(t, "main", f.publishedBranch)
	require.Equal(t, "2.3.1", f.publishedRes.Version)
}

func TestPipeline_FailureAbortsRemainingStages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		mutate      func(*fakeStages)
		wantOrder   []string
		wantFailure Failure
	}{
		{
			name:        "provision failure",
			mutate:      func(f *fakeStages) { f.provisionErr = provision.ErrDependencyInstall },
			wantOrder:   []string{"provision"},
			wantFailure: FailureDependencyInstall,
		},
		{
			name:        "precondition failure",
			mutate:      func(f *fakeStages) { f.preconditionErr = dockercheck.ErrPreconditionInstall },
			wantOrder:   []string{"provision", "precondition"},
			wantFailure: FailurePreconditionInstall,
		},
		{
			name:        "build failure",
			mutate:      func(f *fakeStages) { f.buildErr = build.ErrBuildScript },
			wantOrder:   []string{"provision", "precondition", "build"},
			wantFailure: FailureBuildScript,
		},
		{
			name:        "publish failure",
			mutate:      func(f *fakeStages) { f.publishErr = forge.ErrDuplicateTag },
			wantOrder:   []string{"provision", "precondition", "build", "publish"},
			wantFailure: FailureDuplicateTag,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := &fakeStages{buildRes: build.Result{Version: "1.0.0"}}
			tt.mutate(f)
			p := newPipeline(t, f)

			err := p.Run(context.Background(), RunInput{Branch: "main"})
			require.Error(t, err)
			require.Equal(t, tt.wantOrder, f.order)
			require.Equal(t, tt.wantFailure, Classify(err))
		})
	}
}

func TestPipeline_CancelledContextStopsBetweenStages(t *testing.T) {
	t.Parallel()

	f := &fakeStages{}
	p := newPipeline(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Run(ctx, RunInput{Branch: "main"})
	require.Error(t, err)
	require.Empty(t, f.order)
}

func TestPipeline_Classify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want Failure
	}{
		{provision.ErrDependencyInstall, FailureDependencyInstall},
		{dockercheck.ErrPreconditionInstall, FailurePreconditionInstall},
		{build.ErrBuildScript, FailureBuildScript},
		{release.ErrInvalidVersion, FailureInvalidVersion},
		{gitx.ErrNothingToCommit, FailureNothingToCommit},
		{gitx.ErrPushRejected, FailurePushRejected},
		{forge.ErrDuplicateTag, FailureDuplicateTag},
		{forge.ErrAuth, FailureAuth},
		{context.Canceled, FailureCancelled},
		{errors.New("disk full"), FailureInternal},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Classify(tt.err), "error %v", tt.err)
	}

	// Wrapped errors classify the same as their sentinel.
	wrapped := errors.Join(errors.New("stage publish"), gitx.ErrPushRejected)
	require.Equal(t, FailurePushRejected, Classify(wrapped))
}
