package gitx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/softforge/pipewright/internal/execx"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGitx_ConfigureIdentity(t *testing.T) {
	t.Parallel()

	runner := execx.NewFakeRunner()
	g, err := New(discardLogger(), runner, "/work")
	require.NoError(t, err)

	require.NoError(t, g.ConfigureIdentity(context.Background(), "softforge-bot", "bot@softforge.dev"))
	require.Equal(t, []string{
		"git config user.name softforge-bot",
		"git config user.email bot@softforge.dev",
	}, runner.Calls())
}

func TestGitx_StageExactPaths(t *testing.T) {
	t.Parallel()

	runner := execx.NewFakeRunner()
	g, err := New(discardLogger(), runner, "/work")
	require.NoError(t, err)

	require.NoError(t, g.Stage(context.Background(), []string{"VERSION", "softaculous/plugin.json"}))
	require.Equal(t, []string{"git add -A -- VERSION softaculous/plugin.json"}, runner.Calls())

	require.NoError(t, g.Stage(context.Background(), nil))
	require.Len(t, runner.Calls(), 1, "staging nothing must not invoke git")
}

func TestGitx_CommitNothingToCommit(t *testing.T) {
	t.Parallel()

	runner := execx.NewFakeRunner()
	runner.Respond("git commit -m Build plugin version 2.3.1", execx.Result{
		ExitCode: 1,
		Stdout:   "On branch main\nnothing to commit, working tree clean\n",
	}, errors.New("exit status 1"))

	g, err := New(discardLogger(), runner, "/work")
	require.NoError(t, err)

	err = g.Commit(context.Background(), "Build plugin version 2.3.1")
	require.ErrorIs(t, err, ErrNothingToCommit)
}

func TestGitx_PushRejectedClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		stderr   string
		wantKind error
	}{
		{
			name:     "non fast forward",
			stderr:   " ! [rejected]        main -> main (non-fast-forward)",
			wantKind: ErrPushRejected,
		},
		{
			name:   "network failure is not a rejection",
			stderr: "fatal: unable to access 'https://forge/': Could not resolve host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			runner := execx.NewFakeRunner()
			runner.Respond("git push origin main",
				execx.Result{ExitCode: 1, Stderr: tt.stderr}, errors.New("exit status 1"))

			g, err := New(discardLogger(), runner, "/work")
			require.NoError(t, err)

			err = g.Push(context.Background(), "origin", "main")
			require.Error(t, err)
			if tt.wantKind != nil {
				require.ErrorIs(t, err, tt.wantKind)
			} else {
				require.NotErrorIs(t, err, ErrPushRejected)
			}
		})
	}
}
