package cli

import (
	"errors"
	"log/slog"
	"time"

	"github.com/softforge/pipewright/internal/build"
	"github.com/softforge/pipewright/internal/config"
	"github.com/softforge/pipewright/internal/dockercheck"
	"github.com/softforge/pipewright/internal/execx"
	"github.com/softforge/pipewright/internal/forge"
	"github.com/softforge/pipewright/internal/gitx"
	"github.com/softforge/pipewright/internal/pipeline"
	"github.com/softforge/pipewright/internal/provision"
	"github.com/softforge/pipewright/internal/release"
)

// buildPipeline assembles the four run stages against the real command
// runner, docker daemon and forge API.
func buildPipeline(log *slog.Logger, cfg *config.Config, workdir string) (*pipeline.Pipeline, error) {
	runner := &execx.ExecRunner{Timeout: 30 * time.Minute}
	lookPath := execx.SystemLookPath()

	provisioner, err := provision.New(log, runner, lookPath, cfg.Python)
	if err != nil {
		return nil, err
	}

	pinger, err := dockercheck.NewDaemonPinger()
	if err != nil {
		// Fall back to the PATH-only check; the docker socket may not
		// exist before the install step runs.
		log.Debug("docker daemon not reachable yet", "error", err)
		pinger = nil
	}
	checker, err := dockercheck.New(log, runner, lookPath, pinger, cfg.Docker)
	if err != nil {
		return nil, err
	}

	builder, err := build.New(log, runner, cfg.Python, cfg.Plugin)
	if err != nil {
		return nil, err
	}

	if cfg.Forge.Repo == "" {
		return nil, errors.New("forge.repo is required (owner/name)")
	}
	forgeClient, err := forge.NewClient(cfg.Forge.APIBaseURL, cfg.Forge.Repo, cfg.Token())
	if err != nil {
		return nil, err
	}
	git, err := gitx.New(log, runner, workdir)
	if err != nil {
		return nil, err
	}
	publisher, err := release.New(log, git, forgeClient, release.Config{Publish: cfg.Publish})
	if err != nil {
		return nil, err
	}

	return pipeline.New(log, pipeline.Config{
		Workflow:     cfg.Workflow,
		Workdir:      workdir,
		RepoURL:      cfg.RepoURL,
		Provisioner:  provisioner,
		Precondition: checker,
		Builder:      builder,
		Publisher:    publisher,
	})
}
