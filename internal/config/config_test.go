package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfig_Load_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "build-plugin", cfg.Workflow)
	require.Equal(t, "main", cfg.DefaultBranch)
	require.Equal(t, []string{"*.md", "docs/**", "LICENSE"}, cfg.IgnorePaths)
	require.Equal(t, "softaculous", cfg.Plugin.Name)
	require.Equal(t, "https://api.softaculous.com/v1", cfg.Plugin.UpstreamAPI)
	require.Equal(t, "python3.11", cfg.Python.Interpreter())
	require.Equal(t, []string{"requests", "pyyaml", "python-dotenv"}, cfg.Python.Extras)
	require.Equal(t, "build_plugin.py", cfg.Python.BuildScript)
	require.Equal(t, "VERSION", cfg.Python.VersionFile)
	require.Equal(t, "apt-get", cfg.Docker.PackageManager)
	require.Equal(t, 3, cfg.Publish.MaxAttempts)
	require.False(t, cfg.Publish.RequireChanges)
	require.False(t, cfg.Publish.IdempotentRelease)
	require.Equal(t, "FORGE_TOKEN", cfg.Forge.TokenEnv)
}

func TestConfig_Load_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipewright.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
workflow: nightly-build
default_branch: trunk
python:
  version: "3.12"
publish:
  idempotent_release: true
  max_attempts: 5
forge:
  repo: softforge/softaculous-plugin
`), 0o644))

	t.Setenv("PYTHON_VERSION", "3.13")
	t.Setenv("PLUGIN_NAME", "webuzo")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "nightly-build", cfg.Workflow)
	require.Equal(t, "trunk", cfg.DefaultBranch)
	require.Equal(t, "python3.13", cfg.Python.Interpreter(), "env must override file")
	require.Equal(t, "webuzo", cfg.Plugin.Name)
	require.True(t, cfg.Publish.IdempotentRelease)
	require.Equal(t, 5, cfg.Publish.MaxAttempts)
	require.Equal(t, "softforge/softaculous-plugin", cfg.Forge.Repo)
}

func TestConfig_Load_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorContains(t, err, "failed to read config file")
}

func TestConfig_TokenComesFromEnvOnly(t *testing.T) {
	t.Setenv("FORGE_TOKEN", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "s3cret", cfg.Token())
}
