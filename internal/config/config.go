// Package config holds the pipeline configuration: a YAML file with
// environment-variable overrides for the values the hosting platform injects.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults mirror the plugin build this pipeline was written for.
const (
	DefaultWorkflow      = "build-plugin"
	DefaultBranch        = "main"
	DefaultPluginName    = "softaculous"
	DefaultUpstreamAPI   = "https://api.softaculous.com/v1"
	DefaultPythonVersion = "3.11"
	DefaultRequirements  = "requirements.txt"
	DefaultBuildScript   = "build_plugin.py"
	DefaultVersionFile   = "VERSION"
	DefaultBotName       = "softforge-bot"
	DefaultBotEmail      = "bot@softforge.dev"
	DefaultRemote        = "origin"
	DefaultMaxAttempts   = 3
	DefaultTokenEnv      = "FORGE_TOKEN"
	DefaultForgeAPIURL   = "https://api.github.com"
)

// DefaultExtras are installed after the requirements manifest, so their
// resolved versions may override manifest pins.
var DefaultExtras = []string{"requests", "pyyaml", "python-dotenv"}

type Config struct {
	Workflow      string   `yaml:"workflow"`
	DefaultBranch string   `yaml:"default_branch"`
	IgnorePaths   []string `yaml:"ignore_paths"`

	// RepoURL is the clone URL used by serve mode to materialize the
	// triggering commit. Empty means run against the existing workdir.
	RepoURL string `yaml:"repo_url"`

	Plugin  Plugin  `yaml:"plugin"`
	Python  Python  `yaml:"python"`
	Docker  Docker  `yaml:"docker"`
	Publish Publish `yaml:"publish"`
	Forge   Forge   `yaml:"forge"`
}

type Plugin struct {
	Name string `yaml:"name"`
	// UpstreamAPI is exported to the build script's environment; the
	// pipeline itself never calls it.
	UpstreamAPI string `yaml:"upstream_api"`
}

type Python struct {
	Version      string   `yaml:"version"`
	Requirements string   `yaml:"requirements"`
	Extras       []string `yaml:"extras"`
	BuildScript  string   `yaml:"build_script"`
	VersionFile  string   `yaml:"version_file"`
}

// Interpreter returns the pinned interpreter executable name.
func (p Python) Interpreter() string {
	return "python" + p.Version
}

type Docker struct {
	Executable     string `yaml:"executable"`
	PackageManager string `yaml:"package_manager"`
	Package        string `yaml:"package"`
	Service        string `yaml:"service"`
}

type Publish struct {
	BotName  string `yaml:"bot_name"`
	BotEmail string `yaml:"bot_email"`
	Remote   string `yaml:"remote"`

	// RequireChanges restores the legacy behavior of failing the run when
	// the build leaves a clean tree. Default is to skip the commit and
	// still publish the release.
	RequireChanges bool `yaml:"require_changes"`

	// IdempotentRelease treats an already-existing tag as success instead
	// of a duplicate-tag failure.
	IdempotentRelease bool `yaml:"idempotent_release"`

	// MaxAttempts bounds retries of the network-dependent publish steps
	// (push, release API). All other stages run exactly once.
	MaxAttempts int `yaml:"max_attempts"`
}

type Forge struct {
	APIBaseURL string `yaml:"api_base_url"`
	Repo       string `yaml:"repo"`
	TokenEnv   string `yaml:"token_env"`
}

// Load reads the YAML config at path (optional: "" yields pure defaults),
// applies environment overrides and fills defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Plugin.Name = envWithDefault("PLUGIN_NAME", c.Plugin.Name)
	c.Plugin.UpstreamAPI = envWithDefault("SOFTACULOUS_API", c.Plugin.UpstreamAPI)
	c.Python.Version = envWithDefault("PYTHON_VERSION", c.Python.Version)
	c.Forge.Repo = envWithDefault("FORGE_REPO", c.Forge.Repo)
	c.Forge.APIBaseURL = envWithDefault("FORGE_API_URL", c.Forge.APIBaseURL)
}

// Token reads the release-creation token from the environment. It is never
// stored on the Config so it cannot leak through config dumps or logs.
func (c *Config) Token() string {
	return os.Getenv(c.Forge.TokenEnv)
}

func (c *Config) Validate() error {
	if c.Workflow == "" {
		c.Workflow = DefaultWorkflow
	}
	if c.DefaultBranch == "" {
		c.DefaultBranch = DefaultBranch
	}
	if c.IgnorePaths == nil {
		c.IgnorePaths = []string{"*.md", "docs/**", "LICENSE"}
	}
	if c.Plugin.Name == "" {
		c.Plugin.Name = DefaultPluginName
	}
	if c.Plugin.UpstreamAPI == "" {
		c.Plugin.UpstreamAPI = DefaultUpstreamAPI
	}
	if c.Python.Version == "" {
		c.Python.Version = DefaultPythonVersion
	}
	if c.Python.Requirements == "" {
		c.Python.Requirements = DefaultRequirements
	}
	if c.Python.Extras == nil {
		c.Python.Extras = append([]string(nil), DefaultExtras...)
	}
	if c.Python.BuildScript == "" {
		c.Python.BuildScript = DefaultBuildScript
	}
	if c.Python.VersionFile == "" {
		c.Python.VersionFile = DefaultVersionFile
	}
	if c.Docker.Executable == "" {
		c.Docker.Executable = "docker"
	}
	if c.Docker.PackageManager == "" {
		c.Docker.PackageManager = "apt-get"
	}
	if c.Docker.Package == "" {
		c.Docker.Package = "docker.io"
	}
	if c.Docker.Service == "" {
		c.Docker.Service = "docker"
	}
	if c.Publish.BotName == "" {
		c.Publish.BotName = DefaultBotName
	}
	if c.Publish.BotEmail == "" {
		c.Publish.BotEmail = DefaultBotEmail
	}
	if c.Publish.Remote == "" {
		c.Publish.Remote = DefaultRemote
	}
	if c.Publish.MaxAttempts <= 0 {
		c.Publish.MaxAttempts = DefaultMaxAttempts
	}
	if c.Forge.APIBaseURL == "" {
		c.Forge.APIBaseURL = DefaultForgeAPIURL
	}
	if c.Forge.TokenEnv == "" {
		c.Forge.TokenEnv = DefaultTokenEnv
	}
	return nil
}

func envWithDefault(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	return defaultValue
}
