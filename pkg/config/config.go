package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"

	"orgbot/pkg/github"
)

// Config represents the orgbot configuration. Values come from an optional
// YAML file with environment variables taking precedence, so tokens can
// stay out of files entirely.
type Config struct {
	GitHub   GitHubConfig   `yaml:"github"`
	TeamData TeamDataConfig `yaml:"team_data"`
	Labeler  LabelerConfig  `yaml:"labeler"`
}

// GitHubConfig represents GitHub API access configuration
type GitHubConfig struct {
	Token string `yaml:"token" env:"GITHUB_TOKEN"`
	Org   string `yaml:"org" env:"GITHUB_ORG"`
	Repo  string `yaml:"repo" env:"GITHUB_REPO"`
}

// TeamDataConfig locates the declarative team-data file. When Repo is set
// the file is fetched from that repository through the API (with Token, if
// the repository needs different credentials); otherwise Path is read from
// the local filesystem.
type TeamDataConfig struct {
	Repo  string `yaml:"repo" env:"TEAM_DATA_REPO"`
	Path  string `yaml:"path" env:"TEAM_DATA_PATH" env-default:"teams.yml"`
	Ref   string `yaml:"ref" env:"TEAM_DATA_REF"`
	Token string `yaml:"token" env:"TEAM_DATA_TOKEN"`
}

// LabelerConfig locates the labeling rules file inside the target
// repository.
type LabelerConfig struct {
	ConfigPath string `yaml:"config_path" env:"LABELER_CONFIG_PATH" env-default:".github/labeler.yml"`
}

// Load loads configuration from the given path, falling back to
// environment variables only when the file does not exist.
func Load(path string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config %q: %w", path, err)
	}

	return &cfg, nil
}

// ValidateSync checks the fields the teams sync command needs.
func (c *Config) ValidateSync() error {
	if c.GitHub.Token == "" {
		return fmt.Errorf("GitHub token is required: set GITHUB_TOKEN or github.token")
	}
	if c.GitHub.Org == "" {
		return fmt.Errorf("organization is required: set GITHUB_ORG or github.org")
	}
	if c.TeamData.Path == "" {
		return fmt.Errorf("team data path is required: set TEAM_DATA_PATH or team_data.path")
	}
	if c.TeamData.Repo != "" {
		if _, err := ParseRepo(c.TeamData.Repo); err != nil {
			return fmt.Errorf("invalid team data repo: %w", err)
		}
	}
	return nil
}

// ValidateLabel checks the fields the pr label command needs.
func (c *Config) ValidateLabel() error {
	if c.GitHub.Token == "" {
		return fmt.Errorf("GitHub token is required: set GITHUB_TOKEN or github.token")
	}
	if c.GitHub.Repo == "" {
		return fmt.Errorf("repository is required: set GITHUB_REPO or github.repo")
	}
	if _, err := ParseRepo(c.GitHub.Repo); err != nil {
		return fmt.Errorf("invalid repository: %w", err)
	}
	return nil
}

// ParseRepo parses an owner/name repository reference.
func ParseRepo(s string) (github.Repo, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return github.Repo{}, fmt.Errorf("repository must be in owner/name form, got %q", s)
	}
	return github.Repo{Owner: parts[0], Name: parts[1]}, nil
}
