// Package config loads robota's two configuration layers: credentials and
// locations from the environment (with .env support), and operator
// preferences from ~/.robota/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alekspetrov/robota/internal/logging"
)

// Config is the fully loaded configuration.
type Config struct {
	Env         *Env
	Preferences *Preferences
}

// Preferences holds operator choices that are not secrets.
type Preferences struct {
	// BranchPrefix leads every work branch name. Defaults to the lower-cased
	// GitHub username.
	BranchPrefix string `yaml:"branch_prefix"`

	// CloneURL is a template with {org} and {repo} placeholders.
	CloneURL string `yaml:"clone_url"`

	// Editor and Terminal are argv templates. {path} / {dir} are replaced,
	// otherwise the target is appended.
	Editor             []string         `yaml:"editor"`
	Terminal           []string         `yaml:"terminal"`
	WorkspaceExtension string           `yaml:"workspace_extension"`
	Statuses           *StatusConfig    `yaml:"statuses"`
	Jira               *JiraPreferences `yaml:"jira"`
	Logging            *logging.Config  `yaml:"logging"`
}

// StatusConfig names the workflow states robota moves issues into.
type StatusConfig struct {
	InProgress string `yaml:"in_progress"`
	InReview   string `yaml:"in_review"`
}

// JiraPreferences tunes queries against the tracker.
type JiraPreferences struct {
	SprintField string `yaml:"sprint_field"`
	ListJQL     string `yaml:"list_jql"`
	SprintJQL   string `yaml:"sprint_jql"`
}

// DefaultPreferences returns preferences with every field populated.
func DefaultPreferences() *Preferences {
	return &Preferences{
		CloneURL:           "git@github.com:{org}/{repo}.git",
		Editor:             []string{"code"},
		Terminal:           defaultTerminal(runtime.GOOS),
		WorkspaceExtension: ".code-workspace",
		Statuses: &StatusConfig{
			InProgress: "In Progress",
			InReview:   "In Review",
		},
		Jira: &JiraPreferences{
			SprintField: "customfield_10020",
			ListJQL:     "assignee = currentUser() AND resolution = Unresolved ORDER BY priority DESC, updated DESC",
			SprintJQL:   "sprint in openSprints() ORDER BY Rank ASC",
		},
		Logging: logging.DefaultConfig(),
	}
}

func defaultTerminal(goos string) []string {
	switch goos {
	case "darwin":
		return []string{"open", "-a", "Terminal", "{dir}"}
	case "windows":
		return []string{"cmd", "/c", "start", "cmd", "/k", "cd", "/d", "{dir}"}
	default:
		return []string{"x-terminal-emulator", "--working-directory={dir}"}
	}
}

// DefaultPreferencesPath returns ~/.robota/config.yaml.
func DefaultPreferencesPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".robota", "config.yaml")
}

// LoadPreferences reads preferences from path. A missing file yields defaults.
func LoadPreferences(path string) (*Preferences, error) {
	prefs := DefaultPreferences()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return prefs, nil
		}
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), prefs); err != nil {
		return nil, fmt.Errorf("failed to parse preferences: %w", err)
	}

	if prefs.Logging != nil && prefs.Logging.Output != "" {
		prefs.Logging.Output = expandPath(prefs.Logging.Output)
	}

	return prefs, nil
}


// Validate checks the preferences for unusable values.
func (p *Preferences) Validate() error {
	if len(p.Editor) == 0 || p.Editor[0] == "" {
		return fmt.Errorf("editor command must not be empty")
	}
	if !strings.Contains(p.CloneURL, "{repo}") {
		return fmt.Errorf("clone_url %q must contain {repo}", p.CloneURL)
	}
	if p.WorkspaceExtension != "" && !strings.HasPrefix(p.WorkspaceExtension, ".") {
		return fmt.Errorf("workspace_extension %q must start with a dot", p.WorkspaceExtension)
	}
	if p.Statuses == nil || p.Statuses.InProgress == "" || p.Statuses.InReview == "" {
		return fmt.Errorf("statuses.in_progress and statuses.in_review are required")
	}
	if p.Jira == nil || p.Jira.SprintField == "" {
		return fmt.Errorf("jira.sprint_field is required")
	}
	return nil
}

// CloneURLFor renders the clone URL template for org/repo.
func (p *Preferences) CloneURLFor(org, repo string) string {
	return strings.NewReplacer("{org}", org, "{repo}", repo).Replace(p.CloneURL)
}

// Load reads both layers. Derived defaults that depend on the environment
// are filled in after both are read.
func Load(envFile, prefsPath string) (*Config, error) {
	e, err := LoadEnv(envFile, os.Environ())
	if err != nil {
		return nil, err
	}

	prefs, err := LoadPreferences(prefsPath)
	if err != nil {
		return nil, err
	}
	if prefs.BranchPrefix == "" {
		prefs.BranchPrefix = strings.ToLower(e.GitHubUsername)
	}
	if err := prefs.Validate(); err != nil {
		return nil, fmt.Errorf("invalid preferences in %s: %w", prefsPath, err)
	}

	return &Config{Env: e, Preferences: prefs}, nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
