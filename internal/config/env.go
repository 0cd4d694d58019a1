package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

// Jira platforms.
const (
	PlatformCloud  = "cloud"
	PlatformServer = "server"
)

// Env holds credentials and locations read from the environment and .env.
type Env struct {
	JiraHost     string `env:"JIRA_HOST,required,notEmpty"`
	JiraEmail    string `env:"JIRA_EMAIL,required,notEmpty"`
	JiraAPIToken string `env:"JIRA_API_TOKEN,required,notEmpty"`
	JiraPlatform string `env:"JIRA_PLATFORM" envDefault:"cloud"`

	GitHubAPIKey   string   `env:"GITHUB_API_KEY,required,notEmpty"`
	GitHubUsername string   `env:"GITHUB_USERNAME,required,notEmpty"`
	GitHubOrg      string   `env:"GITHUB_ORG,required,notEmpty"`
	GitHubRepos    []string `env:"GITHUB_REPOS,required,notEmpty" envSeparator:","`
	GitHubAPIURL   string   `env:"GITHUB_API_URL" envDefault:"https://api.github.com"`

	CheckoutDir string `env:"CHECKOUT_DIR,required,notEmpty"`
	StateFile   string `env:"STATE_FILE,required,notEmpty"`
}

// DefaultEnvFile returns $ROBOTA_CODE_DIR/.env, or .env in the working
// directory when ROBOTA_CODE_DIR is unset.
func DefaultEnvFile() string {
	if dir := os.Getenv("ROBOTA_CODE_DIR"); dir != "" {
		return filepath.Join(expandPath(dir), ".env")
	}
	return ".env"
}

// LoadEnv reads envFile (a missing file is fine) and overlays environ, the
// process environment in KEY=VALUE form. Missing required values fail.
func LoadEnv(envFile string, environ []string) (*Env, error) {
	values, err := readDotEnv(envFile)
	if err != nil {
		return nil, err
	}
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			values[k] = v
		}
	}

	var e Env
	if err := env.ParseWithOptions(&e, env.Options{Environment: values}); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	e.GitHubRepos = cleanList(e.GitHubRepos)
	e.CheckoutDir = expandPath(e.CheckoutDir)
	e.StateFile = expandPath(e.StateFile)
	e.JiraHost = strings.TrimSuffix(e.JiraHost, "/")

	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

func readDotEnv(path string) (map[string]string, error) {
	values := make(map[string]string)
	if path == "" {
		return values, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return values, nil
		}
		return nil, fmt.Errorf("failed to stat env file: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	// viper lower-cases keys; environment names are upper case
	for key, val := range v.AllSettings() {
		values[strings.ToUpper(key)] = fmt.Sprint(val)
	}
	return values, nil
}

// Validate checks values that parse but make no sense.
func (e *Env) Validate() error {
	switch e.JiraPlatform {
	case PlatformCloud, PlatformServer:
	default:
		return fmt.Errorf("invalid JIRA_PLATFORM %q: must be %s or %s", e.JiraPlatform, PlatformCloud, PlatformServer)
	}
	if !filepath.IsAbs(e.CheckoutDir) {
		return fmt.Errorf("CHECKOUT_DIR must be an absolute path, got %q", e.CheckoutDir)
	}
	if len(e.GitHubRepos) == 0 {
		return fmt.Errorf("GITHUB_REPOS must list at least one repository")
	}
	return nil
}

func cleanList(items []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
