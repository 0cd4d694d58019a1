// Package health checks that the tools and paths robota depends on are
// usable. It backs the doctor command.
package health

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/alekspetrov/robota/internal/config"
)

// Status represents a check outcome
type Status int

const (
	StatusOK Status = iota
	StatusWarning
	StatusError
)

// Check represents a health check result
type Check struct {
	Name    string
	Status  Status
	Message string
	Fix     string
}

// Report contains all health check results
type Report struct {
	Checks []Check
}

// OK reports whether no check failed. Warnings are tolerated.
func (r *Report) OK() bool {
	for _, c := range r.Checks {
		if c.Status == StatusError {
			return false
		}
	}
	return true
}

// Checker runs the checks. lookPath and version are replaceable for tests.
type Checker struct {
	lookPath func(string) (string, error)
	version  func(ctx context.Context, cmd string, args ...string) string
}

// NewChecker returns a Checker using the real PATH.
func NewChecker() *Checker {
	return &Checker{lookPath: exec.LookPath, version: getCommandVersion}
}

// Run performs all checks for cfg.
func (c *Checker) Run(ctx context.Context, cfg *config.Config) *Report {
	report := &Report{}
	report.Checks = append(report.Checks, c.checkGit(ctx))
	report.Checks = append(report.Checks,
		c.checkCommand("editor", cfg.Preferences.Editor, StatusError),
		c.checkCommand("terminal", cfg.Preferences.Terminal, StatusWarning),
		checkCheckoutDir(cfg.Env.CheckoutDir),
		checkStateFile(cfg.Env.StateFile),
	)
	return report
}

func (c *Checker) checkGit(ctx context.Context) Check {
	if version := c.version(ctx, "git", "--version"); version != "" {
		return Check{Name: "git", Status: StatusOK, Message: version}
	}
	return Check{
		Name:    "git",
		Status:  StatusError,
		Message: "not found",
		Fix:     "install git and make sure it is on PATH",
	}
}

// checkCommand verifies the program of an argv template is on PATH.
func (c *Checker) checkCommand(name string, argv []string, missing Status) Check {
	if len(argv) == 0 || argv[0] == "" {
		return Check{Name: name, Status: missing, Message: "not configured", Fix: fmt.Sprintf("set %s in ~/.robota/config.yaml", name)}
	}
	path, err := c.lookPath(argv[0])
	if err != nil {
		return Check{
			Name:    name,
			Status:  missing,
			Message: argv[0] + " not found",
			Fix:     fmt.Sprintf("install %s or set %s in ~/.robota/config.yaml", argv[0], name),
		}
	}
	return Check{Name: name, Status: StatusOK, Message: path}
}

func checkCheckoutDir(dir string) Check {
	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		return Check{Name: "checkout dir", Status: StatusOK, Message: dir}
	case err == nil:
		return Check{Name: "checkout dir", Status: StatusError, Message: dir + " is not a directory", Fix: "point CHECKOUT_DIR at a directory"}
	case os.IsNotExist(err):
		return Check{Name: "checkout dir", Status: StatusWarning, Message: dir + " does not exist", Fix: "mkdir -p " + dir}
	default:
		return Check{Name: "checkout dir", Status: StatusError, Message: err.Error()}
	}
}

func checkStateFile(path string) Check {
	if _, err := os.Stat(path); err == nil {
		return Check{Name: "state file", Status: StatusOK, Message: path}
	}
	dir := filepath.Dir(path)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return Check{Name: "state file", Status: StatusWarning, Message: dir + " does not exist yet", Fix: "mkdir -p " + dir}
	}
	return Check{Name: "state file", Status: StatusOK, Message: path + " (created on first write)"}
}

// getCommandVersion runs a command and returns its version string
func getCommandVersion(ctx context.Context, cmd string, args ...string) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, cmd, args...).Output()
	if err != nil {
		return ""
	}
	version := strings.TrimSpace(string(out))
	// Extract just version number if possible
	if strings.Contains(version, " ") {
		for _, p := range strings.Fields(version) {
			if strings.Contains(p, ".") {
				return p
			}
		}
	}
	return version
}

// Symbol returns the symbol for a status
func (s Status) Symbol() string {
	switch s {
	case StatusOK:
		return "✓"
	case StatusWarning:
		return "○"
	case StatusError:
		return "✗"
	default:
		return "?"
	}
}

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}
