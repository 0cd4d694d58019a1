// Package git runs the local git binary on behalf of robota's workflows.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/alekspetrov/robota/internal/logging"
)

// CommandError is a git invocation that exited unsuccessfully.
type CommandError struct {
	Args   []string
	Stdout string
	Stderr string
	Err    error
}

// CommandLine returns the invocation as typed in a shell.
func (e *CommandError) CommandLine() string {
	return "git " + strings.Join(e.Args, " ")
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.CommandLine(), e.Err)
	if out := strings.TrimSpace(e.Stderr); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// AsCommandError unwraps err to a *CommandError if it holds one.
func AsCommandError(err error) (*CommandError, bool) {
	var cmdErr *CommandError
	ok := errors.As(err, &cmdErr)
	return cmdErr, ok
}

func run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logging.WithComponent("git").Debug("running git", "dir", dir, "args", args)
	if err := cmd.Run(); err != nil {
		return "", &CommandError{
			Args:   args,
			Stdout: stdout.String(),
			Stderr: stderr.String(),
			Err:    err,
		}
	}
	return strings.TrimSpace(stdout.String()), nil
}

// GitOperations handles git operations inside one working copy
type GitOperations struct {
	projectPath string
}

// NewGitOperations creates new git operations for a working copy
func NewGitOperations(projectPath string) *GitOperations {
	return &GitOperations{projectPath: projectPath}
}

func (g *GitOperations) run(ctx context.Context, args ...string) (string, error) {
	return run(ctx, g.projectPath, args...)
}

// Fetch updates remote-tracking refs from origin.
func (g *GitOperations) Fetch(ctx context.Context) error {
	_, err := g.run(ctx, "fetch", "origin")
	return err
}

// CreateOrResetBranch checks out branchName, creating it or resetting it.
// When origin already has the branch the local one starts from it, so
// resuming work picks up what was pushed earlier.
func (g *GitOperations) CreateOrResetBranch(ctx context.Context, branchName string) error {
	if g.RemoteBranchExists(ctx, branchName) {
		_, err := g.run(ctx, "checkout", "-B", branchName, "origin/"+branchName)
		return err
	}
	_, err := g.run(ctx, "checkout", "-B", branchName)
	return err
}

// RemoteBranchExists reports whether origin/<branch> is known locally.
func (g *GitOperations) RemoteBranchExists(ctx context.Context, branch string) bool {
	_, err := g.run(ctx, "rev-parse", "--verify", "--quiet", "refs/remotes/origin/"+branch)
	return err == nil
}

// GetCurrentBranch returns the current branch name
func (g *GitOperations) GetCurrentBranch(ctx context.Context) (string, error) {
	branch, err := g.run(ctx, "branch", "--show-current")
	if err != nil {
		return "", err
	}
	if branch == "" {
		return "", fmt.Errorf("HEAD is detached in %s", g.projectPath)
	}
	return branch, nil
}

// StageAll stages every change in the working copy.
func (g *GitOperations) StageAll(ctx context.Context) error {
	_, err := g.run(ctx, "add", "-A")
	return err
}

// Commit commits the staged changes and returns the new commit SHA.
func (g *GitOperations) Commit(ctx context.Context, message string) (string, error) {
	if _, err := g.run(ctx, "commit", "-m", message); err != nil {
		return "", err
	}
	return g.run(ctx, "rev-parse", "HEAD")
}

// Push pushes the branch to origin and sets it as upstream.
func (g *GitOperations) Push(ctx context.Context, branchName string) error {
	_, err := g.run(ctx, "push", "-u", "origin", branchName)
	return err
}

// RemoteURL returns the URL of the origin remote.
func (g *GitOperations) RemoteURL(ctx context.Context) (string, error) {
	return g.run(ctx, "remote", "get-url", "origin")
}

// Cloner performs clone-time operations on arbitrary directories.
type Cloner struct{}

// Clone clones url into dest, which must not exist yet.
func (Cloner) Clone(ctx context.Context, url, dest string) error {
	_, err := run(ctx, "", "clone", url, dest)
	return err
}

// Fetch runs Fetch in dir.
func (Cloner) Fetch(ctx context.Context, dir string) error {
	return NewGitOperations(dir).Fetch(ctx)
}

// CreateOrResetBranch runs CreateOrResetBranch in dir.
func (Cloner) CreateOrResetBranch(ctx context.Context, dir, branch string) error {
	return NewGitOperations(dir).CreateOrResetBranch(ctx, branch)
}
