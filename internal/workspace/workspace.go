// Package workspace bootstraps a local workspace for an issue: one directory
// per issue holding a clone of every repository involved, each on the issue's
// branch, plus an editor workspace descriptor.
package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alekspetrov/robota/internal/adapters/jira"
	"github.com/alekspetrov/robota/internal/command"
	"github.com/alekspetrov/robota/internal/logging"
	"github.com/alekspetrov/robota/internal/slug"
	"github.com/alekspetrov/robota/internal/ui"
)

// Git is the subset of git used while bootstrapping. git.Cloner implements it.
type Git interface {
	Clone(ctx context.Context, url, dest string) error
	Fetch(ctx context.Context, dir string) error
	CreateOrResetBranch(ctx context.Context, dir, branch string) error
}

// Tracker fetches issue details.
type Tracker interface {
	GetIssue(ctx context.Context, key string) (*jira.Issue, error)
}

// Launcher opens the editor and a terminal.
type Launcher interface {
	OpenEditor(ctx context.Context, path string) error
	OpenTerminal(ctx context.Context, dir string) error
}

// Options carries the configuration a bootstrap needs.
type Options struct {
	CheckoutDir  string
	BranchPrefix string
	Extension    string
	KnownRepos   []string

	// Org returns the active GitHub organisation.
	Org func() string
	// CloneURL renders the clone URL of repo in org.
	CloneURL func(org, repo string) string
}

// Result describes the workspace that was opened.
type Result struct {
	Dir        string
	Descriptor string // empty when no descriptor exists
	Branch     string
	Repos      []string
	Created    bool
}

// Bootstrapper implements the workon command.
type Bootstrapper struct {
	opts     Options
	tracker  Tracker
	git      Git
	launcher Launcher
	console  *ui.Console
	prompter ui.Prompter
}

// New creates a Bootstrapper.
func New(opts Options, tracker Tracker, g Git, launcher Launcher, console *ui.Console, prompter ui.Prompter) *Bootstrapper {
	if opts.Extension == "" {
		opts.Extension = ".code-workspace"
	}
	return &Bootstrapper{
		opts:     opts,
		tracker:  tracker,
		git:      g,
		launcher: launcher,
		console:  console,
		prompter: prompter,
	}
}

// Dir returns the workspace directory of an issue.
func (b *Bootstrapper) Dir(issueID string) string {
	return filepath.Join(b.opts.CheckoutDir, slug.Make(issueID))
}

// Handle is the command handler: workon <issue-id> [repo...].
func (b *Bootstrapper) Handle(ctx context.Context, args []string) (command.Outcome, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return command.Continue, command.Errorf("missing issue id, usage: workon <issue-id> [repo...]")
	}
	_, err := b.WorkOn(ctx, args[0], args[1:])
	return command.Continue, err
}

// WorkOn creates the workspace for issueID unless it already exists, then
// opens it. Without repos the operator is asked which ones to clone.
func (b *Bootstrapper) WorkOn(ctx context.Context, issueID string, repos []string) (*Result, error) {
	if slug.Make(issueID) == "" {
		return nil, command.Errorf("invalid issue id %q", issueID)
	}
	ctx = logging.ContextWithIssue(ctx, issueID)
	log := logging.WithContext(ctx).With("component", "workspace")

	dir := b.Dir(issueID)
	res := &Result{Dir: dir}

	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		log.Info("workspace exists", "dir", dir)
		b.console.Printf("Workspace %s already exists\n", dir)
		if res.Descriptor, err = findDescriptor(dir, b.opts.Extension); err != nil {
			return nil, err
		}
		if res.Repos, err = subdirs(dir); err != nil {
			return nil, err
		}
		b.open(ctx, res)
		return res, nil
	case err == nil:
		return nil, command.Errorf("%s exists and is not a directory", dir)
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("failed to inspect %s: %w", dir, err)
	}

	if repos, err = repoNames(nil, repos); err != nil {
		return nil, err
	}

	var issue *jira.Issue
	err = b.console.Spin(ctx, "Getting the Jira story details for "+issueID, func(ctx context.Context) error {
		var err error
		issue, err = b.tracker.GetIssue(ctx, issueID)
		return err
	})
	if jira.IsNotFound(err) {
		return nil, command.Errorf("issue %s not found", issueID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get issue %s: %w", issueID, err)
	}

	if len(repos) == 0 {
		if repos, err = b.askRepos(ctx); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workspace %s: %w", dir, err)
	}
	res.Created = true
	res.Branch = BranchName(b.opts.BranchPrefix, issueID, issue.Fields.Summary)

	org := b.org()
	for _, repo := range repos {
		dest := filepath.Join(dir, repo)
		label := fmt.Sprintf("Checking out %s/%s", org, repo)
		err := b.console.Spin(ctx, label, func(ctx context.Context) error {
			if err := b.git.Clone(ctx, b.cloneURL(org, repo), dest); err != nil {
				return err
			}
			if err := b.git.Fetch(ctx, dest); err != nil {
				return err
			}
			return b.git.CreateOrResetBranch(ctx, dest, res.Branch)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to clone repo or checkout branch for %s: %w", repo, err)
		}
		log.Info("repository ready", "repo", repo, "branch", res.Branch)
		b.console.Printf("%s on branch %s\n", repo, res.Branch)
	}

	if res.Repos, err = subdirs(dir); err != nil {
		return nil, err
	}
	name := slug.Make(issueID)
	if t := slug.Make(issue.Fields.Summary); t != "" {
		name += "-" + t
	}
	res.Descriptor = filepath.Join(dir, name+b.opts.Extension)
	if err := writeDescriptor(res.Descriptor, res.Repos); err != nil {
		return nil, err
	}

	b.open(ctx, res)
	return res, nil
}

func (b *Bootstrapper) askRepos(ctx context.Context) ([]string, error) {
	var chosen []string
	for {
		var remaining []string
		for _, r := range b.opts.KnownRepos {
			if !slices.Contains(chosen, r) {
				remaining = append(remaining, r)
			}
		}

		answer, err := b.prompter.Ask(ctx, fmt.Sprintf("Which repo(s)? (%s or a different one)", strings.Join(remaining, ", ")))
		if err != nil {
			return nil, promptErr(err)
		}
		if chosen, err = repoNames(chosen, strings.Fields(answer)); err != nil {
			return nil, err
		}

		more, err := b.prompter.Confirm(ctx, "One more?", false)
		if err != nil {
			return nil, promptErr(err)
		}
		if !more {
			return chosen, nil
		}
	}
}

func promptErr(err error) error {
	if errors.Is(err, ui.ErrAborted) {
		return command.Errorf("aborted")
	}
	return err
}

func (b *Bootstrapper) open(ctx context.Context, res *Result) {
	log := logging.WithContext(ctx).With("component", "workspace")

	target := res.Descriptor
	if target == "" {
		target = res.Dir
	}
	b.console.Printf("Opening %s\n", target)
	if err := b.launcher.OpenEditor(ctx, target); err != nil {
		log.Warn("failed to open editor", "error", err)
		b.console.Warnf("could not open the editor: %v", err)
	}

	if len(res.Repos) == 0 {
		return
	}
	if err := b.launcher.OpenTerminal(ctx, filepath.Join(res.Dir, res.Repos[0])); err != nil {
		log.Warn("failed to open terminal", "error", err)
		b.console.Warnf("could not open a terminal: %v", err)
	}
}

func (b *Bootstrapper) org() string {
	if b.opts.Org == nil {
		return ""
	}
	return b.opts.Org()
}

func (b *Bootstrapper) cloneURL(org, repo string) string {
	if b.opts.CloneURL == nil {
		return fmt.Sprintf("git@github.com:%s/%s.git", org, repo)
	}
	return b.opts.CloneURL(org, repo)
}

// repoNames appends the non-blank names in items to chosen, skipping names
// already present. A name must be a single path element.
func repoNames(chosen, items []string) ([]string, error) {
	for _, item := range items {
		r := strings.TrimSpace(item)
		if r == "" || slices.Contains(chosen, r) {
			continue
		}
		if r == "." || r == ".." || strings.ContainsAny(r, `/\`) {
			return nil, command.Errorf("invalid repository name %q", r)
		}
		chosen = append(chosen, r)
	}
	return chosen, nil
}

type descriptor struct {
	Folders []folder `json:"folders"`
}

type folder struct {
	Path string `json:"path"`
}

func writeDescriptor(path string, repos []string) error {
	d := descriptor{Folders: make([]folder, 0, len(repos))}
	for _, r := range repos {
		d.Folders = append(d.Folders, folder{Path: r})
	}
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode workspace descriptor: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write workspace descriptor: %w", err)
	}
	return nil
}

// findDescriptor returns the first file in dir carrying ext, or "".
func findDescriptor(dir, ext string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
	if err != nil {
		return "", fmt.Errorf("failed to look for a workspace descriptor: %w", err)
	}
	slices.Sort(matches)
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && !info.IsDir() {
			return m, nil
		}
	}
	return "", nil
}

// subdirs lists the visible subdirectories of dir, sorted.
func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}
