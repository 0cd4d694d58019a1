// Package pullrequest closes the loop on an issue: it commits and pushes the
// working copy, opens a pull request on GitHub and reports back to Jira.
package pullrequest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alekspetrov/robota/internal/adapters/github"
	"github.com/alekspetrov/robota/internal/adapters/jira"
	"github.com/alekspetrov/robota/internal/command"
	"github.com/alekspetrov/robota/internal/git"
	"github.com/alekspetrov/robota/internal/logging"
	"github.com/alekspetrov/robota/internal/ui"
	"github.com/alekspetrov/robota/internal/workspace"
)

// Repo is the working copy the PR is opened from. *git.GitOperations
// implements it.
type Repo interface {
	GetCurrentBranch(ctx context.Context) (string, error)
	StageAll(ctx context.Context) error
	Commit(ctx context.Context, message string) (string, error)
	Push(ctx context.Context, branch string) error
	RemoteURL(ctx context.Context) (string, error)
}

// Tracker is the subset of the Jira client the workflow needs.
type Tracker interface {
	GetIssue(ctx context.Context, key string) (*jira.Issue, error)
	AddComment(ctx context.Context, key, body string) (*jira.Comment, error)
	TransitionIssueTo(ctx context.Context, key, status string) error
	Permalink(key string) string
}

// Host is the subset of the GitHub client the workflow needs.
type Host interface {
	GetRepository(ctx context.Context, owner, repo string) (*github.Repository, error)
	CreatePullRequest(ctx context.Context, owner, repo string, input *github.PullRequestInput) (*github.PullRequest, error)
}

// Options configures the workflow.
type Options struct {
	BranchPrefix     string
	StatusInProgress string
	StatusInReview   string
}

// Opener implements the pr command.
type Opener struct {
	opts    Options
	repo    func() Repo
	tracker Tracker
	host    Host
	console *ui.Console
}

// New creates an Opener. repo is called once per invocation so the working
// copy is resolved against the current directory at that time.
func New(opts Options, repo func() Repo, tracker Tracker, host Host, console *ui.Console) *Opener {
	return &Opener{opts: opts, repo: repo, tracker: tracker, host: host, console: console}
}

// Result describes the pull request that was opened.
type Result struct {
	URL      string
	Title    string
	Branch   string
	Base     string
	IssueKey string
	Draft    bool
}

// Handle is the command handler.
func (o *Opener) Handle(ctx context.Context, args []string) (command.Outcome, error) {
	a, err := ParseArgs(args)
	if err != nil {
		return command.Continue, err
	}
	_, err = o.Open(ctx, a)
	return command.Continue, err
}

// Open runs the whole workflow for the current working copy.
func (o *Opener) Open(ctx context.Context, a Args) (*Result, error) {
	if a.NoTracker && a.Message == "" {
		return nil, command.Errorf("a message is required when the PR is not linked to an issue")
	}

	log := logging.WithContext(ctx).With("component", "pullrequest")
	repo := o.repo()

	branch, err := repo.GetCurrentBranch(ctx)
	if err != nil {
		return nil, shellError(err)
	}
	res := &Result{Branch: branch, Draft: !a.Ready}

	commitMsg := a.Message
	body := a.Message
	if a.NoTracker {
		res.Title = a.Message
	} else {
		key, ok := workspace.IssueKeyFromBranch(o.opts.BranchPrefix, branch)
		if !ok {
			return nil, command.Errorf("cannot find an issue key in branch %s", branch)
		}
		ctx = logging.ContextWithIssue(ctx, key)
		res.IssueKey = key

		var issue *jira.Issue
		err := o.console.Spin(ctx, "Getting the Jira story details for "+key, func(ctx context.Context) error {
			var err error
			issue, err = o.tracker.GetIssue(ctx, key)
			return err
		})
		if jira.IsNotFound(err) {
			return nil, command.Errorf("issue %s not found", key)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get issue %s: %w", key, err)
		}

		res.Title = fmt.Sprintf("[%s] %s", key, issue.Fields.Summary)
		commitMsg = res.Title
		if a.Message != "" {
			commitMsg += "\n" + a.Message
		}
		body = "This PR is related to Jira story: " + o.tracker.Permalink(key)
	}

	err = o.console.Spin(ctx, "Pushing "+branch, func(ctx context.Context) error {
		if err := repo.StageAll(ctx); err != nil {
			return err
		}
		if _, err := repo.Commit(ctx, commitMsg); err != nil {
			return err
		}
		return repo.Push(ctx, branch)
	})
	if err != nil {
		return nil, shellError(err)
	}
	log.Info("branch pushed", "branch", branch)

	remote, err := repo.RemoteURL(ctx)
	if err != nil {
		return nil, shellError(err)
	}
	owner, name, err := github.ParseRemoteURL(remote)
	if err != nil {
		return nil, command.Expected(err)
	}

	var pr *github.PullRequest
	err = o.console.Spin(ctx, fmt.Sprintf("Opening a pull request on %s/%s", owner, name), func(ctx context.Context) error {
		repository, err := o.host.GetRepository(ctx, owner, name)
		if err != nil {
			return fmt.Errorf("failed to get repository %s/%s: %w", owner, name, err)
		}
		res.Base = repository.DefaultBranch
		pr, err = o.host.CreatePullRequest(ctx, owner, name, &github.PullRequestInput{
			Title: res.Title,
			Head:  branch,
			Base:  res.Base,
			Body:  body,
			Draft: res.Draft,
		})
		return err
	})
	if err != nil {
		var apiErr *github.APIError
		if github.IsNotFound(err) {
			return nil, command.Errorf("repository %s/%s not found on GitHub or not accessible with GITHUB_API_KEY", owner, name)
		}
		if github.IsUnprocessable(err) && errors.As(err, &apiErr) {
			return nil, command.Errorf("GitHub refused the pull request: %s", apiErr.Message())
		}
		return nil, fmt.Errorf("failed to create pull request: %w", err)
	}
	res.URL = pr.HTMLURL
	log.Info("pull request created", "url", res.URL, "draft", res.Draft)

	if !a.NoTracker {
		status := o.opts.StatusInProgress
		if a.Ready {
			status = o.opts.StatusInReview
		}
		err := o.console.Spin(ctx, "Updating "+res.IssueKey, func(ctx context.Context) error {
			if _, err := o.tracker.AddComment(ctx, res.IssueKey, "PR: "+res.URL); err != nil {
				return fmt.Errorf("failed to comment on %s: %w", res.IssueKey, err)
			}
			if err := o.tracker.TransitionIssueTo(ctx, res.IssueKey, status); err != nil {
				return fmt.Errorf("failed to move %s to %s: %w", res.IssueKey, status, err)
			}
			return nil
		})
		if err != nil {
			o.console.Println(o.console.Link(res.URL, res.URL))
			return res, err
		}
		log.Info("issue updated", "status", status)
	}

	o.console.Println(o.console.Link(res.URL, res.URL))
	return res, nil
}

// shellError turns a failed git invocation into an expected error naming the
// command and its output.
func shellError(err error) error {
	cmdErr, ok := git.AsCommandError(err)
	if !ok {
		return err
	}
	output := strings.TrimSpace(cmdErr.Stderr)
	if output == "" {
		output = strings.TrimSpace(cmdErr.Stdout)
	}
	return command.Errorf("%s failed: %s", cmdErr.CommandLine(), output)
}
