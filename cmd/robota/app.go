package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/alekspetrov/robota/internal/adapters/github"
	"github.com/alekspetrov/robota/internal/adapters/jira"
	"github.com/alekspetrov/robota/internal/command"
	"github.com/alekspetrov/robota/internal/config"
	"github.com/alekspetrov/robota/internal/git"
	"github.com/alekspetrov/robota/internal/health"
	"github.com/alekspetrov/robota/internal/launch"
	"github.com/alekspetrov/robota/internal/listing"
	"github.com/alekspetrov/robota/internal/pullrequest"
	"github.com/alekspetrov/robota/internal/state"
	"github.com/alekspetrov/robota/internal/ui"
	"github.com/alekspetrov/robota/internal/workspace"
)

// app holds everything a command needs, built once per process.
type app struct {
	cfg        *config.Config
	console    *ui.Console
	store      *state.Store
	dispatcher *command.Dispatcher

	views     *listing.Views
	bootstrap *workspace.Bootstrapper
	opener    *pullrequest.Opener
}

func newApp(cfg *config.Config, console *ui.Console) (*app, error) {
	env, prefs := cfg.Env, cfg.Preferences

	store, err := state.Open(env.StateFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	jiraClient := jira.NewClient(env.JiraHost, env.JiraEmail, env.JiraAPIToken, env.JiraPlatform)
	githubClient := github.NewClientWithBaseURL(env.GitHubAPIKey, env.GitHubAPIURL)

	a := &app{cfg: cfg, console: console, store: store}

	a.views = listing.New(listing.Options{
		SprintField: prefs.Jira.SprintField,
		ListJQL:     prefs.Jira.ListJQL,
		SprintJQL:   prefs.Jira.SprintJQL,
		Username:    env.GitHubUsername,
		DefaultOrg:  env.GitHubOrg,
	}, jiraClient, githubClient, store, console)

	a.bootstrap = workspace.New(workspace.Options{
		CheckoutDir:  env.CheckoutDir,
		BranchPrefix: prefs.BranchPrefix,
		Extension:    prefs.WorkspaceExtension,
		KnownRepos:   env.GitHubRepos,
		Org:          a.views.Org,
		CloneURL:     prefs.CloneURLFor,
	}, jiraClient, git.Cloner{}, launch.New(prefs.Editor, prefs.Terminal), console, console.Prompter())

	a.opener = pullrequest.New(pullrequest.Options{
		BranchPrefix:     prefs.BranchPrefix,
		StatusInProgress: prefs.Statuses.InProgress,
		StatusInReview:   prefs.Statuses.InReview,
	}, func() pullrequest.Repo { return git.NewGitOperations(".") }, jiraClient, githubClient, console)

	registry := command.NewRegistry()
	a.dispatcher = command.NewDispatcher(registry, console.Err)
	a.register(registry)
	return a, nil
}

func (a *app) register(r *command.Registry) {
	r.Register(command.Spec{
		Names:   []string{"workon", "work", "w"},
		Usage:   "<issue-id> [repo...]",
		Summary: "Clone the repositories for an issue, branch them and open the workspace",
		Handler: a.bootstrap.Handle,
	})
	r.Register(command.Spec{
		Names:   []string{"pr"},
		Usage:   pullrequest.Usage,
		Summary: "Commit, push and open a pull request for the current branch",
		Handler: a.opener.Handle,
	})
	r.Register(command.Spec{
		Names:   []string{"list", "l", "ls"},
		Summary: "List my unresolved issues, split by active sprint",
		Handler: a.views.List,
	})
	r.Register(command.Spec{
		Names:   []string{"sprint", "s"},
		Usage:   "[board-id]",
		Summary: "Show the current sprint grouped by status",
		Handler: a.views.Sprint,
	})
	r.Register(command.Spec{
		Names:   []string{"boards"},
		Summary: "List the Jira boards",
		Handler: a.views.Boards,
	})
	r.Register(command.Spec{
		Names:   []string{"prs", "p"},
		Summary: "List my open pull requests",
		Handler: a.views.PullRequests,
	})
	r.Register(command.Spec{
		Names:   []string{"org", "o"},
		Usage:   "[new-org]",
		Summary: "Show or switch the GitHub organization",
		Handler: a.views.SetOrg,
	})
	r.Register(command.Spec{
		Names:   []string{"show", "i"},
		Usage:   "<issue-id>",
		Summary: "Show an issue with its description",
		Handler: a.views.Show,
	})
	r.Register(command.Spec{
		Names:   []string{"doctor"},
		Summary: "Check that git, the editor and the configured paths are usable",
		Handler: a.doctor,
	})
	r.Register(command.Spec{
		Names:   []string{"help", "h", "?"},
		Summary: "Show this help",
		Handler: a.help,
	})
	r.Register(command.Spec{
		Names:   []string{"quit", "q", "exit"},
		Summary: "Leave the prompt",
		Handler: quit,
	})
}

func (a *app) help(context.Context, []string) (command.Outcome, error) {
	a.dispatcher.Help(a.console.Out)
	return command.Continue, nil
}

func (a *app) doctor(ctx context.Context, _ []string) (command.Outcome, error) {
	report := health.NewChecker().Run(ctx, a.cfg)

	t := ui.Table{Title: "robota " + version, Headers: []string{"", "Check", "Result", "Fix"}}
	for _, c := range report.Checks {
		var color lipgloss.TerminalColor
		switch c.Status {
		case health.StatusOK:
			color = ui.ColorPass
		case health.StatusWarning:
			color = ui.ColorWarn
		case health.StatusError:
			color = ui.ColorFail
		}
		t.AddRow(color, c.Status.Symbol(), c.Name, c.Message, c.Fix)
	}
	a.console.PrintTable(t)

	if !report.OK() {
		return command.Continue, command.Errorf("some checks failed")
	}
	return command.Continue, nil
}

func quit(context.Context, []string) (command.Outcome, error) {
	return command.Quit, nil
}
