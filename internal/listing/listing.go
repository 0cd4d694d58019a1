// Package listing renders read-only views over Jira and GitHub: personal
// issues, the current sprint, boards, open pull requests and single issues.
// It also owns the org command, which switches the GitHub organisation the
// other views and workflows use.
package listing

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alekspetrov/robota/internal/adapters/github"
	"github.com/alekspetrov/robota/internal/adapters/jira"
	"github.com/alekspetrov/robota/internal/command"
	"github.com/alekspetrov/robota/internal/logging"
	"github.com/alekspetrov/robota/internal/state"
	"github.com/alekspetrov/robota/internal/ui"
)

const (
	maxIssues = 100
	maxPRs    = 100
)

// Tracker is the subset of the Jira client the views read from.
type Tracker interface {
	GetIssue(ctx context.Context, key string) (*jira.Issue, error)
	SearchIssues(ctx context.Context, jql string, maxResults int, fields ...string) ([]*jira.Issue, error)
	ListBoards(ctx context.Context) ([]jira.Board, error)
	ActiveSprints(ctx context.Context, boardID int) ([]jira.Sprint, error)
	SprintIssues(ctx context.Context, sprintID, maxResults int) ([]*jira.Issue, error)
	Permalink(key string) string
}

// Host searches GitHub.
type Host interface {
	SearchIssues(ctx context.Context, query string, perPage int) ([]*github.Issue, error)
}

// Options configures the views.
type Options struct {
	SprintField string
	ListJQL     string
	SprintJQL   string
	Username    string
	DefaultOrg  string
}

// Views implements the listing commands.
type Views struct {
	opts    Options
	tracker Tracker
	host    Host
	store   *state.Store
	console *ui.Console
}

// New creates the views.
func New(opts Options, tracker Tracker, host Host, store *state.Store, console *ui.Console) *Views {
	return &Views{opts: opts, tracker: tracker, host: host, store: store, console: console}
}

// Org returns the active GitHub organisation: the one saved in state, else
// the configured default.
func (v *Views) Org() string {
	if org := v.store.Get().GitHubOrg; org != "" {
		return org
	}
	return v.opts.DefaultOrg
}

// List shows the operator's unresolved issues, split by active sprint, and
// caches them in state.
func (v *Views) List(ctx context.Context, _ []string) (command.Outcome, error) {
	var issues []*jira.Issue
	err := v.console.Spin(ctx, "Fetching your issues", func(ctx context.Context) error {
		var err error
		issues, err = v.tracker.SearchIssues(ctx, v.opts.ListJQL, maxIssues)
		return err
	})
	if err != nil {
		return command.Continue, fmt.Errorf("failed to search issues: %w", err)
	}

	backlog, groups := PartitionBySprint(issues, v.opts.SprintField)
	v.console.PrintTable(v.issueTable("[not in an active sprint]", backlog))
	for _, g := range groups {
		v.console.PrintTable(v.issueTable(g.Sprint, g.Issues))
	}

	refs := make([]state.IssueRef, 0, len(issues))
	for _, issue := range issues {
		sprint, _ := issue.ActiveSprint(v.opts.SprintField)
		refs = append(refs, state.IssueRef{
			Key:     issue.Key,
			Summary: issue.Fields.Summary,
			Status:  issue.Fields.Status.Name,
			Sprint:  sprint.Name,
		})
	}
	if err := v.store.Update(func(s *state.State) error {
		s.MyIssues = refs
		return nil
	}); err != nil {
		return command.Continue, fmt.Errorf("failed to cache issues: %w", err)
	}
	logging.WithContext(ctx).Debug("cached issues", "count", len(refs), "sprints", len(groups))
	return command.Continue, nil
}

func (v *Views) issueTable(title string, issues []*jira.Issue) ui.Table {
	SortByKey(issues, true)
	t := ui.Table{Title: title, Headers: []string{"Key", "Status", "Summary", "Updated"}}
	for _, issue := range issues {
		status := issue.Fields.Status.Name
		t.AddRow(ui.StatusColor(status),
			v.console.Link(issue.Key, v.tracker.Permalink(issue.Key)),
			status,
			issue.Fields.Summary,
			ui.RelativeTime(issue.Fields.UpdatedTime()),
		)
	}
	return t
}

// Sprint shows the current sprint grouped by status. With a board id the
// board's active sprint is read through the Agile API instead of JQL.
func (v *Views) Sprint(ctx context.Context, args []string) (command.Outcome, error) {
	title := "Current Sprint"
	var issues []*jira.Issue

	if len(args) > 0 {
		boardID, err := strconv.Atoi(args[0])
		if err != nil || boardID <= 0 {
			return command.Continue, command.Errorf("invalid board id %q", args[0])
		}
		var sprints []jira.Sprint
		err = v.console.Spin(ctx, fmt.Sprintf("Fetching the active sprint of board %d", boardID), func(ctx context.Context) error {
			var err error
			if sprints, err = v.tracker.ActiveSprints(ctx, boardID); err != nil || len(sprints) == 0 {
				return err
			}
			issues, err = v.tracker.SprintIssues(ctx, sprints[0].ID, maxIssues)
			return err
		})
		if jira.IsNotFound(err) {
			return command.Continue, command.Errorf("board %d not found", boardID)
		}
		if err != nil {
			return command.Continue, fmt.Errorf("failed to fetch sprint of board %d: %w", boardID, err)
		}
		if len(sprints) == 0 {
			return command.Continue, command.Errorf("board %d has no active sprint", boardID)
		}
		title = sprints[0].Name
	} else {
		err := v.console.Spin(ctx, "Fetching the current sprint", func(ctx context.Context) error {
			var err error
			issues, err = v.tracker.SearchIssues(ctx, v.opts.SprintJQL, maxIssues)
			return err
		})
		if err != nil {
			return command.Continue, fmt.Errorf("failed to search sprint issues: %w", err)
		}
	}

	t := ui.Table{Title: title, Headers: []string{"Key", "Status", "Owner", "Summary", "Project / Sprint"}}
	for _, issue := range OrderByStatus(issues) {
		status := issue.Fields.Status.Name
		sprint, _ := issue.ActiveSprint(v.opts.SprintField)
		t.AddRow(ui.StatusColor(status),
			v.console.Link(issue.Key, v.tracker.Permalink(issue.Key)),
			status,
			issue.AssigneeName(),
			issue.Fields.Summary,
			issue.Fields.Project.Key+" / "+sprint.Name,
		)
	}
	v.console.PrintTable(t)
	return command.Continue, nil
}

// Boards lists the Agile boards visible to the operator.
func (v *Views) Boards(ctx context.Context, _ []string) (command.Outcome, error) {
	var boards []jira.Board
	err := v.console.Spin(ctx, "Fetching boards", func(ctx context.Context) error {
		var err error
		boards, err = v.tracker.ListBoards(ctx)
		return err
	})
	if err != nil {
		return command.Continue, fmt.Errorf("failed to list boards: %w", err)
	}

	t := ui.Table{Title: "Boards", Headers: []string{"ID", "Name", "Type"}}
	for _, b := range boards {
		t.AddRow(nil, strconv.Itoa(b.ID), b.Name, b.Type)
	}
	v.console.PrintTable(t)
	return command.Continue, nil
}

// PullRequests lists the operator's open pull requests in the active org,
// those linked to active-sprint issues first.
func (v *Views) PullRequests(ctx context.Context, _ []string) (command.Outcome, error) {
	org := v.Org()
	var prs []*github.Issue
	err := v.console.Spin(ctx, "Fetching your pull requests", func(ctx context.Context) error {
		var err error
		prs, err = v.host.SearchIssues(ctx, github.MyOpenPullRequestsQuery(v.opts.Username, org), maxPRs)
		return err
	})
	if err != nil {
		return command.Continue, fmt.Errorf("failed to search pull requests: %w", err)
	}

	st := v.store.Get()
	inSprint, rest := PartitionPullRequests(prs, st.ActiveSprintKeys())
	if len(inSprint) > 0 {
		v.console.PrintTable(v.prTable("In the active sprint", inSprint))
	}
	v.console.PrintTable(v.prTable("My Pull Requests from "+org, rest))
	return command.Continue, nil
}

func (v *Views) prTable(title string, prs []*github.Issue) ui.Table {
	t := ui.Table{Title: title, Headers: []string{"PR", "Summary", "Updated"}}
	for _, pr := range prs {
		var color lipgloss.TerminalColor
		if pr.Draft {
			color = ui.ColorMuted
		}
		ref := fmt.Sprintf("%s/%d", pr.RepositoryName(), pr.Number)
		t.AddRow(color,
			v.console.Link(ref, pr.HTMLURL),
			v.console.Link(pr.Title, pr.HTMLURL),
			ui.RelativeTime(pr.UpdatedAt),
		)
	}
	return t
}

// SetOrg shows the active GitHub organisation, switching to args[0] first
// when given.
func (v *Views) SetOrg(ctx context.Context, args []string) (command.Outcome, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		org := strings.TrimSpace(args[0])
		if err := v.store.Update(func(s *state.State) error {
			s.GitHubOrg = org
			return nil
		}); err != nil {
			return command.Continue, fmt.Errorf("failed to save organisation: %w", err)
		}
		logging.WithContext(ctx).Info("github organisation changed", "org", org)
	}
	v.console.Printf("Current GitHub organization: %s\n", v.Org())
	return command.Continue, nil
}

// Show prints one issue with its description rendered as markdown.
func (v *Views) Show(ctx context.Context, args []string) (command.Outcome, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return command.Continue, command.Errorf("missing issue id, usage: show <issue-id>")
	}
	key := strings.ToUpper(strings.TrimSpace(args[0]))

	var issue *jira.Issue
	err := v.console.Spin(ctx, "Fetching "+key, func(ctx context.Context) error {
		var err error
		issue, err = v.tracker.GetIssue(ctx, key)
		return err
	})
	if jira.IsNotFound(err) {
		return command.Continue, command.Errorf("issue %s not found", key)
	}
	if err != nil {
		return command.Continue, fmt.Errorf("failed to get issue %s: %w", key, err)
	}

	status := issue.Fields.Status.Name
	link := v.tracker.Permalink(issue.Key)
	bold := v.console.Style().Bold(true)
	v.console.Printf("%s %s\n", v.console.Link(bold.Render(issue.Key), link), bold.Render(issue.Fields.Summary))
	v.console.Printf("Status:   %s\n", v.console.StatusStyle(status).Render(status))
	v.console.Printf("Assignee: %s\n", issue.AssigneeName())
	if sprint, ok := issue.ActiveSprint(v.opts.SprintField); ok {
		v.console.Printf("Sprint:   %s\n", sprint.Name)
	}
	v.console.Printf("Updated:  %s\n", ui.RelativeTime(issue.Fields.UpdatedTime()))
	v.console.Printf("Link:     %s\n", link)

	if text := strings.TrimSpace(issue.Fields.DescriptionText()); text != "" {
		v.console.Println()
		v.console.Printf("%s\n", strings.TrimRight(v.console.RenderMarkdown(text), "\n"))
	}
	return command.Continue, nil
}
