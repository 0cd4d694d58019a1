package listing

import (
	"regexp"
	"slices"

	"github.com/alekspetrov/robota/internal/adapters/github"
	"github.com/alekspetrov/robota/internal/adapters/jira"
)

// statusOrder is the order of groups in the sprint view. Other statuses
// follow, sorted together by key.
var statusOrder = []string{jira.StatusToDo, jira.StatusInProgress, jira.StatusInReview, jira.StatusDone}

// SprintGroup is the set of issues sharing one active sprint.
type SprintGroup struct {
	Sprint string
	Issues []*jira.Issue
}

// PartitionBySprint splits issues into those outside any active sprint and
// one group per active sprint, in order of first appearance. Every issue
// lands in exactly one place.
func PartitionBySprint(issues []*jira.Issue, sprintField string) (backlog []*jira.Issue, groups []SprintGroup) {
	index := make(map[string]int)
	for _, issue := range issues {
		sprint, ok := issue.ActiveSprint(sprintField)
		if !ok {
			backlog = append(backlog, issue)
			continue
		}
		i, seen := index[sprint.Name]
		if !seen {
			i = len(groups)
			index[sprint.Name] = i
			groups = append(groups, SprintGroup{Sprint: sprint.Name})
		}
		groups[i].Issues = append(groups[i].Issues, issue)
	}
	return backlog, groups
}

// SortByKey sorts issues in place by the numeric part of their key.
func SortByKey(issues []*jira.Issue, descending bool) {
	slices.SortStableFunc(issues, func(a, b *jira.Issue) int {
		if descending {
			return b.Number() - a.Number()
		}
		return a.Number() - b.Number()
	})
}

// OrderByStatus returns issues grouped by status: To Do, In Progress,
// In Review and Done first, then every other status. Each known group, and
// the trailing remainder, is sorted by key ascending.
func OrderByStatus(issues []*jira.Issue) []*jira.Issue {
	groups := make(map[string][]*jira.Issue)
	var others []*jira.Issue
	for _, issue := range issues {
		status := issue.Fields.Status.Name
		if slices.Contains(statusOrder, status) {
			groups[status] = append(groups[status], issue)
		} else {
			others = append(others, issue)
		}
	}

	ordered := make([]*jira.Issue, 0, len(issues))
	for _, status := range statusOrder {
		SortByKey(groups[status], false)
		ordered = append(ordered, groups[status]...)
	}
	SortByKey(others, false)
	return append(ordered, others...)
}

var issueKeyPattern = regexp.MustCompile(`[A-Z][A-Z0-9]+-\d+`)

// PartitionPullRequests splits prs into those whose title references one of
// keys and the rest, keeping the input order.
func PartitionPullRequests(prs []*github.Issue, keys []string) (inSprint, rest []*github.Issue) {
	for _, pr := range prs {
		if referencesAny(pr.Title, keys) {
			inSprint = append(inSprint, pr)
		} else {
			rest = append(rest, pr)
		}
	}
	return inSprint, rest
}

func referencesAny(title string, keys []string) bool {
	for _, ref := range issueKeyPattern.FindAllString(title, -1) {
		if slices.Contains(keys, ref) {
			return true
		}
	}
	return false
}
