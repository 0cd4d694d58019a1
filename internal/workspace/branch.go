package workspace

import (
	"strings"

	"github.com/alekspetrov/robota/internal/slug"
)

// BranchName derives the working branch for an issue:
// <prefix>-<slug(issue-id)>-<slug(title)>. An empty title slug is dropped.
func BranchName(prefix, issueID, title string) string {
	parts := []string{prefix, slug.Make(issueID)}
	if t := slug.Make(title); t != "" {
		parts = append(parts, t)
	}
	return strings.Join(parts, "-")
}

// IssueKeyFromBranch recovers the issue key from a branch made by BranchName.
//
//	IssueKeyFromBranch("vlad", "vlad-abc-123-fix-login") == "ABC-123", true
//
// When the branch does not start with prefix, its first hyphen-separated
// segment is treated as the prefix.
func IssueKeyFromBranch(prefix, branch string) (string, bool) {
	rest, ok := strings.CutPrefix(branch, prefix+"-")
	if prefix == "" || !ok {
		_, rest, ok = strings.Cut(branch, "-")
		if !ok {
			return "", false
		}
	}

	segments := strings.SplitN(rest, "-", 3)
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return "", false
	}
	return strings.ToUpper(segments[0] + "-" + segments[1]), true
}
