package github

import (
	"fmt"
	"regexp"
	"strings"
)

// remotePattern matches git@host:owner/repo(.git), ssh://git@host/owner/repo
// and https://host/owner/repo(.git) remotes.
var remotePattern = regexp.MustCompile(`^(?:[\w.-]+@[\w.-]+:|(?:ssh|https?|git)://(?:[^@/]+@)?[\w.-]+(?::\d+)?/)([\w.-]+)/([\w.-]+?)(?:\.git)?/?$`)

// ParseRemoteURL extracts owner and repository from a git remote URL.
func ParseRemoteURL(remote string) (owner, repo string, err error) {
	m := remotePattern.FindStringSubmatch(strings.TrimSpace(remote))
	if m == nil {
		return "", "", fmt.Errorf("not a GitHub remote: %q", remote)
	}
	return m[1], m[2], nil
}
