package github

import (
	"strings"
	"time"
)

// Pull request states
const (
	StateOpen   = "open"
	StateClosed = "closed"
)

// Issue is an issue or pull request as returned by the search API.
type Issue struct {
	ID            int64        `json:"id"`
	Number        int          `json:"number"`
	Title         string       `json:"title"`
	State         string       `json:"state"`
	Draft         bool         `json:"draft,omitempty"`
	User          User         `json:"user"`
	HTMLURL       string       `json:"html_url"`
	RepositoryURL string       `json:"repository_url"`
	PullRequest   *PullRequest `json:"pull_request,omitempty"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// RepositoryName returns the repository name from repository_url.
func (i *Issue) RepositoryName() string {
	return i.RepositoryURL[strings.LastIndex(i.RepositoryURL, "/")+1:]
}

// IsPullRequest reports whether the search hit is a pull request.
func (i *Issue) IsPullRequest() bool {
	return i.PullRequest != nil
}

// User represents a GitHub user
type User struct {
	ID    int64  `json:"id,omitempty"`
	Login string `json:"login"`
}

// Repository represents a GitHub repository
type Repository struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Owner         User   `json:"owner"`
	DefaultBranch string `json:"default_branch"`
	HTMLURL       string `json:"html_url"`
	CloneURL      string `json:"clone_url"`
	SSHURL        string `json:"ssh_url"`
}

// PullRequestInput is the request body for creating a pull request.
type PullRequestInput struct {
	Title string `json:"title"`
	Head  string `json:"head"`
	Base  string `json:"base"`
	Body  string `json:"body,omitempty"`
	Draft bool   `json:"draft"`
}

// PullRequest represents a GitHub pull request
type PullRequest struct {
	ID      int64  `json:"id,omitempty"`
	Number  int    `json:"number,omitempty"`
	Title   string `json:"title,omitempty"`
	State   string `json:"state,omitempty"`
	Draft   bool   `json:"draft,omitempty"`
	HTMLURL string `json:"html_url"`
	URL     string `json:"url,omitempty"`
}

// SearchResult is the envelope of the search API.
type SearchResult struct {
	TotalCount        int      `json:"total_count"`
	IncompleteResults bool     `json:"incomplete_results"`
	Items             []*Issue `json:"items"`
}
