// Package testutil provides testing utilities shared by robota's packages.
package testutil

// Obviously fake credentials, so secret scanners stay quiet.
const (
	// FakeGitHubToken is a test token for GitHub API authentication.
	FakeGitHubToken = "test-github-token"

	// FakeJiraToken is a test API token for Jira basic auth.
	FakeJiraToken = "test-jira-api-token"

	// FakeJiraEmail pairs with FakeJiraToken.
	FakeJiraEmail = "dev@example.test"
)
