// Package github is a small REST client for the GitHub API: repository
// lookup, pull request creation and issue search.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	githubAPIURL = "https://api.github.com"
)

// Client is a GitHub API client
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string // defaults to githubAPIURL; GitHub Enterprise or tests override it
}

// NewClientWithBaseURL creates a new GitHub client with a custom base URL
func NewClientWithBaseURL(token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = githubAPIURL
	}
	return &Client{
		token:   token,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		// requests are bounded by the caller's context only
		httpClient: &http.Client{},
	}
}

// APIError is a non-2xx response from GitHub.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// Message extracts GitHub's "message" field, falling back to the raw body.
func (e *APIError) Message() string {
	var payload struct {
		Message string `json:"message"`
		Errors  []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal([]byte(e.Body), &payload); err != nil || payload.Message == "" {
		return e.Body
	}
	msg := payload.Message
	for _, item := range payload.Errors {
		if item.Message != "" {
			msg += ": " + item.Message
		}
	}
	return msg
}

func isStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return isStatus(err, http.StatusNotFound)
}

// IsUnprocessable reports whether err is a 422, which GitHub returns when a
// pull request already exists or the head branch is missing.
func IsUnprocessable(err error) bool {
	return isStatus(err, http.StatusUnprocessableEntity)
}

// doRequest performs an HTTP request to the GitHub API
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// GetRepository fetches repository info
func (c *Client) GetRepository(ctx context.Context, owner, repo string) (*Repository, error) {
	path := fmt.Sprintf("/repos/%s/%s", url.PathEscape(owner), url.PathEscape(repo))
	var repository Repository
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &repository); err != nil {
		return nil, err
	}
	return &repository, nil
}

// CreatePullRequest creates a new pull request
func (c *Client) CreatePullRequest(ctx context.Context, owner, repo string, input *PullRequestInput) (*PullRequest, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls", url.PathEscape(owner), url.PathEscape(repo))
	var result PullRequest
	if err := c.doRequest(ctx, http.MethodPost, path, input, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SearchIssues runs an issue search query (GitHub search syntax, e.g.
// "is:open is:pr author:me"). Only the first page is returned.
func (c *Client) SearchIssues(ctx context.Context, query string, perPage int) ([]*Issue, error) {
	if perPage <= 0 {
		perPage = 50
	}
	params := url.Values{
		"q":        {query},
		"per_page": {fmt.Sprintf("%d", perPage)},
	}

	var resp SearchResult
	if err := c.doRequest(ctx, http.MethodGet, "/search/issues?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// MyOpenPullRequestsQuery builds the search query for a user's open pull
// requests in an organisation.
func MyOpenPullRequestsQuery(username, org string) string {
	return fmt.Sprintf("is:open is:pr author:%s archived:false user:%s", username, org)
}
