// Package jira is a small REST client for the Jira issue tracker, covering
// the issue, transition, comment and Agile board endpoints robota uses.
package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const agilePath = "/rest/agile/1.0"

// Client is a Jira API client
type Client struct {
	baseURL    string
	username   string
	apiToken   string
	platform   string
	httpClient *http.Client
}

// NewClient creates a new Jira client
func NewClient(baseURL, username, apiToken, platform string) *Client {
	// Ensure baseURL doesn't have trailing slash
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &Client{
		baseURL:  baseURL,
		username: username,
		apiToken: apiToken,
		platform: platform,
		// requests are bounded by the caller's context only
		httpClient: &http.Client{},
	}
}

// APIError is a non-2xx response from Jira.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// apiPath returns the correct API path based on platform
func (c *Client) apiPath() string {
	if c.platform == PlatformCloud {
		return "/rest/api/3"
	}
	return "/rest/api/2"
}

// Permalink returns the browser URL of an issue.
func (c *Client) Permalink(issueKey string) string {
	return c.baseURL + "/browse/" + issueKey
}

// doRequest performs an HTTP request against the platform REST API.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	return c.do(ctx, method, c.apiPath()+path, body, result)
}

// do performs an HTTP request against an absolute API path.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, result interface{}) error {
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

	// Basic auth: email:api_token on Cloud, username:token on Server
	auth := base64.StdEncoding.EncodeToString([]byte(c.username + ":" + c.apiToken))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Accept", "application/json")
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

// GetIssue fetches an issue by key (e.g., "PROJ-42")
func (c *Client) GetIssue(ctx context.Context, issueKey string) (*Issue, error) {
	path := fmt.Sprintf("/issue/%s", url.PathEscape(issueKey))
	var issue Issue
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// AddComment adds a comment to an issue
func (c *Client) AddComment(ctx context.Context, issueKey, body string) (*Comment, error) {
	path := fmt.Sprintf("/issue/%s/comment", url.PathEscape(issueKey))

	// Jira Cloud uses ADF (Atlassian Document Format), Server uses plain text
	var reqBody interface{}
	if c.platform == PlatformCloud {
		reqBody = map[string]interface{}{"body": plainTextToADF(body)}
	} else {
		reqBody = map[string]string{"body": body}
	}

	var comment Comment
	if err := c.doRequest(ctx, http.MethodPost, path, reqBody, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// GetTransitions fetches available transitions for an issue
func (c *Client) GetTransitions(ctx context.Context, issueKey string) ([]Transition, error) {
	path := fmt.Sprintf("/issue/%s/transitions", url.PathEscape(issueKey))
	var resp TransitionsResponse
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Transitions, nil
}

// TransitionIssue performs a workflow transition on an issue
func (c *Client) TransitionIssue(ctx context.Context, issueKey, transitionID string) error {
	path := fmt.Sprintf("/issue/%s/transitions", url.PathEscape(issueKey))
	reqBody := map[string]interface{}{
		"transition": map[string]string{
			"id": transitionID,
		},
	}
	return c.doRequest(ctx, http.MethodPost, path, reqBody, nil)
}

// TransitionIssueTo finds and performs a transition to the specified status.
// Both the target status name and the transition name are matched,
// case-insensitively.
func (c *Client) TransitionIssueTo(ctx context.Context, issueKey, statusName string) error {
	transitions, err := c.GetTransitions(ctx, issueKey)
	if err != nil {
		return fmt.Errorf("failed to get transitions: %w", err)
	}

	for _, t := range transitions {
		if strings.EqualFold(t.To.Name, statusName) || strings.EqualFold(t.Name, statusName) {
			return c.TransitionIssue(ctx, issueKey, t.ID)
		}
	}

	return fmt.Errorf("no transition found to status: %s", statusName)
}

// SearchIssues searches for issues using JQL. With no fields given every
// navigable field, custom fields included, is returned.
func (c *Client) SearchIssues(ctx context.Context, jql string, maxResults int, fields ...string) ([]*Issue, error) {
	if maxResults <= 0 {
		maxResults = 50
	}
	if len(fields) == 0 {
		fields = []string{"*navigable"}
	}

	params := url.Values{
		"jql":        {jql},
		"maxResults": {strconv.Itoa(maxResults)},
		"fields":     {strings.Join(fields, ",")},
	}

	// Cloud retired GET /search in favour of /search/jql
	endpoint := "/search"
	if c.platform == PlatformCloud {
		endpoint = "/search/jql"
	}

	var resp SearchResponse
	if err := c.doRequest(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Issues, nil
}

// ListBoards returns every Agile board visible to the user.
func (c *Client) ListBoards(ctx context.Context) ([]Board, error) {
	var boards []Board
	for startAt := 0; ; {
		params := url.Values{"startAt": {strconv.Itoa(startAt)}}
		var resp boardsResponse
		if err := c.do(ctx, http.MethodGet, agilePath+"/board?"+params.Encode(), nil, &resp); err != nil {
			return nil, err
		}
		boards = append(boards, resp.Values...)
		if resp.IsLast || len(resp.Values) == 0 {
			return boards, nil
		}
		startAt += len(resp.Values)
	}
}

// ActiveSprints returns the running sprints of a board.
func (c *Client) ActiveSprints(ctx context.Context, boardID int) ([]Sprint, error) {
	path := fmt.Sprintf("%s/board/%d/sprint?state=%s", agilePath, boardID, SprintStateActive)
	var resp sprintsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// SprintIssues returns the issues of a sprint.
func (c *Client) SprintIssues(ctx context.Context, sprintID, maxResults int) ([]*Issue, error) {
	if maxResults <= 0 {
		maxResults = 50
	}
	path := fmt.Sprintf("%s/sprint/%d/issue?maxResults=%d", agilePath, sprintID, maxResults)
	var resp SearchResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Issues, nil
}
