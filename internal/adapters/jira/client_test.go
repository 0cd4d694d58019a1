package jira

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	client := NewClient("https://company.atlassian.net", "user@example.com", "api-token", PlatformCloud)
	if client == nil {
		t.Fatal("NewClient returned nil")
	}
	if client.baseURL != "https://company.atlassian.net" {
		t.Errorf("client.baseURL = %s, want https://company.atlassian.net", client.baseURL)
	}
	if client.platform != PlatformCloud {
		t.Errorf("client.platform = %s, want cloud", client.platform)
	}
	if client.httpClient.Timeout != 0 {
		t.Errorf("httpClient.Timeout = %v, want none", client.httpClient.Timeout)
	}
}

func TestGetIssue_CancelledContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	client := NewClient(server.URL, "user", "token", PlatformCloud)
	_, err := client.GetIssue(ctx, "PROJ-42")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("GetIssue() error = %v, want context.Canceled", err)
	}
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	client := NewClient("https://company.atlassian.net/", "user@example.com", "api-token", PlatformCloud)
	if client.baseURL != "https://company.atlassian.net" {
		t.Errorf("client.baseURL = %s, want https://company.atlassian.net (no trailing slash)", client.baseURL)
	}
}

func TestAPIPath(t *testing.T) {
	tests := []struct {
		platform string
		want     string
	}{
		{PlatformCloud, "/rest/api/3"},
		{PlatformServer, "/rest/api/2"},
	}

	for _, tt := range tests {
		t.Run(tt.platform, func(t *testing.T) {
			client := NewClient("https://jira.example.com", "user", "token", tt.platform)
			got := client.apiPath()
			if got != tt.want {
				t.Errorf("apiPath() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPermalink(t *testing.T) {
	client := NewClient("https://company.atlassian.net/", "u", "t", PlatformCloud)
	if got := client.Permalink("ABC-123"); got != "https://company.atlassian.net/browse/ABC-123" {
		t.Errorf("Permalink() = %s", got)
	}
}

func TestGetIssue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/issue/PROJ-42" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "user@example.com" || pass != "api-token" {
			t.Errorf("unexpected basic auth: %s/%s", user, pass)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "10001",
			"key": "PROJ-42",
			"fields": {
				"summary": "Test Issue",
				"description": {"type": "doc", "version": 1, "content": [
					{"type": "paragraph", "content": [{"type": "text", "text": "Issue description"}]}
				]},
				"status": {"name": "In Progress"},
				"project": {"key": "PROJ"},
				"customfield_10020": [{"id": 7, "name": "Sprint 7", "state": "active"}]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "user@example.com", "api-token", PlatformCloud)

	issue, err := client.GetIssue(context.Background(), "PROJ-42")
	if err != nil {
		t.Fatalf("GetIssue failed: %v", err)
	}
	if issue.Key != "PROJ-42" {
		t.Errorf("issue.Key = %s, want PROJ-42", issue.Key)
	}
	if got := issue.Fields.DescriptionText(); got != "Issue description" {
		t.Errorf("DescriptionText() = %q", got)
	}
	sprint, ok := issue.ActiveSprint("customfield_10020")
	if !ok || sprint.Name != "Sprint 7" {
		t.Errorf("ActiveSprint() = %+v, %v", sprint, ok)
	}
}

func TestGetIssue_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errorMessages": ["Issue Does Not Exist"]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "user", "token", PlatformCloud)
	_, err := client.GetIssue(context.Background(), "NOPE-1")
	if !IsNotFound(err) {
		t.Errorf("IsNotFound(%v) = false, want true", err)
	}
}

func TestAddComment_Cloud(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/rest/api/3/issue/PROJ-42/comment" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}

		// Cloud uses ADF format
		bodyContent, ok := body["body"].(map[string]interface{})
		if !ok {
			t.Fatal("expected ADF body format for Cloud")
		}
		if bodyContent["type"] != "doc" {
			t.Errorf("expected body type 'doc', got %v", bodyContent["type"])
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "10001", "body": {"type": "doc", "version": 1, "content": [
			{"type": "paragraph", "content": [{"type": "text", "text": "PR: https://github.com/acme/api/pull/1"}]}
		]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "user@example.com", "api-token", PlatformCloud)
	comment, err := client.AddComment(context.Background(), "PROJ-42", "PR: https://github.com/acme/api/pull/1")
	if err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}
	if got := DescriptionToPlainText(comment.Body); got != "PR: https://github.com/acme/api/pull/1" {
		t.Errorf("comment body = %q", got)
	}
}

func TestAddComment_Server(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/2/issue/PROJ-42/comment" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}

		// Server uses plain text
		if body["body"] != "Test comment" {
			t.Errorf("expected plain text body for Server, got %v", body)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "10001", "body": "Test comment"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "admin", "token", PlatformServer)
	comment, err := client.AddComment(context.Background(), "PROJ-42", "Test comment")
	if err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}
	if got := DescriptionToPlainText(comment.Body); got != "Test comment" {
		t.Errorf("comment body = %q", got)
	}
}

func TestTransitionIssueTo(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		wantID  string
		wantErr bool
	}{
		{"matches target status", "in review", "41", false},
		{"matches transition name", "Start Progress", "21", false},
		{"no match", "Blocked", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var posted string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/rest/api/3/issue/PROJ-42/transitions" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				if r.Method == http.MethodPost {
					var body struct {
						Transition struct {
							ID string `json:"id"`
						} `json:"transition"`
					}
					_ = json.NewDecoder(r.Body).Decode(&body)
					posted = body.Transition.ID
					w.WriteHeader(http.StatusNoContent)
					return
				}
				resp := TransitionsResponse{
					Transitions: []Transition{
						{ID: "21", Name: "Start Progress", To: Status{Name: "In Progress"}},
						{ID: "41", Name: "Request review", To: Status{Name: "In Review"}},
						{ID: "31", Name: "Done", To: Status{Name: "Done"}},
					},
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(resp)
			}))
			defer server.Close()

			client := NewClient(server.URL, "user@example.com", "api-token", PlatformCloud)
			err := client.TransitionIssueTo(context.Background(), "PROJ-42", tt.target)
			if (err != nil) != tt.wantErr {
				t.Fatalf("TransitionIssueTo() error = %v, wantErr %v", err, tt.wantErr)
			}
			if posted != tt.wantID {
				t.Errorf("posted transition %q, want %q", posted, tt.wantID)
			}
		})
	}
}

func TestSearchIssues(t *testing.T) {
	tests := []struct {
		platform string
		path     string
	}{
		{PlatformCloud, "/rest/api/3/search/jql"},
		{PlatformServer, "/rest/api/2/search"},
	}

	for _, tt := range tests {
		t.Run(tt.platform, func(t *testing.T) {
			jql := "assignee = currentUser() AND resolution = Unresolved"
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != tt.path {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				q := r.URL.Query()
				if q.Get("jql") != jql {
					t.Errorf("jql = %q", q.Get("jql"))
				}
				if q.Get("maxResults") != "50" {
					t.Errorf("maxResults = %q, want default 50", q.Get("maxResults"))
				}
				if q.Get("fields") != "*navigable" {
					t.Errorf("fields = %q", q.Get("fields"))
				}
				_, _ = w.Write([]byte(`{"issues": [{"key": "ABC-1"}, {"key": "ABC-2"}]}`))
			}))
			defer server.Close()

			client := NewClient(server.URL, "user", "token", tt.platform)
			issues, err := client.SearchIssues(context.Background(), jql, 0)
			if err != nil {
				t.Fatalf("SearchIssues failed: %v", err)
			}
			if len(issues) != 2 || issues[1].Key != "ABC-2" {
				t.Errorf("issues = %+v", issues)
			}
		})
	}
}

func TestListBoards_Paginates(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/agile/1.0/board" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		calls++
		switch r.URL.Query().Get("startAt") {
		case "0":
			_, _ = w.Write([]byte(`{"values": [{"id": 1, "name": "Core", "type": "scrum"}], "isLast": false}`))
		default:
			_, _ = w.Write([]byte(`{"values": [{"id": 2, "name": "Ops", "type": "kanban"}], "isLast": true}`))
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "user", "token", PlatformCloud)
	boards, err := client.ListBoards(context.Background())
	if err != nil {
		t.Fatalf("ListBoards failed: %v", err)
	}
	if calls != 2 || len(boards) != 2 || boards[1].Name != "Ops" {
		t.Errorf("calls = %d, boards = %+v", calls, boards)
	}
}

func TestActiveSprintsAndIssues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/agile/1.0/board/9/sprint":
			if r.URL.Query().Get("state") != "active" {
				t.Errorf("state = %q", r.URL.Query().Get("state"))
			}
			_, _ = w.Write([]byte(`{"values": [{"id": 31, "name": "Sprint 31", "state": "active"}]}`))
		case "/rest/agile/1.0/sprint/31/issue":
			_, _ = w.Write([]byte(`{"issues": [{"key": "ABC-5", "fields": {"summary": "x", "status": {"name": "To Do"}}}]}`))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "user", "token", PlatformCloud)
	sprints, err := client.ActiveSprints(context.Background(), 9)
	if err != nil {
		t.Fatalf("ActiveSprints failed: %v", err)
	}
	if len(sprints) != 1 || !sprints[0].Active() {
		t.Fatalf("sprints = %+v", sprints)
	}

	issues, err := client.SprintIssues(context.Background(), sprints[0].ID, 0)
	if err != nil {
		t.Fatalf("SprintIssues failed: %v", err)
	}
	if len(issues) != 1 || issues[0].Fields.Status.Name != StatusToDo {
		t.Errorf("issues = %+v", issues)
	}
}

func TestDoRequest_ErrorHandling(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		response   string
		wantErr    bool
	}{
		{
			name:       "success",
			statusCode: http.StatusOK,
			response:   `{"id": "1"}`,
			wantErr:    false,
		},
		{
			name:       "not found",
			statusCode: http.StatusNotFound,
			response:   `{"errorMessages": ["Issue Does Not Exist"]}`,
			wantErr:    true,
		},
		{
			name:       "unauthorized",
			statusCode: http.StatusUnauthorized,
			response:   `{"errorMessages": ["Unauthorized"]}`,
			wantErr:    true,
		},
		{
			name:       "malformed body",
			statusCode: http.StatusOK,
			response:   `{"id": `,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.response))
			}))
			defer server.Close()

			client := NewClient(server.URL, "user", "token", PlatformCloud)
			_, err := client.GetIssue(context.Background(), "TEST-1")

			if tt.wantErr && err == nil {
				t.Error("expected error but got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
