package jira

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Platform types
const (
	PlatformCloud  = "cloud"
	PlatformServer = "server"
)

// Issue states robota knows how to order and colour.
const (
	StatusToDo       = "To Do"
	StatusInProgress = "In Progress"
	StatusInReview   = "In Review"
	StatusDone       = "Done"
)

// SprintStateActive is the state of a running sprint.
const SprintStateActive = "active"

// Issue represents a Jira issue
type Issue struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Self   string `json:"self"`
	Fields Fields `json:"fields"`
}

// Number returns the numeric suffix of the issue key.
func (i *Issue) Number() int {
	return KeyNumber(i.Key)
}

// Sprints decodes the sprint custom field. Cloud returns objects, Server
// returns serialized GreenHopper strings; both are understood.
func (i *Issue) Sprints(field string) []Sprint {
	raw, ok := i.Fields.Custom[field]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var sprints []Sprint
	if err := json.Unmarshal(raw, &sprints); err == nil {
		return sprints
	}

	var encoded []string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil
	}
	for _, s := range encoded {
		sprints = append(sprints, parseServerSprint(s))
	}
	return sprints
}

// ActiveSprint returns the issue's first sprint when that sprint is active.
func (i *Issue) ActiveSprint(field string) (Sprint, bool) {
	sprints := i.Sprints(field)
	if len(sprints) == 0 || !sprints[0].Active() {
		return Sprint{}, false
	}
	return sprints[0], true
}

// AssigneeName returns the assignee's display name or "Unassigned".
func (i *Issue) AssigneeName() string {
	if i.Fields.Assignee == nil || i.Fields.Assignee.DisplayName == "" {
		return "Unassigned"
	}
	return i.Fields.Assignee.DisplayName
}

// Fields represents Jira issue fields
type Fields struct {
	Summary     string          `json:"summary"`
	Description json.RawMessage `json:"description,omitempty"`
	IssueType   IssueType       `json:"issuetype"`
	Status      Status          `json:"status"`
	Priority    *Priority       `json:"priority,omitempty"`
	Labels      []string        `json:"labels,omitempty"`
	Assignee    *User           `json:"assignee,omitempty"`
	Reporter    *User           `json:"reporter,omitempty"`
	Project     Project         `json:"project"`
	Created     string          `json:"created,omitempty"`
	Updated     string          `json:"updated,omitempty"`

	// Custom holds customfield_* values, keyed by field id.
	Custom map[string]json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps custom fields alongside the known ones.
func (f *Fields) UnmarshalJSON(data []byte) error {
	type plain Fields
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	*f = Fields(p)
	for k, v := range all {
		if strings.HasPrefix(k, "customfield_") {
			if f.Custom == nil {
				f.Custom = make(map[string]json.RawMessage)
			}
			f.Custom[k] = v
		}
	}
	return nil
}

// MarshalJSON writes custom fields back next to the known ones.
func (f Fields) MarshalJSON() ([]byte, error) {
	type plain Fields
	data, err := json.Marshal(plain(f))
	if err != nil || len(f.Custom) == 0 {
		return data, err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for k, v := range f.Custom {
		all[k] = v
	}
	return json.Marshal(all)
}

// DescriptionText returns the description as plain text.
func (f *Fields) DescriptionText() string {
	return DescriptionToPlainText(f.Description)
}

// UpdatedTime parses the Updated timestamp. The zero time is returned when
// the field is missing or malformed.
func (f *Fields) UpdatedTime() time.Time {
	return parseTime(f.Updated)
}

func parseTime(s string) time.Time {
	for _, layout := range []string{"2006-01-02T15:04:05.000-0700", time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// IssueType represents a Jira issue type
type IssueType struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Status represents a Jira status
type Status struct {
	ID             string         `json:"id,omitempty"`
	Name           string         `json:"name"`
	StatusCategory StatusCategory `json:"statusCategory"`
}

// StatusCategory represents a Jira status category
type StatusCategory struct {
	ID   int    `json:"id,omitempty"`
	Key  string `json:"key,omitempty"`
	Name string `json:"name,omitempty"`
}

// Priority represents a Jira priority
type Priority struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// User represents a Jira user
type User struct {
	AccountID    string `json:"accountId,omitempty"` // Cloud
	Name         string `json:"name,omitempty"`      // Server
	EmailAddress string `json:"emailAddress,omitempty"`
	DisplayName  string `json:"displayName"`
}

// Project represents a Jira project
type Project struct {
	ID   string `json:"id,omitempty"`
	Key  string `json:"key"`
	Name string `json:"name,omitempty"`
}

// Transition represents a Jira workflow transition
type Transition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	To   Status `json:"to"`
}

// TransitionsResponse represents the response from the transitions API
type TransitionsResponse struct {
	Transitions []Transition `json:"transitions"`
}

// Comment represents a Jira comment. Body is ADF on Cloud and a string on Server.
type Comment struct {
	ID      string          `json:"id"`
	Body    json.RawMessage `json:"body,omitempty"`
	Author  User            `json:"author"`
	Created string          `json:"created,omitempty"`
}

// Board is an Agile board.
type Board struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Sprint is an Agile sprint.
type Sprint struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	State     string `json:"state"`
	BoardID   int    `json:"boardId,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

// Active reports whether the sprint is running.
func (s Sprint) Active() bool {
	return strings.EqualFold(s.State, SprintStateActive)
}

var serverSprintAttr = regexp.MustCompile(`(\w+)=([^,\]]*)`)

// parseServerSprint decodes "com.atlassian...Sprint@1f[id=3,rapidViewId=1,state=ACTIVE,name=Sprint 3,...]".
func parseServerSprint(s string) Sprint {
	var sprint Sprint
	if i := strings.Index(s, "["); i >= 0 {
		s = s[i+1:]
	}
	for _, m := range serverSprintAttr.FindAllStringSubmatch(s, -1) {
		switch m[1] {
		case "id":
			sprint.ID, _ = strconv.Atoi(m[2])
		case "rapidViewId":
			sprint.BoardID, _ = strconv.Atoi(m[2])
		case "state":
			sprint.State = strings.ToLower(m[2])
		case "name":
			sprint.Name = m[2]
		case "startDate":
			sprint.StartDate = m[2]
		case "endDate":
			sprint.EndDate = m[2]
		}
	}
	return sprint
}

// KeyNumber returns the numeric part of an issue key ("ABC-123" -> 123), or
// 0 when the key has none.
func KeyNumber(key string) int {
	i := strings.LastIndex(key, "-")
	if i < 0 {
		return 0
	}
	n, err := strconv.Atoi(key[i+1:])
	if err != nil {
		return 0
	}
	return n
}

// SearchResponse represents the response from the search API
type SearchResponse struct {
	Issues        []*Issue `json:"issues"`
	Total         int      `json:"total,omitempty"`
	StartAt       int      `json:"startAt,omitempty"`
	MaxResults    int      `json:"maxResults,omitempty"`
	NextPageToken string   `json:"nextPageToken,omitempty"`
}

type boardsResponse struct {
	Values []Board `json:"values"`
	IsLast bool    `json:"isLast"`
}

type sprintsResponse struct {
	Values []Sprint `json:"values"`
}
