package model

import "time"

// Issue link type constants.
const (
	LinkTypeCreated    = "created"
	LinkTypeReferenced = "referenced"
)

// IssueState mirrors the open/closed state of a GitHub issue.
const (
	IssueStateOpen   = "open"
	IssueStateClosed = "closed"
)

// IssueLink associates a local task with a GitHub issue it is mirrored to.
type IssueLink struct {
	ID          string    `json:"id" db:"id"`
	TaskID      string    `json:"task_id" db:"task_id"`
	ProjectID   string    `json:"project_id" db:"project_id"`
	RepoOwner   string    `json:"repo_owner" db:"repo_owner"`
	RepoName    string    `json:"repo_name" db:"repo_name"`
	IssueNumber int       `json:"issue_number" db:"issue_number"`
	IssueURL    string    `json:"issue_url" db:"issue_url"`
	IssueState  string    `json:"issue_state" db:"issue_state"`
	LinkType    string    `json:"link_type" db:"link_type"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	SyncedAt    time.Time `json:"synced_at" db:"synced_at"`

	// TaskTitle is optionally populated by join queries.
	TaskTitle string `json:"task_title,omitempty" db:"-"`
}
