package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/devdash/internal/model"
)

// ErrNotFound is returned (wrapped) when a lookup or update matches no row.
var ErrNotFound = errors.New("not found")

// ProjectFilter controls which projects GetProjects returns.
type ProjectFilter struct {
	OwnerID         *string
	IncludeArchived bool
}

// PostSort selects the ordering of community posts.
type PostSort string

const (
	PostSortNew PostSort = "new"
	PostSortTop PostSort = "top"
)

// PostFilter controls filtering, sorting, and pagination for post queries.
type PostFilter struct {
	Tool      *string
	Tag       *string
	AuthorID  *string
	Query     *string // search title + content
	SavedOnly bool    // only posts saved by the requesting user
	SortBy    PostSort
	Limit     int
	Offset    int
}

// IssueLinkFilter controls which issue links ListIssueLinks returns.
type IssueLinkFilter struct {
	ProjectID *string
	State     *string
}

// Store defines the persistence interface for project workspaces, their
// generated content, the community forum, and GitHub issue links.
type Store interface {
	// === Projects ===

	CreateProject(ctx context.Context, project model.Project) (*model.Project, error)
	UpdateProject(ctx context.Context, project model.Project) error
	DeleteProject(ctx context.Context, id string) error
	GetProjectByID(ctx context.Context, id string) (*model.Project, error)
	GetProjects(ctx context.Context, filter ProjectFilter) ([]model.Project, error)
	ArchiveProject(ctx context.Context, id string) error
	RestoreProject(ctx context.Context, id string) error

	// === PRD ===

	SavePRD(ctx context.Context, projectID, content string) (*model.PRD, error)
	GetPRD(ctx context.Context, projectID string) (*model.PRD, error)

	// === Generated content ===

	CreateRoadmapItems(ctx context.Context, projectID string, items []model.RoadmapItem) ([]model.RoadmapItem, error)
	GetRoadmapItems(ctx context.Context, projectID string) ([]model.RoadmapItem, error)

	CreateTasks(ctx context.Context, projectID string, tasks []model.TaskItem) ([]model.TaskItem, error)
	GetTasks(ctx context.Context, projectID string) ([]model.TaskItem, error)
	GetTaskByID(ctx context.Context, id string) (*model.TaskItem, error)
	UpdateTaskStatus(ctx context.Context, id string, status model.TaskStatus) error

	CreateDeploymentItems(ctx context.Context, projectID string, items []model.DeploymentItem) ([]model.DeploymentItem, error)
	GetDeploymentItems(ctx context.Context, projectID string) ([]model.DeploymentItem, error)
	GetDeploymentItemByID(ctx context.Context, id string) (*model.DeploymentItem, error)
	UpdateDeploymentStatus(ctx context.Context, id string, status model.DeploymentStatus) error

	// === Community ===

	CreatePost(ctx context.Context, post model.Post) (*model.Post, error)
	GetPosts(ctx context.Context, userID string, filter PostFilter) ([]model.Post, error)
	GetPostByID(ctx context.Context, userID, id string) (*model.Post, error)
	UpsertVote(ctx context.Context, userID, postID string, vt model.VoteType) error
	DeleteVote(ctx context.Context, userID, postID string) error
	SavePost(ctx context.Context, userID, postID string) error
	UnsavePost(ctx context.Context, userID, postID string) error
	CreateComment(ctx context.Context, c model.Comment) (*model.Comment, error)
	GetComments(ctx context.Context, postID string) ([]model.Comment, error)

	// === Issue links ===

	CreateIssueLink(ctx context.Context, link model.IssueLink) (*model.IssueLink, error)
	GetIssueLinkForTask(ctx context.Context, taskID string) (*model.IssueLink, error)
	ListIssueLinks(ctx context.Context, filter IssueLinkFilter) ([]model.IssueLink, error)
	UpdateIssueLinkState(ctx context.Context, id, state string, syncedAt time.Time) error
}
