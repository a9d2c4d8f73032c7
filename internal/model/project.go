package model

import "time"

// Project is a software-project workspace owning a PRD, a roadmap,
// tasks and a deployment checklist.
type Project struct {
	ID          string `json:"id" db:"id"`
	OwnerID     string `json:"owner_id" db:"owner_id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
	TechStack   string `json:"tech_stack" db:"tech_stack"`

	// RepoOwner and RepoName identify the GitHub repository tasks are
	// mirrored to. Both are empty when mirroring is not configured.
	RepoOwner string `json:"repo_owner" db:"repo_owner"`
	RepoName  string `json:"repo_name" db:"repo_name"`

	Archived  bool      `json:"archived" db:"archived"`
	SortOrder int       `json:"sort_order" db:"sort_order"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasRepo reports whether the project is linked to a GitHub repository.
func (p Project) HasRepo() bool {
	return p.RepoOwner != "" && p.RepoName != ""
}

// PRD is the product requirements document of a project. Each save
// bumps Version.
type PRD struct {
	ProjectID string    `json:"project_id" db:"project_id"`
	Content   string    `json:"content" db:"content"`
	Version   int       `json:"version" db:"version"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
