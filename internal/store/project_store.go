package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/devdash/internal/model"
)

const projectColumns = `id, owner_id, name, description, tech_stack,
	repo_owner, repo_name, archived, sort_order, created_at, updated_at`

// CreateProject inserts a new project and returns it with its ID set.
func (s *SQLiteStore) CreateProject(ctx context.Context, project model.Project) (*model.Project, error) {
	if strings.TrimSpace(project.Name) == "" {
		return nil, fmt.Errorf("project name must not be empty")
	}
	if project.ID == "" {
		project.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now

	if project.SortOrder == 0 {
		var maxOrder int
		if err := s.db.GetContext(ctx, &maxOrder,
			"SELECT COALESCE(MAX(sort_order), 0) FROM projects WHERE owner_id = ?",
			project.OwnerID); err != nil {
			return nil, fmt.Errorf("getting max sort_order: %w", err)
		}
		project.SortOrder = maxOrder + 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		project.ID, project.OwnerID, project.Name, project.Description, project.TechStack,
		project.RepoOwner, project.RepoName, boolToInt(project.Archived), project.SortOrder,
		project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	return &project, nil
}

// UpdateProject updates an existing project.
func (s *SQLiteStore) UpdateProject(ctx context.Context, project model.Project) error {
	if strings.TrimSpace(project.Name) == "" {
		return fmt.Errorf("project name must not be empty")
	}
	project.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE projects SET
			name = ?, description = ?, tech_stack = ?,
			repo_owner = ?, repo_name = ?,
			archived = ?, sort_order = ?, updated_at = ?
		WHERE id = ?`,
		project.Name, project.Description, project.TechStack,
		project.RepoOwner, project.RepoName,
		boolToInt(project.Archived), project.SortOrder, project.UpdatedAt,
		project.ID,
	)
	if err != nil {
		return fmt.Errorf("updating project %s: %w", project.ID, err)
	}
	return requireAffected(result, "project", project.ID)
}

// DeleteProject removes a project. Its PRD, content and issue links cascade.
func (s *SQLiteStore) DeleteProject(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}
	return requireAffected(result, "project", id)
}

// GetProjectByID retrieves a single project by ID.
func (s *SQLiteStore) GetProjectByID(
	ctx context.Context,
	id string,
) (*model.Project, error) {
	var project model.Project
	err := s.db.GetContext(ctx, &project,
		"SELECT "+projectColumns+" FROM projects WHERE id = ?", id)
	if err != nil {
		return nil, notFound(err, "project", id)
	}
	return &project, nil
}

// GetProjects retrieves projects, optionally restricted to one owner and
// including archived ones.
func (s *SQLiteStore) GetProjects(
	ctx context.Context,
	filter ProjectFilter,
) ([]model.Project, error) {
	var conditions []string
	var args []interface{}

	if filter.OwnerID != nil {
		conditions = append(conditions, "owner_id = ?")
		args = append(args, *filter.OwnerID)
	}
	if !filter.IncludeArchived {
		conditions = append(conditions, "archived = 0")
	}

	query := "SELECT " + projectColumns + " FROM projects"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY sort_order, created_at"

	projects := []model.Project{}
	if err := s.db.SelectContext(ctx, &projects, query, args...); err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	return projects, nil
}

// ArchiveProject sets the archived flag to true.
func (s *SQLiteStore) ArchiveProject(ctx context.Context, id string) error {
	return s.setArchived(ctx, id, true)
}

// RestoreProject sets the archived flag to false.
func (s *SQLiteStore) RestoreProject(ctx context.Context, id string) error {
	return s.setArchived(ctx, id, false)
}

func (s *SQLiteStore) setArchived(ctx context.Context, id string, archived bool) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE projects SET archived = ?, updated_at = ? WHERE id = ?",
		boolToInt(archived), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("setting archived=%t on project %s: %w", archived, id, err)
	}
	return requireAffected(result, "project", id)
}

// SavePRD stores the PRD content for a project, bumping its version.
func (s *SQLiteStore) SavePRD(ctx context.Context, projectID, content string) (*model.PRD, error) {
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prds (project_id, content, version, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			content = excluded.content,
			version = prds.version + 1,
			updated_at = excluded.updated_at`,
		projectID, content, now,
	)
	if err != nil {
		return nil, fmt.Errorf("saving PRD for project %s: %w", projectID, err)
	}
	return s.GetPRD(ctx, projectID)
}

// GetPRD retrieves the current PRD of a project.
func (s *SQLiteStore) GetPRD(ctx context.Context, projectID string) (*model.PRD, error) {
	var prd model.PRD
	err := s.db.GetContext(ctx, &prd,
		"SELECT project_id, content, version, updated_at FROM prds WHERE project_id = ?",
		projectID)
	if err != nil {
		return nil, notFound(err, "PRD for project", projectID)
	}
	return &prd, nil
}
