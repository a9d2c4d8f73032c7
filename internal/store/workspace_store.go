package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/devdash/internal/model"
)

const (
	roadmapColumns = `id, project_id, title, description, status, phase,
		milestone, color, position, created_at, updated_at`
	taskColumns = `id, project_id, title, description, status, priority,
		estimated_hours, due_date, tags, dependencies, position, created_at, updated_at`
	deploymentColumns = `id, project_id, title, description, category, platform,
		environment, status, priority, is_required, verification_notes,
		helpful_links, position, created_at, updated_at`
)

// nextPosition returns the position after the last row of table for the
// project, so an accepted batch is appended in its own order.
func nextPosition(ctx context.Context, tx *sqlx.Tx, table, projectID string) (int, error) {
	var next int
	err := tx.GetContext(ctx, &next,
		"SELECT COALESCE(MAX(position) + 1, 0) FROM "+table+" WHERE project_id = ?",
		projectID)
	if err != nil {
		return 0, fmt.Errorf("reading next position in %s: %w", table, err)
	}
	return next, nil
}

// CreateRoadmapItems inserts a generated batch in one transaction, in
// order, and returns the persisted items.
func (s *SQLiteStore) CreateRoadmapItems(
	ctx context.Context,
	projectID string,
	items []model.RoadmapItem,
) ([]model.RoadmapItem, error) {
	if len(items) == 0 {
		return []model.RoadmapItem{}, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	base, err := nextPosition(ctx, tx, "roadmap_items", projectID)
	if err != nil {
		return nil, err
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO roadmap_items (`+roadmapColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("preparing roadmap insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	out := make([]model.RoadmapItem, 0, len(items))
	for i, it := range items {
		it.ID = uuid.New().String()
		it.ProjectID = projectID
		it.Position = base + i
		it.CreatedAt = now
		it.UpdatedAt = now

		_, err := stmt.ExecContext(ctx,
			it.ID, it.ProjectID, it.Title, it.Description, it.Status, it.Phase,
			boolToInt(it.Milestone), it.Color, it.Position, it.CreatedAt, it.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting roadmap item %d: %w", i, err)
		}
		out = append(out, it)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing roadmap items: %w", err)
	}
	return out, nil
}

// GetRoadmapItems lists a project's roadmap in position order.
func (s *SQLiteStore) GetRoadmapItems(ctx context.Context, projectID string) ([]model.RoadmapItem, error) {
	items := []model.RoadmapItem{}
	err := s.db.SelectContext(ctx, &items,
		"SELECT "+roadmapColumns+" FROM roadmap_items WHERE project_id = ? ORDER BY position",
		projectID)
	if err != nil {
		return nil, fmt.Errorf("querying roadmap for project %s: %w", projectID, err)
	}
	return items, nil
}

// CreateTasks inserts a generated batch of tasks in one transaction.
func (s *SQLiteStore) CreateTasks(
	ctx context.Context,
	projectID string,
	tasks []model.TaskItem,
) ([]model.TaskItem, error) {
	if len(tasks) == 0 {
		return []model.TaskItem{}, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	base, err := nextPosition(ctx, tx, "tasks", projectID)
	if err != nil {
		return nil, err
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("preparing task insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	out := make([]model.TaskItem, 0, len(tasks))
	for i, t := range tasks {
		t.ID = uuid.New().String()
		t.ProjectID = projectID
		t.Position = base + i
		t.CreatedAt = now
		t.UpdatedAt = now
		if t.Tags == nil {
			t.Tags = model.StringList{}
		}
		if t.Dependencies == nil {
			t.Dependencies = model.StringList{}
		}

		_, err := stmt.ExecContext(ctx,
			t.ID, t.ProjectID, t.Title, t.Description, t.Status, t.Priority,
			t.EstimatedHours, t.DueDate, t.Tags, t.Dependencies, t.Position,
			t.CreatedAt, t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting task %d: %w", i, err)
		}
		out = append(out, t)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing tasks: %w", err)
	}
	return out, nil
}

// GetTasks lists a project's tasks in position order.
func (s *SQLiteStore) GetTasks(ctx context.Context, projectID string) ([]model.TaskItem, error) {
	tasks := []model.TaskItem{}
	err := s.db.SelectContext(ctx, &tasks,
		"SELECT "+taskColumns+" FROM tasks WHERE project_id = ? ORDER BY position",
		projectID)
	if err != nil {
		return nil, fmt.Errorf("querying tasks for project %s: %w", projectID, err)
	}
	return tasks, nil
}

// GetTaskByID retrieves a single task.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, id string) (*model.TaskItem, error) {
	var t model.TaskItem
	err := s.db.GetContext(ctx, &t, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	if err != nil {
		return nil, notFound(err, "task", id)
	}
	return &t, nil
}

// UpdateTaskStatus sets the workflow status of a task.
func (s *SQLiteStore) UpdateTaskStatus(ctx context.Context, id string, status model.TaskStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid task status %q", status)
	}
	result, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating status of task %s: %w", id, err)
	}
	return requireAffected(result, "task", id)
}

// CreateDeploymentItems inserts a generated checklist batch in one
// transaction.
func (s *SQLiteStore) CreateDeploymentItems(
	ctx context.Context,
	projectID string,
	items []model.DeploymentItem,
) ([]model.DeploymentItem, error) {
	if len(items) == 0 {
		return []model.DeploymentItem{}, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	base, err := nextPosition(ctx, tx, "deployment_items", projectID)
	if err != nil {
		return nil, err
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO deployment_items (`+deploymentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("preparing deployment insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	out := make([]model.DeploymentItem, 0, len(items))
	for i, d := range items {
		d.ID = uuid.New().String()
		d.ProjectID = projectID
		d.Position = base + i
		d.CreatedAt = now
		d.UpdatedAt = now
		if d.HelpfulLinks == nil {
			d.HelpfulLinks = model.LinkList{}
		}

		_, err := stmt.ExecContext(ctx,
			d.ID, d.ProjectID, d.Title, d.Description, d.Category, d.Platform,
			d.Environment, d.Status, d.Priority, boolToInt(d.IsRequired),
			d.VerificationNotes, d.HelpfulLinks, d.Position, d.CreatedAt, d.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting deployment item %d: %w", i, err)
		}
		out = append(out, d)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing deployment items: %w", err)
	}
	return out, nil
}

// GetDeploymentItems lists a project's checklist in position order.
func (s *SQLiteStore) GetDeploymentItems(ctx context.Context, projectID string) ([]model.DeploymentItem, error) {
	items := []model.DeploymentItem{}
	err := s.db.SelectContext(ctx, &items,
		"SELECT "+deploymentColumns+" FROM deployment_items WHERE project_id = ? ORDER BY position",
		projectID)
	if err != nil {
		return nil, fmt.Errorf("querying deployment checklist for project %s: %w", projectID, err)
	}
	return items, nil
}

// GetDeploymentItemByID retrieves a single checklist item.
func (s *SQLiteStore) GetDeploymentItemByID(ctx context.Context, id string) (*model.DeploymentItem, error) {
	var item model.DeploymentItem
	err := s.db.GetContext(ctx, &item,
		"SELECT "+deploymentColumns+" FROM deployment_items WHERE id = ?", id)
	if err != nil {
		return nil, notFound(err, "deployment item", id)
	}
	return &item, nil
}

// UpdateDeploymentStatus sets the completion status of a checklist item.
func (s *SQLiteStore) UpdateDeploymentStatus(
	ctx context.Context,
	id string,
	status model.DeploymentStatus,
) error {
	if !status.Valid() {
		return fmt.Errorf("invalid deployment status %q", status)
	}
	result, err := s.db.ExecContext(ctx,
		"UPDATE deployment_items SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating status of deployment item %s: %w", id, err)
	}
	return requireAffected(result, "deployment item", id)
}
