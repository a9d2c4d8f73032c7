package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/devdash/internal/model"
)

// CreateIssueLink links a task to a GitHub issue. A task has at most one
// link.
func (s *SQLiteStore) CreateIssueLink(ctx context.Context, link model.IssueLink) (*model.IssueLink, error) {
	if link.ID == "" {
		link.ID = uuid.New().String()
	}
	if link.LinkType == "" {
		link.LinkType = model.LinkTypeCreated
	}
	if link.IssueState == "" {
		link.IssueState = model.IssueStateOpen
	}
	now := time.Now().UTC()
	link.CreatedAt = now
	link.SyncedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO issue_links (
			id, task_id, project_id, repo_owner, repo_name,
			issue_number, issue_url, issue_state, link_type,
			created_at, synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		link.ID, link.TaskID, link.ProjectID, link.RepoOwner, link.RepoName,
		link.IssueNumber, link.IssueURL, link.IssueState, link.LinkType,
		link.CreatedAt, link.SyncedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating issue link for task %s: %w", link.TaskID, err)
	}
	return &link, nil
}

// GetIssueLinkForTask retrieves the issue link of a task.
func (s *SQLiteStore) GetIssueLinkForTask(ctx context.Context, taskID string) (*model.IssueLink, error) {
	var link model.IssueLink
	err := s.db.GetContext(ctx, &link, `
		SELECT id, task_id, project_id, repo_owner, repo_name, issue_number,
			issue_url, issue_state, link_type, created_at, synced_at
		FROM issue_links WHERE task_id = ?`, taskID)
	if err != nil {
		return nil, notFound(err, "issue link for task", taskID)
	}
	return &link, nil
}

// ListIssueLinks retrieves issue links with their task titles.
func (s *SQLiteStore) ListIssueLinks(
	ctx context.Context,
	filter IssueLinkFilter,
) ([]model.IssueLink, error) {
	var conditions []string
	var args []interface{}

	if filter.ProjectID != nil {
		conditions = append(conditions, "l.project_id = ?")
		args = append(args, *filter.ProjectID)
	}
	if filter.State != nil {
		conditions = append(conditions, "l.issue_state = ?")
		args = append(args, *filter.State)
	}

	query := `
		SELECT l.id, l.task_id, l.project_id, l.repo_owner, l.repo_name,
			l.issue_number, l.issue_url, l.issue_state, l.link_type,
			l.created_at, l.synced_at, COALESCE(t.title, '') AS task_title
		FROM issue_links l
		LEFT JOIN tasks t ON l.task_id = t.id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY l.created_at"

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying issue links: %w", err)
	}
	defer rows.Close()

	links := []model.IssueLink{}
	for rows.Next() {
		var link model.IssueLink
		if err := rows.Scan(
			&link.ID, &link.TaskID, &link.ProjectID, &link.RepoOwner, &link.RepoName,
			&link.IssueNumber, &link.IssueURL, &link.IssueState, &link.LinkType,
			&link.CreatedAt, &link.SyncedAt, &link.TaskTitle,
		); err != nil {
			return nil, fmt.Errorf("scanning issue link row: %w", err)
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// UpdateIssueLinkState records the latest known state of a linked issue.
func (s *SQLiteStore) UpdateIssueLinkState(
	ctx context.Context,
	id, state string,
	syncedAt time.Time,
) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE issue_links SET issue_state = ?, synced_at = ? WHERE id = ?",
		state, syncedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("updating issue link %s: %w", id, err)
	}
	return requireAffected(result, "issue link", id)
}
