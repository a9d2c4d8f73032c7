// Package workspace ties a project to its generated content: it builds
// the generation context from stored state and persists accepted batches.
package workspace

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/devdash/internal/generate"
	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/store"
)

// Context returns the generation context of p. The stored PRD, when
// there is one, is included so lists follow it.
func Context(ctx context.Context, s store.Store, p model.Project, instructions string) (generate.ProjectContext, error) {
	pc := generate.ProjectContext{
		ProjectID:    p.ID,
		Name:         p.Name,
		Description:  p.Description,
		TechStack:    p.TechStack,
		Instructions: instructions,
	}
	prd, err := s.GetPRD(ctx, p.ID)
	switch {
	case err == nil:
		pc.PRD = prd.Content
	case !errors.Is(err, store.ErrNotFound):
		return pc, fmt.Errorf("loading PRD of project %s: %w", p.ID, err)
	}
	return pc, nil
}

// Accept appends a validated batch to the project. All records must be
// of type ct. It returns the stored records with IDs assigned.
func Accept(ctx context.Context, s store.Store, projectID string, ct model.ContentType, records []model.Record) ([]model.Record, error) {
	for i, r := range records {
		if r.ContentType() != ct {
			return nil, fmt.Errorf("record %d is %s, want %s", i, r.ContentType(), ct)
		}
	}

	switch ct {
	case model.ContentRoadmap:
		created, err := s.CreateRoadmapItems(ctx, projectID, generate.RoadmapItems(records))
		return asRecords(created), err
	case model.ContentTask:
		created, err := s.CreateTasks(ctx, projectID, generate.TaskItems(records))
		return asRecords(created), err
	case model.ContentDeployment:
		created, err := s.CreateDeploymentItems(ctx, projectID, generate.DeploymentItems(records))
		return asRecords(created), err
	}
	return nil, fmt.Errorf("content type %q is not a list type", ct)
}

// Items returns the stored records of type ct in position order.
func Items(ctx context.Context, s store.Store, projectID string, ct model.ContentType) ([]model.Record, error) {
	switch ct {
	case model.ContentRoadmap:
		items, err := s.GetRoadmapItems(ctx, projectID)
		return asRecords(items), err
	case model.ContentTask:
		items, err := s.GetTasks(ctx, projectID)
		return asRecords(items), err
	case model.ContentDeployment:
		items, err := s.GetDeploymentItems(ctx, projectID)
		return asRecords(items), err
	}
	return nil, fmt.Errorf("content type %q is not a list type", ct)
}

func asRecords[T model.Record](items []T) []model.Record {
	if items == nil {
		return nil
	}
	out := make([]model.Record, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}
