package projectmgr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/store"
	"github.com/nhle/devdash/internal/theme"
)

// summary is the workspace content of one project, shown beside the list.
type summary struct {
	tasks      int
	tasksDone  int
	roadmap    int
	milestones int
	deploy     int
	deployDone int
	prdVersion int // 0 when the project has no PRD
}

func loadSummary(ctx context.Context, s store.Store, projectID string) (summary, error) {
	var sum summary

	tasks, err := s.GetTasks(ctx, projectID)
	if err != nil {
		return sum, err
	}
	sum.tasks = len(tasks)
	for _, t := range tasks {
		if t.Status == model.TaskDone {
			sum.tasksDone++
		}
	}

	roadmap, err := s.GetRoadmapItems(ctx, projectID)
	if err != nil {
		return sum, err
	}
	sum.roadmap = len(roadmap)
	for _, r := range roadmap {
		if r.Milestone {
			sum.milestones++
		}
	}

	items, err := s.GetDeploymentItems(ctx, projectID)
	if err != nil {
		return sum, err
	}
	for _, d := range items {
		// Not-applicable items do not count toward readiness.
		if d.Status == model.DeploymentNotApplicable {
			continue
		}
		sum.deploy++
		if d.Status == model.DeploymentDone {
			sum.deployDone++
		}
	}

	prd, err := s.GetPRD(ctx, projectID)
	switch {
	case err == nil:
		sum.prdVersion = prd.Version
	case !errors.Is(err, store.ErrNotFound):
		return sum, err
	}
	return sum, nil
}

// progressBar renders done/total as a fixed-width bar.
func progressBar(done, total, width int) string {
	if total == 0 {
		return theme.DimmedStyle.Render(strings.Repeat("·", width))
	}
	filled := done * width / total
	bar := lipgloss.NewStyle().Foreground(theme.ColorGreen).Render(strings.Repeat("█", filled))
	return bar + theme.DimmedStyle.Render(strings.Repeat("░", width-filled))
}

func renderSummary(p model.Project, sum summary, width int) string {
	label := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(11)
	line := func(k, v string) string { return label.Render(k) + v }

	rows := []string{lipgloss.NewStyle().Bold(true).Render(p.Name)}
	if p.Description != "" {
		rows = append(rows, lipgloss.NewStyle().Width(width-4).Render(p.Description))
	}
	rows = append(rows, "")
	if p.TechStack != "" {
		rows = append(rows, line("stack", p.TechStack))
	}
	if p.HasRepo() {
		rows = append(rows, line("repo", p.RepoOwner+"/"+p.RepoName))
	}
	rows = append(rows,
		line("tasks", fmt.Sprintf("%s %d/%d", progressBar(sum.tasksDone, sum.tasks, 12), sum.tasksDone, sum.tasks)),
		line("deploy", fmt.Sprintf("%s %d/%d", progressBar(sum.deployDone, sum.deploy, 12), sum.deployDone, sum.deploy)),
		line("roadmap", fmt.Sprintf("%d items, %d milestones", sum.roadmap, sum.milestones)),
	)
	if sum.prdVersion > 0 {
		rows = append(rows, line("prd", fmt.Sprintf("v%d", sum.prdVersion)))
	} else {
		rows = append(rows, line("prd", theme.DimmedStyle.Render("none")))
	}

	return theme.DetailPanelStyle.Width(width).Render(strings.Join(rows, "\n"))
}
