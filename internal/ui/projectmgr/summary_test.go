package projectmgr

import (
	"context"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/testutil"
)

func TestLoadSummary(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	p, err := s.CreateProject(ctx, model.Project{OwnerID: "alice", Name: "Dash"})
	require.NoError(t, err)

	sum, err := loadSummary(ctx, s, p.ID)
	require.NoError(t, err)
	assert.Equal(t, summary{}, sum)

	_, err = s.CreateTasks(ctx, p.ID, []model.TaskItem{
		{Title: "a", Status: model.TaskDone, Priority: model.TaskPriorityLow},
		{Title: "b", Status: model.TaskTodo, Priority: model.TaskPriorityLow},
	})
	require.NoError(t, err)
	_, err = s.CreateDeploymentItems(ctx, p.ID, []model.DeploymentItem{
		{Title: "dns", Status: model.DeploymentDone, Category: model.CategoryInfrastructure},
		{Title: "cdn", Status: model.DeploymentNotApplicable, Category: model.CategoryInfrastructure},
	})
	require.NoError(t, err)
	_, err = s.SavePRD(ctx, p.ID, "# PRD")
	require.NoError(t, err)

	sum, err = loadSummary(ctx, s, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.tasks)
	assert.Equal(t, 1, sum.tasksDone)
	assert.Equal(t, 1, sum.deploy, "not applicable items are left out")
	assert.Equal(t, 1, sum.deployDone)
	assert.Equal(t, 1, sum.prdVersion)
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, 10, lipgloss.Width(progressBar(3, 10, 10)))
	assert.Equal(t, 10, lipgloss.Width(progressBar(10, 10, 10)))
	assert.NotPanics(t, func() { progressBar(0, 0, 8) })
}
