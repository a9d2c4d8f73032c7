package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/devdash/internal/issues"
	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/store"
	"github.com/nhle/devdash/internal/testutil"
)

type fakeGetter struct {
	states  map[int]string
	authErr bool
}

func (f *fakeGetter) GetIssue(_ context.Context, _, _ string, number int) (*issues.Issue, error) {
	if f.authErr {
		return nil, &issues.AuthError{Message: "expired"}
	}
	state, ok := f.states[number]
	if !ok {
		return nil, &issues.StatusError{StatusCode: 404}
	}
	return &issues.Issue{Number: number, State: state}, nil
}

func seed(t *testing.T, s store.Store, status model.TaskStatus, issueNumber int) model.TaskItem {
	t.Helper()
	ctx := context.Background()

	p, err := s.CreateProject(ctx, model.Project{Name: "App", RepoOwner: "acme", RepoName: "app"})
	require.NoError(t, err)
	tasks, err := s.CreateTasks(ctx, p.ID, []model.TaskItem{{
		Title: "Task", Status: status, Priority: model.TaskPriorityMedium,
	}})
	require.NoError(t, err)
	_, err = s.CreateIssueLink(ctx, model.IssueLink{
		TaskID: tasks[0].ID, ProjectID: p.ID, RepoOwner: "acme", RepoName: "app",
		IssueNumber: issueNumber,
	})
	require.NoError(t, err)
	return tasks[0]
}

func TestSyncOnce_ClosedIssueMarksTaskDone(t *testing.T) {
	s := testutil.NewTestStore(t)
	task := seed(t, s, model.TaskInProgress, 5)
	p := New(s, &fakeGetter{states: map[int]string{5: "closed"}}, time.Minute)

	res := p.SyncOnce(context.Background())
	require.NoError(t, res.Error)
	assert.Equal(t, 1, res.Checked)
	require.Len(t, res.Updates, 1)
	assert.Equal(t, model.TaskDone, res.Updates[0].Status)

	got, err := s.GetTaskByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskDone, got.Status)

	link, err := s.GetIssueLinkForTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.IssueStateClosed, link.IssueState)
	assert.Equal(t, SyncIdle, p.Status().State)

	again := p.SyncOnce(context.Background())
	assert.Empty(t, again.Updates, "unchanged state produces no update")
}

func TestSyncOnce_ReopenedIssue(t *testing.T) {
	s := testutil.NewTestStore(t)
	task := seed(t, s, model.TaskTodo, 8)
	gh := &fakeGetter{states: map[int]string{8: "closed"}}
	p := New(s, gh, time.Minute)
	ctx := context.Background()

	p.SyncOnce(ctx)
	gh.states[8] = "open"
	res := p.SyncOnce(ctx)
	require.Len(t, res.Updates, 1)

	got, err := s.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskTodo, got.Status)
}

func TestSyncOnce_ReopenKeepsUnfinishedStatus(t *testing.T) {
	s := testutil.NewTestStore(t)
	task := seed(t, s, model.TaskBlocked, 3)
	ctx := context.Background()

	link, err := s.GetIssueLinkForTask(ctx, task.ID)
	require.NoError(t, err)
	require.NoError(t, s.UpdateIssueLinkState(ctx, link.ID, model.IssueStateClosed, time.Now()))

	res := New(s, &fakeGetter{states: map[int]string{3: "open"}}, time.Minute).SyncOnce(ctx)
	require.Len(t, res.Updates, 1)
	assert.Equal(t, model.TaskBlocked, res.Updates[0].Status)
}

func TestSyncOnce_MissingIssueIsSkipped(t *testing.T) {
	s := testutil.NewTestStore(t)
	seed(t, s, model.TaskTodo, 404)

	res := New(s, &fakeGetter{states: map[int]string{}}, time.Minute).SyncOnce(context.Background())
	assert.NoError(t, res.Error)
	assert.Equal(t, 0, res.Checked)
}

func TestSyncOnce_AuthError(t *testing.T) {
	s := testutil.NewTestStore(t)
	seed(t, s, model.TaskTodo, 1)
	p := New(s, &fakeGetter{authErr: true}, time.Minute)

	res := p.SyncOnce(context.Background())
	require.NotNil(t, res.AuthError)
	assert.True(t, issues.IsAuthError(res.Error))
	assert.Equal(t, SyncError, p.Status().State)
}

func TestPoller_StartEmitsResult(t *testing.T) {
	s := testutil.NewTestStore(t)
	seed(t, s, model.TaskTodo, 2)
	p := New(s, &fakeGetter{states: map[int]string{2: "closed"}}, time.Hour)

	cmd := p.Start()
	require.NotNil(t, cmd)
	defer p.Stop()

	msg, ok := cmd().(SyncResultMsg)
	require.True(t, ok)
	assert.Len(t, msg.Updates, 1)

	assert.Nil(t, p.Start(), "starting twice is a no-op")
}
