package issues

import (
	"context"
	"fmt"
	gosync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/store"
	"github.com/nhle/devdash/internal/testutil"
)

// fakeIssues is an in-memory IssueService.
type fakeIssues struct {
	mu      gosync.Mutex
	issues  map[int]*Issue
	next    int
	created []CreateIssueRequest
	failOn  string
	authErr bool
}

func newFakeIssues() *fakeIssues {
	return &fakeIssues{issues: map[int]*Issue{}, next: 100}
}

func (f *fakeIssues) CreateIssue(_ context.Context, owner, repo string, req CreateIssueRequest) (*Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.authErr {
		return nil, &AuthError{Message: "bad token"}
	}
	if req.Title == f.failOn {
		return nil, fmt.Errorf("boom")
	}
	f.next++
	issue := &Issue{
		Number:  f.next,
		Title:   req.Title,
		State:   "open",
		HTMLURL: fmt.Sprintf("https://github.com/%s/%s/issues/%d", owner, repo, f.next),
	}
	f.issues[issue.Number] = issue
	f.created = append(f.created, req)
	return issue, nil
}

func (f *fakeIssues) GetIssue(_ context.Context, _, _ string, number int) (*Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.issues[number]
	if !ok {
		return nil, &StatusError{StatusCode: 404, Message: "Not Found"}
	}
	return issue, nil
}

func seedProject(t *testing.T, s store.Store, tasks ...model.TaskItem) (model.Project, []model.TaskItem) {
	t.Helper()
	ctx := context.Background()

	p, err := s.CreateProject(ctx, model.Project{
		OwnerID: "alice", Name: "App", RepoOwner: "acme", RepoName: "app",
	})
	require.NoError(t, err)

	for i := range tasks {
		if tasks[i].Status == "" {
			tasks[i].Status = model.TaskTodo
		}
		if tasks[i].Priority == "" {
			tasks[i].Priority = model.TaskPriorityMedium
		}
	}
	stored, err := s.CreateTasks(ctx, p.ID, tasks)
	require.NoError(t, err)
	return *p, stored
}

func TestMirrorTasks_CreatesIssues(t *testing.T) {
	s := testutil.NewTestStore(t)
	gh := newFakeIssues()
	project, tasks := seedProject(t, s,
		model.TaskItem{Title: "Set up repo", Priority: model.TaskPriorityHigh, Tags: model.StringList{"infra"}},
		model.TaskItem{Title: "Design schema"},
		model.TaskItem{Title: "Build feed"},
	)

	res, err := NewMirror(gh, s, 2).MirrorTasks(context.Background(), project, tasks)
	require.NoError(t, err)
	require.Len(t, res.Created, 3)
	assert.Empty(t, res.Failed)

	for i, link := range res.Created {
		assert.Equal(t, tasks[i].ID, link.TaskID, "results follow task order")
		assert.Equal(t, model.LinkTypeCreated, link.LinkType)
	}

	var labels []string
	for _, req := range gh.created {
		if req.Title == "Set up repo" {
			labels = req.Labels
			assert.Contains(t, req.Body, "Priority: high")
		}
	}
	assert.Equal(t, []string{"priority:high", "infra"}, labels)

	link, err := s.GetIssueLinkForTask(context.Background(), tasks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "acme", link.RepoOwner)
}

func TestMirrorTasks_SkipsLinkedAndLinksReferences(t *testing.T) {
	s := testutil.NewTestStore(t)
	gh := newFakeIssues()
	gh.issues[12] = &Issue{Number: 12, State: "closed", HTMLURL: "https://github.com/acme/app/issues/12"}

	project, tasks := seedProject(t, s,
		model.TaskItem{Title: "Auth flow", Description: "tracked in #12"},
		model.TaskItem{Title: "Dangling", Description: "see #999"},
		model.TaskItem{Title: "Plain"},
	)
	ctx := context.Background()

	m := NewMirror(gh, s, 4)
	res, err := m.MirrorTasks(ctx, project, tasks)
	require.NoError(t, err)

	require.Len(t, res.Referenced, 1)
	assert.Equal(t, 12, res.Referenced[0].IssueNumber)
	assert.Equal(t, model.IssueStateClosed, res.Referenced[0].IssueState)
	assert.Len(t, res.Created, 2, "a dangling reference gets a new issue")

	again, err := m.MirrorTasks(ctx, project, tasks)
	require.NoError(t, err)
	assert.Equal(t, 3, again.Skipped)
	assert.Empty(t, again.Created)
	assert.Len(t, gh.created, 2, "no duplicate issues")
}

func TestMirrorTasks_CollectsFailures(t *testing.T) {
	s := testutil.NewTestStore(t)
	gh := newFakeIssues()
	gh.failOn = "Broken"
	project, tasks := seedProject(t, s,
		model.TaskItem{Title: "Fine"},
		model.TaskItem{Title: "Broken"},
	)

	res, err := NewMirror(gh, s, 1).MirrorTasks(context.Background(), project, tasks)
	require.NoError(t, err)
	assert.Len(t, res.Created, 1)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, tasks[1].ID, res.Failed[0].TaskID)
}

func TestMirrorTasks_AuthErrorAborts(t *testing.T) {
	s := testutil.NewTestStore(t)
	gh := newFakeIssues()
	gh.authErr = true
	project, tasks := seedProject(t, s, model.TaskItem{Title: "A"})

	_, err := NewMirror(gh, s, 1).MirrorTasks(context.Background(), project, tasks)
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
}

func TestMirrorTasks_NoRepo(t *testing.T) {
	s := testutil.NewTestStore(t)
	_, err := NewMirror(newFakeIssues(), s, 1).MirrorTasks(context.Background(), model.Project{ID: "p"}, nil)
	assert.ErrorIs(t, err, ErrNoRepo)
}
