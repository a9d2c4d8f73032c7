package workspace

import (
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/devdash/internal/generate"
	"github.com/nhle/devdash/internal/issues"
	"github.com/nhle/devdash/internal/keys"
	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/store"
	"github.com/nhle/devdash/internal/testutil"
	"github.com/nhle/devdash/internal/ui"
)

type fakeGenerator struct {
	calls int
	err   error
}

func (g *fakeGenerator) GenerateList(_ context.Context, ct model.ContentType, _ generate.ProjectContext) ([]model.Record, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return generate.ParseGeneratedList(`[{"title":"First"},{"title":"Second"}]`, ct)
}

func (g *fakeGenerator) GeneratePRD(_ context.Context, pc generate.ProjectContext) (string, error) {
	g.calls++
	return "# " + pc.Name, g.err
}

type fakeMirror struct {
	tasks []model.TaskItem
}

func (f *fakeMirror) MirrorTasks(_ context.Context, _ model.Project, tasks []model.TaskItem) (*issues.MirrorResult, error) {
	f.tasks = tasks
	return &issues.MirrorResult{Skipped: len(tasks)}, nil
}

// run executes cmd, flattening batches, and returns the produced messages.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// drive feeds every message cmd produces back into m until it settles.
func drive(m Model, cmd tea.Cmd) (Model, []tea.Msg) {
	var seen []tea.Msg
	queue := run(cmd)
	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]
		seen = append(seen, msg)
		var next tea.Cmd
		m, next = m.Update(msg)
		if _, tick := msg.(spinner.TickMsg); tick {
			continue
		}
		queue = append(queue, run(next)...)
	}
	return m, seen
}

func press(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func openProject(t *testing.T, s store.Store, g Generator, mr Mirror, p model.Project) Model {
	t.Helper()
	created, err := s.CreateProject(context.Background(), p)
	require.NoError(t, err)
	m := New(s, g, mr, keys.DefaultKeyMap(), 100, 30)
	cmd := m.Open(*created)
	m, _ = drive(m, cmd)
	return m
}

func TestWorkspace_GenerateAcceptAppends(t *testing.T) {
	s := testutil.NewTestStore(t)
	g := &fakeGenerator{}
	m := openProject(t, s, g, nil, model.Project{OwnerID: "u", Name: "Dash"})

	for round := 1; round <= 2; round++ {
		var cmd tea.Cmd
		m, cmd = m.Update(press("2"))
		m, _ = drive(m, cmd)
		require.True(t, m.Previewing())

		m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		assert.False(t, m.Previewing())
		m, _ = drive(m, cmd)

		tasks, err := s.GetTasks(context.Background(), m.Project().ID)
		require.NoError(t, err)
		assert.Len(t, tasks, 2*round)
		assert.Len(t, m.items[model.ContentTask], 2*round)
	}
}

func TestWorkspace_DiscardKeepsStoreUntouched(t *testing.T) {
	s := testutil.NewTestStore(t)
	m := openProject(t, s, &fakeGenerator{}, nil, model.Project{OwnerID: "u", Name: "Dash"})

	m, cmd := m.Update(press("1"))
	m, _ = drive(m, cmd)
	require.True(t, m.Previewing())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.Previewing())

	items, err := s.GetRoadmapItems(context.Background(), m.Project().ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestWorkspace_SupersededResultIgnored(t *testing.T) {
	s := testutil.NewTestStore(t)
	g := &fakeGenerator{}
	m := openProject(t, s, g, nil, model.Project{OwnerID: "u", Name: "Dash"})

	m, first := m.Update(press("3"))
	m, second := m.Update(press("3"))

	for _, msg := range run(first) {
		if gm, ok := msg.(generatedMsg); ok {
			m, _ = m.Update(gm)
		}
	}
	assert.False(t, m.Previewing(), "result of the first request is stale")

	m, _ = drive(m, second)
	assert.True(t, m.Previewing())
}

func TestWorkspace_PRDAcceptSaves(t *testing.T) {
	s := testutil.NewTestStore(t)
	m := openProject(t, s, &fakeGenerator{}, nil, model.Project{OwnerID: "u", Name: "Dash"})

	m, cmd := m.Update(press("4"))
	m, _ = drive(m, cmd)
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = drive(m, cmd)

	prd, err := s.GetPRD(context.Background(), m.Project().ID)
	require.NoError(t, err)
	assert.Equal(t, "# Dash", prd.Content)
	require.NotNil(t, m.prd)
}

func TestWorkspace_GenerationFailureReported(t *testing.T) {
	s := testutil.NewTestStore(t)
	m := openProject(t, s, &fakeGenerator{err: errors.New("upstream down")}, nil, model.Project{OwnerID: "u", Name: "Dash"})

	m, cmd := m.Update(press("2"))
	m, seen := drive(m, cmd)
	assert.False(t, m.Previewing())
	assert.Nil(t, m.pending)

	var failed bool
	for _, msg := range seen {
		if e, ok := msg.(ui.ErrorMsg); ok {
			failed = true
			assert.EqualError(t, e.Err, "upstream down")
		}
	}
	assert.True(t, failed)
}

func TestWorkspace_MissingServices(t *testing.T) {
	s := testutil.NewTestStore(t)
	m := openProject(t, s, nil, nil, model.Project{OwnerID: "u", Name: "Dash"})

	_, cmd := m.Update(press("2"))
	require.NotNil(t, cmd)
	assert.Equal(t, ui.ErrorMsg{Err: ErrNoGenerator}, cmd())

	_, cmd = m.Update(press("m"))
	assert.Equal(t, ui.ErrorMsg{Err: ErrNoMirror}, cmd())
}

func TestWorkspace_MirrorAndStatus(t *testing.T) {
	s := testutil.NewTestStore(t)
	mr := &fakeMirror{}
	m := openProject(t, s, &fakeGenerator{}, mr, model.Project{OwnerID: "u", Name: "Dash", RepoOwner: "o", RepoName: "r"})

	m, cmd := m.Update(press("2"))
	m, _ = drive(m, cmd)
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = drive(m, cmd)

	m, cmd = m.Update(press(" "))
	m, _ = drive(m, cmd)
	first := m.items[model.ContentTask][0].(model.TaskItem)
	assert.Equal(t, model.TaskInProgress, first.Status)

	m, cmd = m.Update(press("m"))
	_, _ = drive(m, cmd)
	assert.Len(t, mr.tasks, 2)
}

func TestNextStatus(t *testing.T) {
	assert.Equal(t, model.TaskDone, NextTaskStatus(model.TaskInProgress))
	assert.Equal(t, model.TaskTodo, NextTaskStatus(model.TaskBlocked))
	assert.Equal(t, model.DeploymentNotApplicable, NextDeploymentStatus(model.DeploymentDone))
	assert.Equal(t, model.DeploymentTodo, NextDeploymentStatus(model.DeploymentNotApplicable))
}
