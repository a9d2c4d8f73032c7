// Package workspace is the project workspace view: it lists a project's
// roadmap, tasks, deployment checklist and PRD, and drives generation
// through preview, accept, regenerate and discard.
package workspace

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/devdash/internal/generate"
	"github.com/nhle/devdash/internal/issues"
	"github.com/nhle/devdash/internal/keys"
	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/store"
	"github.com/nhle/devdash/internal/theme"
	"github.com/nhle/devdash/internal/ui"
	ws "github.com/nhle/devdash/internal/workspace"
)

// Generator produces validated content for a project.
type Generator interface {
	GenerateList(ctx context.Context, ct model.ContentType, pc generate.ProjectContext) ([]model.Record, error)
	GeneratePRD(ctx context.Context, pc generate.ProjectContext) (string, error)
}

// Mirror links tasks to GitHub issues.
type Mirror interface {
	MirrorTasks(ctx context.Context, project model.Project, tasks []model.TaskItem) (*issues.MirrorResult, error)
}

// ErrNoGenerator is reported when generation is requested without an AI
// provider configured.
var ErrNoGenerator = errors.New("no AI provider key configured, open settings with ','")

// ErrNoMirror is reported when mirroring is requested without a GitHub
// token configured.
var ErrNoMirror = errors.New("no GitHub token configured, open settings with ','")

// sections in display order.
var sections = []model.ContentType{
	model.ContentRoadmap,
	model.ContentTask,
	model.ContentDeployment,
	model.ContentPRD,
}

// LoadedMsg carries a project's stored content.
type LoadedMsg struct {
	ProjectID string
	Items     map[model.ContentType][]model.Record
	PRD       *model.PRD
	Links     map[string]model.IssueLink
	Err       error
}

// generatedMsg carries one generation result. seq identifies the request
// so a discarded or superseded batch is ignored.
type generatedMsg struct {
	projectID string
	ct        model.ContentType
	seq       int
	records   []model.Record
	prd       string
	err       error
}

type acceptedMsg struct {
	projectID string
	ct        model.ContentType
	count     int
	err       error
}

type mirroredMsg struct {
	result *issues.MirrorResult
	err    error
}

type statusChangedMsg struct{ err error }

// preview is a generated batch awaiting accept, regenerate or discard.
type preview struct {
	ct      model.ContentType
	records []model.Record
	prd     string
}

// Model is the workspace view.
type Model struct {
	store     store.Store
	generator Generator
	mirror    Mirror
	keys      *keys.KeyMap

	project *model.Project
	items   map[model.ContentType][]model.Record
	prd     *model.PRD
	links   map[string]model.IssueLink

	section int
	cursor  int

	pending *model.ContentType
	seq     int
	preview *preview

	spinner  spinner.Model
	viewport viewport.Model
	width    int
	height   int
}

// New creates the workspace view. generator and mirror may be nil.
func New(s store.Store, g Generator, mr Mirror, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	return Model{
		store:     s,
		generator: g,
		mirror:    mr,
		keys:      k,
		items:     map[model.ContentType][]model.Record{},
		links:     map[string]model.IssueLink{},
		spinner:   sp,
		viewport:  viewport.New(width, height-3),
		width:     width,
		height:    height,
	}
}

// SetServices replaces the generator and mirror after a credential change.
func (m *Model) SetServices(g Generator, mr Mirror) {
	m.generator = g
	m.mirror = mr
}

// Project returns the open project, nil when none is open.
func (m Model) Project() *model.Project {
	return m.project
}

// Previewing reports whether a generated batch awaits a decision.
func (m Model) Previewing() bool {
	return m.preview != nil
}

// Open shows project p and loads its content.
func (m *Model) Open(p model.Project) tea.Cmd {
	m.project = &p
	m.items = map[model.ContentType][]model.Record{}
	m.links = map[string]model.IssueLink{}
	m.prd = nil
	m.preview = nil
	m.pending = nil
	m.cursor = 0
	return m.Reload()
}

// Reload refetches the open project's content.
func (m Model) Reload() tea.Cmd {
	if m.project == nil {
		return nil
	}
	s, projectID := m.store, m.project.ID
	return func() tea.Msg {
		ctx := context.Background()
		msg := LoadedMsg{ProjectID: projectID, Items: map[model.ContentType][]model.Record{}, Links: map[string]model.IssueLink{}}
		for _, ct := range model.ListContentTypes {
			records, err := ws.Items(ctx, s, projectID, ct)
			if err != nil {
				msg.Err = err
				return msg
			}
			msg.Items[ct] = records
		}
		prd, err := s.GetPRD(ctx, projectID)
		switch {
		case err == nil:
			msg.PRD = prd
		case !errors.Is(err, store.ErrNotFound):
			msg.Err = err
			return msg
		}
		links, err := s.ListIssueLinks(ctx, store.IssueLinkFilter{ProjectID: &projectID})
		if err != nil {
			msg.Err = err
			return msg
		}
		for _, l := range links {
			msg.Links[l.TaskID] = l
		}
		return msg
	}
}

// Update handles messages for the workspace.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		if msg.Err != nil {
			return m, ui.Fail(msg.Err)
		}
		if m.project == nil || msg.ProjectID != m.project.ID {
			return m, nil
		}
		m.items = msg.Items
		m.prd = msg.PRD
		m.links = msg.Links
		m.clampCursor()
		m.refreshViewport()
		return m, nil

	case generatedMsg:
		if m.project == nil || msg.projectID != m.project.ID || msg.seq != m.seq {
			return m, nil
		}
		m.pending = nil
		if msg.err != nil {
			return m, ui.Fail(msg.err)
		}
		m.preview = &preview{ct: msg.ct, records: msg.records, prd: msg.prd}
		m.refreshViewport()
		return m, nil

	case acceptedMsg:
		if msg.err != nil {
			return m, ui.Fail(msg.err)
		}
		text := fmt.Sprintf("Added %d %s items", msg.count, msg.ct)
		if msg.ct == model.ContentPRD {
			text = "PRD saved"
		}
		return m, tea.Batch(m.Reload(), status(text))

	case mirroredMsg:
		if msg.err != nil {
			return m, tea.Batch(m.Reload(), ui.Fail(msg.err))
		}
		r := msg.result
		text := fmt.Sprintf("Mirrored: %d created, %d referenced, %d already linked",
			len(r.Created), len(r.Referenced), r.Skipped)
		cmds := []tea.Cmd{m.Reload(), status(text)}
		if len(r.Failed) > 0 {
			cmds = append(cmds, ui.Fail(fmt.Errorf("%d tasks failed to mirror; first: %s: %s",
				len(r.Failed), r.Failed[0].Title, r.Failed[0].Error)))
		}
		return m, tea.Batch(cmds...)

	case statusChangedMsg:
		if msg.err != nil {
			return m, ui.Fail(msg.err)
		}
		return m, m.Reload()

	case spinner.TickMsg:
		if m.pending == nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.project == nil {
			return m, nil
		}
		if m.preview != nil {
			return m.handlePreviewKeys(msg)
		}
		return m.handleKeys(msg)
	}
	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.GenerateRoadmap):
		return m.generate(model.ContentRoadmap)
	case key.Matches(msg, m.keys.GenerateTasks):
		return m.generate(model.ContentTask)
	case key.Matches(msg, m.keys.GenerateDeployment):
		return m.generate(model.ContentDeployment)
	case key.Matches(msg, m.keys.GeneratePRD):
		return m.generate(model.ContentPRD)

	case key.Matches(msg, m.keys.NextSection):
		m.section = (m.section + 1) % len(sections)
		m.cursor = 0
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keys.PrevSection):
		m.section = (m.section + len(sections) - 1) % len(sections)
		m.cursor = 0
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.current() == model.ContentPRD {
			m.viewport.ScrollDown(1)
			return m, nil
		}
		m.cursor++
		m.clampCursor()
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.current() == model.ContentPRD {
			m.viewport.ScrollUp(1)
			return m, nil
		}
		m.cursor--
		m.clampCursor()
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keys.Advance):
		return m, m.advanceStatus()

	case key.Matches(msg, m.keys.Mirror):
		return m, m.MirrorTasks()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.Reload()
	}
	return m, nil
}

func (m Model) handlePreviewKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Accept):
		p := m.preview
		m.preview = nil
		m.refreshViewport()
		return m, m.accept(p)

	case key.Matches(msg, m.keys.Regenerate):
		ct := m.preview.ct
		m.preview = nil
		return m.generate(ct)

	case key.Matches(msg, m.keys.Back):
		m.preview = nil
		m.refreshViewport()
		return m, status("Discarded generated content")

	case key.Matches(msg, m.keys.Down):
		m.viewport.ScrollDown(1)
	case key.Matches(msg, m.keys.Up):
		m.viewport.ScrollUp(1)
	}
	return m, nil
}

// generate starts a generation request for ct. Any earlier request still
// in flight is superseded.
func (m Model) generate(ct model.ContentType) (Model, tea.Cmd) {
	if m.generator == nil {
		return m, ui.Fail(ErrNoGenerator)
	}
	for i, s := range sections {
		if s == ct {
			m.section = i
		}
	}
	m.seq++
	m.pending = &ct
	m.cursor = 0
	m.refreshViewport()

	s, g, project, seq := m.store, m.generator, *m.project, m.seq
	run := func() tea.Msg {
		ctx := context.Background()
		res := generatedMsg{projectID: project.ID, ct: ct, seq: seq}
		pc, err := ws.Context(ctx, s, project, "")
		if err != nil {
			res.err = err
			return res
		}
		if ct == model.ContentPRD {
			res.prd, res.err = g.GeneratePRD(ctx, pc)
			return res
		}
		res.records, res.err = g.GenerateList(ctx, ct, pc)
		return res
	}
	return m, tea.Batch(m.spinner.Tick, run)
}

func (m Model) accept(p *preview) tea.Cmd {
	s, projectID := m.store, m.project.ID
	return func() tea.Msg {
		ctx := context.Background()
		if p.ct == model.ContentPRD {
			_, err := s.SavePRD(ctx, projectID, p.prd)
			return acceptedMsg{projectID: projectID, ct: p.ct, err: err}
		}
		created, err := ws.Accept(ctx, s, projectID, p.ct, p.records)
		return acceptedMsg{projectID: projectID, ct: p.ct, count: len(created), err: err}
	}
}

// advanceStatus moves the selected task or checklist item to its next
// status.
func (m Model) advanceStatus() tea.Cmd {
	ct := m.current()
	records := m.items[ct]
	if m.cursor >= len(records) {
		return nil
	}
	s := m.store
	switch r := records[m.cursor].(type) {
	case model.TaskItem:
		next := NextTaskStatus(r.Status)
		return func() tea.Msg {
			return statusChangedMsg{err: s.UpdateTaskStatus(context.Background(), r.ID, next)}
		}
	case model.DeploymentItem:
		next := NextDeploymentStatus(r.Status)
		return func() tea.Msg {
			return statusChangedMsg{err: s.UpdateDeploymentStatus(context.Background(), r.ID, next)}
		}
	}
	return nil
}

// MirrorTasks mirrors the open project's tasks to GitHub issues.
func (m Model) MirrorTasks() tea.Cmd {
	if m.project == nil {
		return status("Open a project first")
	}
	if m.mirror == nil {
		return ui.Fail(ErrNoMirror)
	}
	if !m.project.HasRepo() {
		return ui.Fail(issues.ErrNoRepo)
	}
	mr, project := m.mirror, *m.project
	tasks := generate.TaskItems(m.items[model.ContentTask])
	return tea.Batch(status("Mirroring tasks to GitHub..."), func() tea.Msg {
		res, err := mr.MirrorTasks(context.Background(), project, tasks)
		return mirroredMsg{result: res, err: err}
	})
}

// NextTaskStatus cycles todo, in progress, done. Blocked resumes to todo.
func NextTaskStatus(s model.TaskStatus) model.TaskStatus {
	switch s {
	case model.TaskTodo:
		return model.TaskInProgress
	case model.TaskInProgress:
		return model.TaskDone
	default:
		return model.TaskTodo
	}
}

// NextDeploymentStatus cycles todo, in progress, done, not applicable.
func NextDeploymentStatus(s model.DeploymentStatus) model.DeploymentStatus {
	switch s {
	case model.DeploymentTodo:
		return model.DeploymentInProgress
	case model.DeploymentInProgress:
		return model.DeploymentDone
	case model.DeploymentDone:
		return model.DeploymentNotApplicable
	default:
		return model.DeploymentTodo
	}
}

func status(text string) tea.Cmd {
	return func() tea.Msg { return ui.StatusMsg{Text: text} }
}

func (m Model) current() model.ContentType {
	return sections[m.section]
}

func (m *Model) clampCursor() {
	n := len(m.items[m.current()])
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 3
	m.refreshViewport()
}
