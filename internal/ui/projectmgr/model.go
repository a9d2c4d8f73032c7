// Package projectmgr lists, edits and selects project workspaces.
package projectmgr

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/devdash/internal/keys"
	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/store"
	"github.com/nhle/devdash/internal/theme"
)

// repoSegment matches a GitHub owner or repository name.
var repoSegment = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// CloseMsg signals the parent to close the project view.
type CloseMsg struct{}

// SelectedMsg signals that the user opened a project's workspace.
type SelectedMsg struct {
	Project model.Project
}

// ChangedMsg signals that projects were created, updated or deleted.
type ChangedMsg struct{}

type projectMode int

const (
	modeList projectMode = iota
	modeForm
	modeConfirmDelete
)

type formBindings struct {
	name        string
	description string
	techStack   string
	repoOwner   string
	repoName    string
	confirm     bool
}

type projectsLoadedMsg struct {
	projects  []model.Project
	summaries map[string]summary
	err       error
}

type projectSavedMsg struct{ err error }
type projectDeletedMsg struct{ err error }
type projectArchivedMsg struct{ err error }

// Model is the Bubble Tea model for project management.
type Model struct {
	mode        projectMode
	store       store.Store
	ownerID     string
	keys        *keys.KeyMap
	projects    []model.Project
	summaries   map[string]summary
	selectedIdx int
	editing     *model.Project
	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings
	statusMsg   string
	width       int
	height      int
}

// New creates a project manager showing ownerID's projects.
func New(s store.Store, ownerID string, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:    modeList,
		store:   s,
		ownerID: ownerID,
		keys:    k,
		fb:      &formBindings{},
		width:   width, height: height,
	}
}

// Init loads projects from the store.
func (m Model) Init() tea.Cmd {
	return m.loadProjects()
}

// Editing reports whether a form has focus.
func (m Model) Editing() bool {
	return m.mode != modeList
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case projectsLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.projects = msg.projects
		m.summaries = msg.summaries
		if m.selectedIdx >= len(m.projects) && m.selectedIdx > 0 {
			m.selectedIdx = len(m.projects) - 1
		}
		return m, nil

	case projectSavedMsg:
		m.statusMsg = outcome(msg.err, "Project saved")
		m.mode = modeList
		return m, tea.Batch(m.loadProjects(), changed)

	case projectDeletedMsg:
		m.statusMsg = outcome(msg.err, "Project deleted")
		m.mode = modeList
		return m, tea.Batch(m.loadProjects(), changed)

	case projectArchivedMsg:
		m.statusMsg = outcome(msg.err, "")
		m.mode = modeList
		return m, tea.Batch(m.loadProjects(), changed)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveForm(msg)
}

func changed() tea.Msg { return ChangedMsg{} }

func outcome(err error, ok string) string {
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	return ok
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m.handleListKey(msg)
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.projects) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.projects)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.projects) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.projects) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		p, ok := m.selected()
		if !ok || p.Archived {
			return m, nil
		}
		return m, func() tea.Msg { return SelectedMsg{Project: p} }

	case key.Matches(msg, m.keys.NewPost):
		m.editing = nil
		*m.fb = formBindings{}
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case msg.String() == "e":
		p, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.editing = &p
		*m.fb = formBindings{
			name:        p.Name,
			description: p.Description,
			techStack:   p.TechStack,
			repoOwner:   p.RepoOwner,
			repoName:    p.RepoName,
		}
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case msg.String() == "a":
		p, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.toggleArchive(p)

	case msg.String() == "x":
		if _, ok := m.selected(); !ok {
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) selected() (model.Project, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.projects) {
		return model.Project{}, false
	}
	return m.projects[m.selectedIdx], true
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("Project name").
				CharLimit(120).
				Value(&m.fb.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewText().
				Title("Description").
				Placeholder("What are you building and for whom?").
				Value(&m.fb.description),
			huh.NewInput().
				Title("Tech stack").
				Placeholder("Go, SQLite, htmx").
				Value(&m.fb.techStack),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("GitHub owner").
				Placeholder("optional").
				Value(&m.fb.repoOwner).
				Validate(validateRepoSegment),
			huh.NewInput().
				Title("GitHub repository").
				Placeholder("optional").
				Value(&m.fb.repoName).
				Validate(validateRepoSegment),
		).Description("Tasks can be mirrored to issues in this repository."),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func validateRepoSegment(s string) error {
	s = strings.TrimSpace(s)
	if s != "" && !repoSegment.MatchString(s) {
		return fmt.Errorf("letters, digits, '-', '_' and '.' only")
	}
	return nil
}

func (m Model) buildConfirmForm() *huh.Form {
	p, _ := m.selected()
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete project %q?", p.Name)).
				Description("Its PRD, roadmap, tasks and checklist are deleted too.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		return m, m.saveProject()
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	switch m.confirmForm.State {
	case huh.StateCompleted:
		if p, ok := m.selected(); ok && m.fb.confirm {
			return m, m.deleteProject(p.ID)
		}
		m.mode = modeList
		return m, nil
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

// View renders the project manager.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return m.viewForm(m.form)
	case modeConfirmDelete:
		return m.viewForm(m.confirmForm)
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Projects"))
	b.WriteString("\n\n")

	if len(m.projects) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("No projects yet. Press 'n' to create one."))
	}
	for i, p := range m.projects {
		label := p.Name
		if sum, ok := m.summaries[p.ID]; ok && sum.tasks > 0 {
			label += theme.DimmedStyle.Render(fmt.Sprintf("  %d/%d", sum.tasksDone, sum.tasks))
		}
		if p.Archived {
			label += theme.DimmedStyle.Render(" (archived)")
		}

		if i == m.selectedIdx {
			b.WriteString(theme.SelectedItemStyle.Render(label))
		} else {
			b.WriteString(theme.ListItemStyle.Render(label))
		}
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	list := b.String()
	p, ok := m.selected()
	if !ok {
		return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(list)
	}

	// Side by side on wide terminals, stacked otherwise.
	if m.width >= 90 {
		listWidth := m.width * 2 / 5
		panel := renderSummary(p, m.summaries[p.ID], m.width-listWidth-8)
		return lipgloss.NewStyle().Padding(1, 2).Height(m.height).Render(
			lipgloss.JoinHorizontal(lipgloss.Top, lipgloss.NewStyle().Width(listWidth).Render(list), panel),
		)
	}
	panel := renderSummary(p, m.summaries[p.ID], m.width-8)
	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, list, "", panel),
	)
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(f.View())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-4, 10)
}

func (m Model) loadProjects() tea.Cmd {
	s := m.store
	owner := m.ownerID
	return func() tea.Msg {
		ctx := context.Background()
		projects, err := s.GetProjects(ctx, store.ProjectFilter{
			OwnerID:         &owner,
			IncludeArchived: true,
		})
		if err != nil {
			return projectsLoadedMsg{err: err}
		}
		sums := make(map[string]summary, len(projects))
		for _, p := range projects {
			sum, err := loadSummary(ctx, s, p.ID)
			if err != nil {
				return projectsLoadedMsg{err: fmt.Errorf("loading workspace of %s: %w", p.Name, err)}
			}
			sums[p.ID] = sum
		}
		return projectsLoadedMsg{projects: projects, summaries: sums}
	}
}

// formProject builds the project the form describes on top of base.
func formProject(base model.Project, fb formBindings) model.Project {
	base.Name = strings.TrimSpace(fb.name)
	base.Description = strings.TrimSpace(fb.description)
	base.TechStack = strings.TrimSpace(fb.techStack)
	base.RepoOwner = strings.TrimSpace(fb.repoOwner)
	base.RepoName = strings.TrimSpace(fb.repoName)
	return base
}

func (m Model) saveProject() tea.Cmd {
	s := m.store
	fb := *m.fb
	editing := m.editing
	owner := m.ownerID
	return func() tea.Msg {
		ctx := context.Background()
		if editing == nil {
			_, err := s.CreateProject(ctx, formProject(model.Project{OwnerID: owner}, fb))
			return projectSavedMsg{err: err}
		}
		return projectSavedMsg{err: s.UpdateProject(ctx, formProject(*editing, fb))}
	}
}

func (m Model) deleteProject(id string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		return projectDeletedMsg{err: s.DeleteProject(context.Background(), id)}
	}
}

func (m Model) toggleArchive(p model.Project) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		var err error
		if p.Archived {
			err = s.RestoreProject(context.Background(), p.ID)
		} else {
			err = s.ArchiveProject(context.Background(), p.ID)
		}
		return projectArchivedMsg{err: err}
	}
}
