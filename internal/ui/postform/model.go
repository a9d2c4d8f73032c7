// Package postform is the huh form for sharing a community post.
package postform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/devdash/internal/community"
	"github.com/nhle/devdash/internal/theme"
)

// Tools offered in the tool selector. The empty value means none.
var Tools = []string{"cursor", "copilot", "claude", "aider", "windsurf", "codex", "other"}

// SubmittedMsg is dispatched when the user completes the form.
type SubmittedMsg struct {
	Post community.NewPost
}

// CancelMsg is dispatched when the user aborts the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title   string
	content string
	tool    string
	tags    string
}

// Model is the new-post form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	width  int
	height int
}

// New creates a new post form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start resets the form for a new post.
func (m *Model) Start() tea.Cmd {
	*m.fb = formBindings{}
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		post := m.post()
		m.form = nil
		return m, func() tea.Msg { return SubmittedMsg{Post: post} }
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(titleStyle.Render("Share a Post") + "\n" + m.form.View())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	toolOpts := []huh.Option[string]{huh.NewOption("None", "")}
	for _, t := range Tools {
		toolOpts = append(toolOpts, huh.NewOption(t, t))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("What did you learn?").
				CharLimit(200).
				Value(&m.fb.title).
				Validate(validateRequired("Title")),
			huh.NewText().
				Title("Content").
				Placeholder("Share the details...").
				Value(&m.fb.content).
				Validate(validateRequired("Content")),
			huh.NewSelect[string]().
				Title("Tool").
				Options(toolOpts...).
				Value(&m.fb.tool),
			huh.NewInput().
				Title("Tags").
				Placeholder("comma separated, e.g. prompts, refactoring").
				Value(&m.fb.tags).
				Validate(validateTags),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) post() community.NewPost {
	return community.NewPost{
		Title:   m.fb.title,
		Content: m.fb.content,
		Tool:    m.fb.tool,
		Tags:    SplitTags(m.fb.tags),
	}
}

// SplitTags splits a comma-separated tag list, dropping empty entries.
func SplitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-4, 12)
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateTags(s string) error {
	tags := SplitTags(s)
	if len(tags) > 10 {
		return fmt.Errorf("at most 10 tags")
	}
	for _, t := range tags {
		if len(t) > 30 {
			return fmt.Errorf("tag %q is longer than 30 characters", t)
		}
	}
	return nil
}
