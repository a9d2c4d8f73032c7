// Package help renders the keyboard shortcut overlay.
package help

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/devdash/internal/keys"
	"github.com/nhle/devdash/internal/theme"
)

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	from   string
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view. Closing is handled by the
// root model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// SetOrigin records the view help was opened from, shown in the title.
func (m *Model) SetOrigin(view string) {
	m.from = view
}

// View renders the keys of the originating view, then every binding.
func (m Model) View() string {
	heading := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	section := lipgloss.NewStyle().Foreground(theme.ColorBlue).MarginTop(1)

	m.help.Width = m.width - 4
	rows := []string{heading.Render("Keyboard Shortcuts")}
	if m.from != "" {
		rows = append(rows,
			section.Render("In "+m.from),
			m.help.ShortHelpView(m.keys.ForView(m.from)),
		)
	}
	rows = append(rows,
		section.Render("Everywhere"),
		m.help.FullHelpView(m.keys.FullHelp()),
		"",
		theme.HelpStyle.Render("Press ? or esc to close. Type : for commands."),
	)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
