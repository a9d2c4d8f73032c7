// Package command implements the ':' command palette.
package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/devdash/internal/theme"
)

// Command describes one palette entry.
type Command struct {
	Name string
	Arg  string // placeholder of the argument, empty when none is taken
	Help string
}

// Commands lists everything the palette understands, in display order.
var Commands = []Command{
	{Name: "feed", Help: "community feed"},
	{Name: "saved", Help: "posts you saved"},
	{Name: "search", Arg: "<text>", Help: "search post titles and content"},
	{Name: "tool", Arg: "<name>", Help: "only posts about a tool"},
	{Name: "tag", Arg: "<name>", Help: "only posts with a tag"},
	{Name: "clear", Help: "drop feed filters"},
	{Name: "new", Help: "share a post"},
	{Name: "workspace", Help: "open the workspace tab"},
	{Name: "projects", Help: "manage projects"},
	{Name: "open", Arg: "<project>", Help: "open a project by name"},
	{Name: "mirror", Help: "mirror tasks to GitHub issues"},
	{Name: "sync", Help: "refresh linked issue states now"},
	{Name: "refresh", Help: "reload the feed and workspace"},
	{Name: "settings", Help: "credentials and preferences"},
	{Name: "help", Help: "keyboard shortcuts"},
	{Name: "quit", Help: "exit devdash"},
}

var aliases = map[string]string{
	"ws":     "workspace",
	"post":   "new",
	"config": "settings",
	"q":      "quit",
	"/":      "search",
}

// CommandMsg is emitted when the user executes a command.
type CommandMsg struct {
	Name string
	Arg  string
}

// Parse splits input into a command name and its argument. The name is
// lowercased and aliases are resolved; the argument keeps its case.
func Parse(input string) CommandMsg {
	input = strings.TrimSpace(input)
	name, arg, _ := strings.Cut(input, " ")
	name = strings.ToLower(name)
	if full, ok := aliases[name]; ok {
		name = full
	}
	return CommandMsg{Name: name, Arg: strings.TrimSpace(arg)}
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	names := make([]string, len(Commands))
	for i, c := range Commands {
		names[i] = c.Name
	}

	ti := textinput.New()
	ti.Placeholder = "command"
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions(names)
	ti.Width = width - 6

	return Model{input: ti, width: width, height: height}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEnter {
		parsed := Parse(m.input.Value())
		m.input.Reset()
		if parsed.Name == "" {
			return m, nil
		}
		return m, func() tea.Msg { return parsed }
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// matching returns the commands whose name starts with the typed word.
func (m Model) matching() []Command {
	word := Parse(m.input.Value()).Name
	if word == "" {
		return Commands
	}
	var out []Command
	for _, c := range Commands {
		if strings.HasPrefix(c.Name, word) {
			out = append(out, c)
		}
	}
	return out
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	nameStyle := lipgloss.NewStyle().Foreground(theme.ColorBlue).Width(22)

	rows := []string{titleStyle.Render("Command Palette"), m.input.View(), ""}
	for _, c := range m.matching() {
		label := c.Name
		if c.Arg != "" {
			label += " " + c.Arg
		}
		rows = append(rows, nameStyle.Render(label)+theme.HelpStyle.Render(c.Help))
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus clears previous input and gives keyboard focus to the palette.
func (m *Model) Focus() tea.Cmd {
	m.input.Reset()
	return m.input.Focus()
}
