package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Views
	SwitchView key.Binding
	Projects   key.Binding
	Settings   key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Feed
	Refresh  key.Binding
	Upvote   key.Binding
	Downvote key.Binding
	Save     key.Binding
	NewPost  key.Binding
	Comment  key.Binding
	SortTop  key.Binding

	// Workspace
	GenerateRoadmap    key.Binding
	GenerateTasks      key.Binding
	GenerateDeployment key.Binding
	GeneratePRD        key.Binding
	Accept             key.Binding
	Regenerate         key.Binding
	Mirror             key.Binding
	NextSection        key.Binding
	PrevSection        key.Binding
	Advance            key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		SwitchView: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "feed/workspace"),
		),
		Projects: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "projects"),
		),
		Settings: key.NewBinding(
			key.WithKeys(","),
			key.WithHelp(",", "settings"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "refresh"),
		),
		Upvote: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "upvote"),
		),
		Downvote: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "downvote"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save"),
		),
		NewPost: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new"),
		),
		Comment: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "comment"),
		),
		SortTop: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "new/top"),
		),
		GenerateRoadmap: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "generate roadmap"),
		),
		GenerateTasks: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "generate tasks"),
		),
		GenerateDeployment: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "generate checklist"),
		),
		GeneratePRD: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "generate PRD"),
		),
		Accept: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "accept"),
		),
		Regenerate: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "regenerate"),
		),
		Mirror: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mirror to github"),
		),
		NextSection: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "next section"),
		),
		PrevSection: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "previous section"),
		),
		Advance: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "advance status"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.SwitchView, k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.SwitchView, k.Projects, k.Settings, k.Command, k.Help},
		{k.Upvote, k.Downvote, k.Save, k.NewPost, k.Comment, k.SortTop, k.Refresh},
		{k.GenerateRoadmap, k.GenerateTasks, k.GenerateDeployment, k.GeneratePRD, k.Accept, k.Regenerate},
		{k.NextSection, k.PrevSection, k.Advance, k.Mirror},
	}
}

// ForView returns the bindings that act in the named view, for the
// contextual part of the help overlay.
func (k *KeyMap) ForView(view string) []key.Binding {
	switch view {
	case "feed":
		return []key.Binding{k.Select, k.Upvote, k.Downvote, k.Save, k.SortTop, k.NewPost, k.Refresh}
	case "post":
		return []key.Binding{k.Upvote, k.Downvote, k.Save, k.Comment, k.Back}
	case "workspace":
		return []key.Binding{
			k.GenerateRoadmap, k.GenerateTasks, k.GenerateDeployment, k.GeneratePRD,
			k.NextSection, k.PrevSection, k.Advance, k.Mirror,
		}
	case "projects":
		return []key.Binding{k.Select, k.NewPost, k.Back}
	default:
		return k.ShortHelp()
	}
}
