// Package settings edits credentials and preferences from inside the TUI.
package settings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/devdash/internal/credential"
	"github.com/nhle/devdash/internal/issues"
	"github.com/nhle/devdash/internal/keys"
	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/theme"
)

// Mode is the current state of the settings view.
type Mode int

const (
	ModeList           Mode = iota // credentials and preferences
	ModeCredentialForm             // entering a secret
	ModePrefsForm                  // editing preferences
	ModeValidating                 // testing the GitHub token
	ModeValidateResult             // showing the test result
)

// DoneMsg signals the settings view should close.
type DoneMsg struct{}

// ChangedMsg signals that credentials or configuration changed and the
// services built from them must be rebuilt.
type ChangedMsg struct {
	Config *model.AppConfig
}

// ValidateResultMsg carries the result of a GitHub token check.
type ValidateResultMsg struct {
	Login string
	Err   error
}

type savedMsg struct{ err error }

// row is one line of the list.
type row struct {
	label string
	key   string // credential key; empty for the preferences row
}

var rows = []row{
	{label: "Anthropic API key", key: credential.KeyAnthropic},
	{label: "OpenAI API key", key: credential.KeyOpenAI},
	{label: "GitHub token", key: credential.KeyGitHub},
	{label: "Preferences"},
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	secret    string
	provider  string
	modelName string
	userID    string
	repoURL   string
}

// Checker validates a GitHub token and returns the account login.
type Checker func(ctx context.Context, baseURL, token string) (string, error)

// checkGitHub calls the GitHub API with token.
func checkGitHub(ctx context.Context, baseURL, token string) (string, error) {
	user, err := issues.NewClient(baseURL, token).ValidateConnection(ctx)
	if err != nil {
		return "", err
	}
	return user.Login, nil
}

// Model is the settings view.
type Model struct {
	mode       Mode
	cfg        *model.AppConfig
	configPath string
	keys       *keys.KeyMap
	check      Checker
	selected   int
	form       *huh.Form
	fb         *formBindings
	status     map[string]string
	result     ValidateResultMsg
	notice     string
	spinner    spinner.Model
	width      int
	height     int
}

// New creates the settings view for cfg, saved to configPath.
func New(cfg *model.AppConfig, configPath string, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	return Model{
		cfg:        cfg,
		configPath: configPath,
		keys:       k,
		check:      checkGitHub,
		fb:         &formBindings{},
		status:     map[string]string{},
		spinner:    sp,
		width:      width,
		height:     height,
	}
}

// Open resets the view and reads where each credential comes from.
func (m *Model) Open() tea.Cmd {
	m.mode = ModeList
	m.notice = ""
	m.refreshStatus()
	return nil
}

// Editing reports whether a form has focus.
func (m Model) Editing() bool {
	return m.mode == ModeCredentialForm || m.mode == ModePrefsForm
}

func (m *Model) refreshStatus() {
	for _, r := range rows {
		if r.key != "" {
			m.status[r.key] = credential.Status(r.key)
		}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case savedMsg:
		m.mode = ModeList
		if msg.err != nil {
			m.notice = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.notice = "Saved"
		m.refreshStatus()
		cfg := m.cfg
		return m, func() tea.Msg { return ChangedMsg{Config: cfg} }

	case ValidateResultMsg:
		if m.mode != ModeValidating {
			return m, nil
		}
		m.result = msg
		m.mode = ModeValidateResult
		return m, nil

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	if m.Editing() {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeCredentialForm, ModePrefsForm:
		return m.updateForm(msg)
	case ModeValidating:
		if key.Matches(msg, m.keys.Back) {
			m.mode = ModeList
		}
		return m, nil
	case ModeValidateResult:
		m.mode = ModeList
		return m, nil
	}
	return m.handleListKeys(msg)
}

func (m Model) handleListKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return DoneMsg{} }

	case key.Matches(msg, m.keys.Down):
		m.selected = (m.selected + 1) % len(rows)
	case key.Matches(msg, m.keys.Up):
		m.selected = (m.selected + len(rows) - 1) % len(rows)

	case key.Matches(msg, m.keys.Select):
		*m.fb = formBindings{
			provider:  m.cfg.AI.Provider,
			modelName: m.cfg.AI.Model,
			userID:    m.cfg.User.ID,
			repoURL:   m.cfg.GitHub.BaseURL,
		}
		r := rows[m.selected]
		if r.key == "" {
			m.form = m.buildPrefsForm()
			m.mode = ModePrefsForm
		} else {
			m.form = m.buildCredentialForm(r)
			m.mode = ModeCredentialForm
		}
		return m, m.form.Init()

	case msg.String() == "x":
		r := rows[m.selected]
		if r.key == "" || m.status[r.key] != credential.SourceKeyring {
			return m, nil
		}
		k := r.key
		return m, func() tea.Msg { return savedMsg{err: credential.Delete(k)} }

	case msg.String() == "t":
		m.mode = ModeValidating
		return m, tea.Batch(m.spinner.Tick, m.validate())
	}
	return m, nil
}

func (m Model) validate() tea.Cmd {
	check, baseURL := m.check, m.cfg.GitHub.BaseURL
	return func() tea.Msg {
		token, err := credential.Lookup(credential.KeyGitHub)
		if err != nil {
			return ValidateResultMsg{Err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		login, err := check(ctx, baseURL, token)
		return ValidateResultMsg{Login: login, Err: err}
	}
}

func (m *Model) buildCredentialForm(r row) *huh.Form {
	desc := "Stored in the system keyring."
	if env := credential.EnvVar(r.key); env != "" {
		desc += fmt.Sprintf(" $%s takes precedence when set.", env)
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(r.label).
				Description(desc).
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.secret).
				Validate(validateRequired(r.label)),
		),
	).WithWidth(m.formWidth())
}

func (m *Model) buildPrefsForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("AI provider").
				Options(
					huh.NewOption("Anthropic", model.ProviderAnthropic),
					huh.NewOption("OpenAI", model.ProviderOpenAI),
				).
				Value(&m.fb.provider),
			huh.NewInput().
				Title("Model").
				Value(&m.fb.modelName).
				Validate(validateRequired("Model")),
			huh.NewInput().
				Title("User ID").
				Description("Author of your posts, votes and projects.").
				Value(&m.fb.userID).
				Validate(validateRequired("User ID")),
			huh.NewInput().
				Title("GitHub API URL").
				Value(&m.fb.repoURL).
				Validate(validateRequired("GitHub API URL")),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		m.mode = ModeList
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		return m, m.save()
	case huh.StateAborted:
		m.mode = ModeList
		return m, nil
	}
	return m, cmd
}

// save persists the completed form.
func (m Model) save() tea.Cmd {
	fb := *m.fb
	if m.mode == ModeCredentialForm {
		k := rows[m.selected].key
		return func() tea.Msg {
			return savedMsg{err: credential.Set(k, strings.TrimSpace(fb.secret))}
		}
	}

	applyPrefs(m.cfg, fb)
	cfg, path := *m.cfg, m.configPath
	return func() tea.Msg {
		return savedMsg{err: model.SaveConfig(path, &cfg)}
	}
}

// applyPrefs copies the preference fields into cfg.
func applyPrefs(cfg *model.AppConfig, fb formBindings) {
	cfg.AI.Provider = fb.provider
	cfg.AI.Model = strings.TrimSpace(fb.modelName)
	cfg.User.ID = strings.TrimSpace(fb.userID)
	cfg.GitHub.BaseURL = strings.TrimRight(strings.TrimSpace(fb.repoURL), "/")
}

// View renders the settings view.
func (m Model) View() string {
	switch m.mode {
	case ModeCredentialForm, ModePrefsForm:
		if m.form == nil {
			return ""
		}
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	case ModeValidating:
		return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(
			fmt.Sprintf("%s Testing GitHub token...\n\nPress esc to cancel.", m.spinner.View()))
	case ModeValidateResult:
		return m.viewValidateResult()
	}
	return m.viewList()
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Settings"))
	b.WriteString("\n\n")

	for i, r := range rows {
		var value string
		if r.key == "" {
			value = fmt.Sprintf("%s · %s · user %s", m.cfg.AI.Provider, m.cfg.AI.Model, m.cfg.User.ID)
		} else {
			value = statusLabel(m.status[r.key])
		}
		line := fmt.Sprintf("%-20s %s", r.label, value)
		if i == m.selected {
			b.WriteString(theme.SelectedItemStyle.Render(line))
		} else {
			b.WriteString(theme.ListItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.notice))
	}

	b.WriteString("\n\n")
	b.WriteString(theme.DimmedStyle.Render(fmt.Sprintf("config: %s", m.configPath)))
	b.WriteString("\n")
	b.WriteString(theme.DimmedStyle.Render("enter edit | x remove from keyring | t test GitHub token | esc back"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) viewValidateResult() string {
	var content string
	if m.result.Err != nil {
		content = lipgloss.NewStyle().Foreground(theme.ColorRed).Bold(true).Render("GitHub token check failed") +
			"\n\n" + m.result.Err.Error()
	} else {
		content = lipgloss.NewStyle().Foreground(theme.ColorGreen).Bold(true).Render("GitHub token OK") +
			"\n\nAuthenticated as " + m.result.Login
	}
	content += "\n\n" + theme.HelpStyle.Render("Press any key to continue.")
	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(content)
}

func statusLabel(source string) string {
	switch source {
	case credential.SourceEnv:
		return lipgloss.NewStyle().Foreground(theme.ColorGreen).Render("set (environment)")
	case credential.SourceKeyring:
		return lipgloss.NewStyle().Foreground(theme.ColorGreen).Render("set (keyring)")
	default:
		return theme.DimmedStyle.Render("not set")
	}
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
