package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/devdash/internal/community"
	"github.com/nhle/devdash/internal/engagement"
	"github.com/nhle/devdash/internal/keys"
	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/store"
	appsync "github.com/nhle/devdash/internal/sync"
	"github.com/nhle/devdash/internal/ui"
	"github.com/nhle/devdash/internal/ui/command"
	"github.com/nhle/devdash/internal/ui/detail"
	"github.com/nhle/devdash/internal/ui/feed"
	helpview "github.com/nhle/devdash/internal/ui/help"
	"github.com/nhle/devdash/internal/ui/postform"
	"github.com/nhle/devdash/internal/ui/projectmgr"
	"github.com/nhle/devdash/internal/ui/settings"
	"github.com/nhle/devdash/internal/ui/workspace"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewFeed ViewState = iota
	ViewDetail
	ViewWorkspace
	ViewProjects
	ViewPostForm
	ViewSettings
	ViewHelp
	ViewCommand
)

var tabs = []string{"Feed", "Workspace"}

type postCreatedMsg struct {
	post *model.Post
	err  error
}

// Options are the dependencies of the root model.
type Options struct {
	Store      store.Store
	Config     *model.AppConfig
	ConfigPath string
	Services   *Services
	Logger     *slog.Logger
}

// Model is the root Bubble Tea model that manages view routing,
// layout, and the services shared by the views.
type Model struct {
	currentView  ViewState
	previousView ViewState
	tab          int
	layout       ui.Layout
	store        store.Store
	cfg          *model.AppConfig
	configPath   string
	services     *Services
	community    *community.Service
	logger       *slog.Logger
	keys         *keys.KeyMap

	feed         feed.Model
	detail       detail.Model
	workspace    workspace.Model
	projectView  projectmgr.Model
	postForm     postform.Model
	settingsView settings.Model
	helpView     helpview.Model
	commandView  command.Model

	ready     bool
	status    string
	errText   string
	authError string
}

// New creates the root application model.
func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	svc := opts.Services
	if svc == nil {
		svc = &Services{}
	}
	k := keys.DefaultKeyMap()

	m := Model{
		currentView: ViewFeed,
		store:       opts.Store,
		cfg:         opts.Config,
		configPath:  opts.ConfigPath,
		services:    svc,
		community:   community.NewService(opts.Store),
		logger:      logger.With("component", "app"),
		keys:        k,
		postForm:    postform.New(80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
	}
	m.buildUserViews()
	m.workspace = workspace.New(opts.Store, generatorOf(svc), mirrorOf(svc), k, 80, 24)
	m.settingsView = settings.New(opts.Config, opts.ConfigPath, k, 80, 24)
	if len(svc.Warnings) > 0 {
		m.status = svc.Warnings[0]
	}
	return m
}

// buildUserViews creates the views that act as the configured user.
func (m *Model) buildUserViews() {
	timeout := time.Duration(m.cfg.Engagement.TimeoutSec) * time.Second
	r := engagement.NewReconciler(m.community, m.cfg.User.ID, timeout)
	m.feed = feed.New(m.community, r, m.keys, 80, 24)
	m.detail = detail.New(m.community, r, m.keys, 80, 24)
	m.projectView = projectmgr.New(m.store, m.cfg.User.ID, m.keys, 80, 24)
}

// generatorOf avoids wrapping a nil pointer in a non-nil interface.
func generatorOf(s *Services) workspace.Generator {
	if s.Generator == nil {
		return nil
	}
	return s.Generator
}

func mirrorOf(s *Services) workspace.Mirror {
	if s.Mirror == nil {
		return nil
	}
	return s.Mirror
}

// Init loads the feed and starts issue polling when GitHub is configured.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.feed.Init()}
	if m.services.Poller != nil {
		cmds = append(cmds, m.services.Poller.Start())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		m.resize()
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case ui.ErrorMsg:
		m.errText = msg.Err.Error()
		m.status = ""
		m.logger.Warn("operation failed", "error", msg.Err)
		return m, nil

	case ui.StatusMsg:
		m.status = msg.Text
		m.errText = ""
		return m, nil

	case ui.VoteResultMsg:
		return m.routeResult(msg.Origin, msg)

	case ui.SaveResultMsg:
		return m.routeResult(msg.Origin, msg)

	case appsync.SyncResultMsg:
		return m, m.handleSync(msg)

	case feed.SelectedPostMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		return m, m.detail.Open(msg.Post)

	case detail.BackMsg:
		m.currentView = ViewFeed
		// Comment counts may have changed.
		return m, m.feed.Load()

	case postform.SubmittedMsg:
		m.currentView = ViewFeed
		return m, m.createPost(msg.Post)

	case postform.CancelMsg:
		m.currentView = ViewFeed
		return m, nil

	case postCreatedMsg:
		if msg.err != nil {
			return m, ui.Fail(msg.err)
		}
		m.status = fmt.Sprintf("Published %q", msg.post.Title)
		m.errText = ""
		return m, m.feed.Load()

	case projectmgr.SelectedMsg:
		m.currentView = ViewWorkspace
		m.tab = 1
		return m, m.workspace.Open(msg.Project)

	case projectmgr.CloseMsg:
		m.currentView = m.tabView()
		return m, nil

	case projectmgr.ChangedMsg:
		if m.workspace.Project() != nil {
			return m, m.workspace.Reload()
		}
		return m, nil

	case settings.DoneMsg:
		m.currentView = m.tabView()
		return m, nil

	case settings.ChangedMsg:
		return m, m.applyConfig(msg.Config)

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(msg)

	case tea.KeyMsg:
		// Notices last until the next key press.
		m.status, m.errText = "", ""
		if next, cmd, handled := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// routeResult delivers an engagement result to the view that started the
// action, whichever view is active.
func (m Model) routeResult(o ui.Origin, msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if o == ui.OriginDetail {
		m.detail, cmd = m.detail.Update(msg)
	} else {
		m.feed, cmd = m.feed.Update(msg)
	}
	return m, cmd
}

// handleGlobalKey processes keys that work across views. Views that own
// a text input receive every key except ctrl+c.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		m.services.Stop()
		return m, tea.Quit, true
	}
	if m.currentView == ViewCommand && msg.String() == "esc" {
		m.currentView = m.previousView
		return m, nil, true
	}
	if m.capturingInput() {
		return m, nil, false
	}

	onTab := m.currentView == ViewFeed || m.currentView == ViewWorkspace

	switch msg.String() {
	case "q":
		if onTab {
			m.services.Stop()
			return m, tea.Quit, true
		}

	case "esc":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		m.helpView.SetOrigin(viewName(m.previousView))
		return m, nil, true

	case ":":
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m, m.commandView.Focus(), true

	case "tab":
		if onTab {
			m.tab = (m.tab + 1) % len(tabs)
			m.currentView = m.tabView()
			return m, nil, true
		}

	case "p":
		if onTab {
			m.previousView = m.currentView
			m.currentView = ViewProjects
			return m, m.projectView.Init(), true
		}

	case ",":
		if onTab {
			m.previousView = m.currentView
			m.currentView = ViewSettings
			return m, m.settingsView.Open(), true
		}

	case "n":
		if m.currentView == ViewFeed {
			m.previousView = m.currentView
			m.currentView = ViewPostForm
			return m, m.postForm.Start(), true
		}
	}
	return m, nil, false
}

// capturingInput reports whether the active view has a focused text
// input or form.
func (m Model) capturingInput() bool {
	switch m.currentView {
	case ViewPostForm, ViewCommand:
		return true
	case ViewFeed:
		return m.feed.Searching()
	case ViewDetail:
		return m.detail.Composing()
	case ViewProjects:
		return m.projectView.Editing()
	case ViewSettings:
		return m.settingsView.Editing()
	}
	return false
}

func (m Model) tabView() ViewState {
	if m.tab == 1 {
		return ViewWorkspace
	}
	return ViewFeed
}

func (m *Model) resize() {
	w, h := m.layout.Width, m.layout.ContentHeight()
	m.feed.SetSize(w, h)
	m.detail.SetSize(w, h)
	m.workspace.SetSize(w, h)
	m.projectView.SetSize(w, h)
	m.postForm.SetSize(w, h)
	m.settingsView.SetSize(w, h)
	m.helpView.SetSize(w, h)
	m.commandView.SetSize(w, h)
}

func (m *Model) handleSync(msg appsync.SyncResultMsg) tea.Cmd {
	switch {
	case msg.AuthError != nil:
		m.authError = msg.AuthError.Message
	case msg.Error == nil:
		m.authError = ""
	}

	var cmds []tea.Cmd
	if len(msg.Updates) > 0 {
		m.status = fmt.Sprintf("%d task(s) updated from GitHub", len(msg.Updates))
		if m.workspace.Project() != nil {
			cmds = append(cmds, m.workspace.Reload())
		}
	}
	if m.services.Poller != nil {
		cmds = append(cmds, m.services.Poller.WaitForNextResult())
	}
	return tea.Batch(cmds...)
}

// applyConfig rebuilds the services after settings changed. The poller is
// replaced because a stopped poller cannot be restarted.
func (m *Model) applyConfig(cfg *model.AppConfig) tea.Cmd {
	userChanged := cfg.User.ID != m.cfg.User.ID
	m.cfg = cfg

	m.services.Stop()
	svc, err := BuildServices(cfg, m.store, m.logger)
	if err != nil {
		m.services = &Services{}
		m.workspace.SetServices(nil, nil)
		return ui.Fail(err)
	}
	m.services = svc
	m.workspace.SetServices(generatorOf(svc), mirrorOf(svc))

	cmds := []tea.Cmd{}
	if userChanged {
		m.buildUserViews()
		if m.ready {
			m.resize()
		}
		cmds = append(cmds, m.feed.Load())
	}
	if svc.Poller != nil {
		cmds = append(cmds, svc.Poller.Start())
	}
	if len(svc.Warnings) > 0 {
		m.status = svc.Warnings[0]
	} else {
		m.status = "Settings saved"
	}
	m.errText = ""
	return tea.Batch(cmds...)
}

func (m Model) createPost(in community.NewPost) tea.Cmd {
	svc, userID := m.community, m.cfg.User.ID
	return func() tea.Msg {
		post, err := svc.CreatePost(context.Background(), userID, in)
		return postCreatedMsg{post: post, err: err}
	}
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewFeed:
		m.feed, cmd = m.feed.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewWorkspace:
		m.workspace, cmd = m.workspace.Update(msg)
	case ViewProjects:
		m.projectView, cmd = m.projectView.Update(msg)
	case ViewPostForm:
		m.postForm, cmd = m.postForm.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := "devdash"
	if p := m.workspace.Project(); p != nil {
		title += " · " + p.Name
	}
	header := m.layout.RenderHeader(title, m.syncStatus())
	tabBar := m.layout.RenderTabs(tabs, m.tab)
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.errText)

	return m.layout.RenderWithFrame(header, tabBar, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewFeed:
		return m.feed.View()
	case ViewDetail:
		return m.detail.View()
	case ViewWorkspace:
		return m.workspace.View()
	case ViewProjects:
		return m.projectView.View()
	case ViewPostForm:
		return m.postForm.View()
	case ViewSettings:
		return m.settingsView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// syncStatus returns a short string describing the issue sync state.
func (m Model) syncStatus() string {
	if m.services.Poller == nil {
		return "sync off"
	}
	st := m.services.Poller.Status()
	switch st.State {
	case appsync.SyncRunning:
		return "syncing"
	case appsync.SyncError:
		return "⚠ sync failed"
	}
	if st.LastSync.IsZero() {
		return "idle"
	}
	return "synced " + st.LastSync.Local().Format("15:04")
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	// Show auth error prominently when present.
	if m.authError != "" && m.currentView == ViewWorkspace {
		return m.authError
	}
	if m.status != "" && m.errText == "" {
		return m.status
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewDetail:
		if m.detail.Composing() {
			return "ctrl+s post | esc cancel"
		}
		return "esc back | u/d vote | s save | c comment | j/k scroll"
	case ViewWorkspace:
		if m.workspace.Previewing() {
			return "enter accept | r regenerate | esc discard"
		}
		return "1-4 generate | h/l section | space status | m mirror | p projects | tab feed"
	case ViewProjects:
		return "enter open | n new | e edit | a archive | x delete | esc back"
	case ViewPostForm:
		return "enter next | esc cancel"
	case ViewSettings:
		return "enter edit | x delete | t test github | esc back"
	default:
		return "q quit | ? help | u/d vote | s save | n new | t top | / search | tab workspace"
	}
}

func viewName(v ViewState) string {
	switch v {
	case ViewDetail:
		return "post"
	case ViewWorkspace:
		return "workspace"
	case ViewProjects:
		return "projects"
	case ViewPostForm:
		return "new post"
	case ViewSettings:
		return "settings"
	default:
		return "feed"
	}
}

// executeCommand handles a command from the command palette.
func (m *Model) executeCommand(c command.CommandMsg) tea.Cmd {
	switch c.Name {
	case "feed":
		m.tab, m.currentView = 0, ViewFeed
		if m.feed.ShowingSaved() {
			return m.feed.ShowSaved(false)
		}
		return nil
	case "saved":
		m.tab, m.currentView = 0, ViewFeed
		return m.feed.ShowSaved(true)
	case "search":
		m.tab, m.currentView = 0, ViewFeed
		return m.feed.Search(c.Arg)
	case "tool":
		m.tab, m.currentView = 0, ViewFeed
		return m.feed.FilterTool(c.Arg)
	case "tag":
		m.tab, m.currentView = 0, ViewFeed
		return m.feed.FilterTag(c.Arg)
	case "clear":
		m.tab, m.currentView = 0, ViewFeed
		return m.feed.ClearFilters()
	case "new":
		m.tab, m.previousView, m.currentView = 0, ViewFeed, ViewPostForm
		return m.postForm.Start()
	case "workspace":
		m.tab, m.currentView = 1, ViewWorkspace
		return nil
	case "projects":
		m.previousView = m.tabView()
		m.currentView = ViewProjects
		return m.projectView.Init()
	case "open":
		if c.Arg == "" {
			return ui.Fail(errors.New("usage: open <project>"))
		}
		return m.openProject(c.Arg)
	case "refresh":
		cmds := []tea.Cmd{m.feed.Load()}
		if m.workspace.Project() != nil {
			cmds = append(cmds, m.workspace.Reload())
		}
		return tea.Batch(cmds...)
	case "mirror":
		m.tab, m.currentView = 1, ViewWorkspace
		return m.workspace.MirrorTasks()
	case "sync":
		if m.services.Poller == nil {
			return ui.Fail(errors.New("issue sync disabled: no GitHub token"))
		}
		m.status = "Syncing issues..."
		return m.services.Poller.Refresh()
	case "settings":
		m.previousView = m.tabView()
		m.currentView = ViewSettings
		return m.settingsView.Open()
	case "help":
		m.previousView = m.currentView
		m.currentView = ViewHelp
		m.helpView.SetOrigin(viewName(m.previousView))
		return nil
	case "quit":
		m.services.Stop()
		return tea.Quit
	default:
		return ui.Fail(fmt.Errorf("unknown command %q", c.Name))
	}
}

// openProject selects the user's active project named name.
func (m Model) openProject(name string) tea.Cmd {
	s, owner := m.store, m.cfg.User.ID
	return func() tea.Msg {
		projects, err := s.GetProjects(context.Background(), store.ProjectFilter{OwnerID: &owner})
		if err != nil {
			return ui.ErrorMsg{Err: err}
		}
		for _, p := range projects {
			if strings.EqualFold(p.Name, name) {
				return projectmgr.SelectedMsg{Project: p}
			}
		}
		return ui.ErrorMsg{Err: fmt.Errorf("no project named %q", name)}
	}
}
