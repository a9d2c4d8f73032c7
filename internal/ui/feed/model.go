// Package feed renders the community post list and applies votes and
// saves optimistically.
package feed

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/devdash/internal/engagement"
	"github.com/nhle/devdash/internal/keys"
	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/store"
	"github.com/nhle/devdash/internal/theme"
	"github.com/nhle/devdash/internal/ui"
)

// pageSize bounds how many posts one load fetches.
const pageSize = 100

// PostLister loads posts as seen by a user.
type PostLister interface {
	ListPosts(ctx context.Context, userID string, filter store.PostFilter) ([]model.Post, error)
}

// PostsLoadedMsg is sent when posts have been loaded.
type PostsLoadedMsg struct {
	Posts []model.Post
	Err   error
}

// SelectedPostMsg is sent when the user opens a post.
type SelectedPostMsg struct {
	Post model.Post
}

// Model is the community feed view.
type Model struct {
	list        list.Model
	posts       PostLister
	reconciler  *engagement.Reconciler
	keys        *keys.KeyMap
	filter      store.PostFilter
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a feed acting as the reconciler's user.
func New(p PostLister, r *engagement.Reconciler, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, PostDelegate{}, width, height-1)
	l.Title = "Community"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search posts..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		posts:       p,
		reconciler:  r,
		keys:        k,
		filter:      store.PostFilter{SortBy: store.PostSortNew, Limit: pageSize},
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init loads the first page.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// Update handles messages for the feed.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case PostsLoadedMsg:
		if msg.Err != nil {
			return m, ui.Fail(msg.Err)
		}
		items := make([]list.Item, len(msg.Posts))
		for i, p := range msg.Posts {
			items[i] = PostItem{Post: p}
		}
		return m, m.list.SetItems(items)

	// A confirmed action leaves the row alone: a newer optimistic action
	// may already have changed it. Only a rollback is written back.
	case ui.VoteResultMsg:
		if msg.Err == nil {
			return m, nil
		}
		m.updatePost(msg.PostID, func(p *model.Post) { msg.State.ApplyTo(p) })
		return m, ui.Fail(msg.Err)

	case ui.SaveResultMsg:
		if msg.Err == nil {
			return m, nil
		}
		m.updatePost(msg.PostID, func(p *model.Post) { p.IsSavedByUser = msg.Saved })
		return m, ui.Fail(msg.Err)

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		return m, m.Search(m.searchInput.Value())

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.filter.Query = nil
		return m, m.Load()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(PostItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg { return SelectedPostMsg{Post: item.Post} }

	case key.Matches(msg, m.keys.Upvote):
		return m.vote(model.VoteUp)

	case key.Matches(msg, m.keys.Downvote):
		return m.vote(model.VoteDown)

	case key.Matches(msg, m.keys.Save):
		item, ok := m.list.SelectedItem().(PostItem)
		if !ok {
			return m, nil
		}
		action := m.reconciler.Save(item.Post.ID, item.Post.IsSavedByUser)
		m.updatePost(item.Post.ID, func(p *model.Post) { p.IsSavedByUser = action.Next() })
		return m, ui.CommitSave(ui.OriginFeed, action)

	case key.Matches(msg, m.keys.SortTop):
		if m.filter.SortBy == store.PostSortTop {
			m.filter.SortBy = store.PostSortNew
		} else {
			m.filter.SortBy = store.PostSortTop
		}
		m.list.Title = m.title()
		return m, m.Load()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.Load()

	case msg.String() == "/":
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// vote applies voteType to the selected post locally and commits it.
func (m Model) vote(voteType model.VoteType) (Model, tea.Cmd) {
	item, ok := m.list.SelectedItem().(PostItem)
	if !ok {
		return m, nil
	}
	action, err := m.reconciler.Vote(item.Post.ID, voteType, engagement.VoteStateOf(item.Post))
	if err != nil {
		return m, ui.Fail(err)
	}
	next := action.Next()
	m.updatePost(item.Post.ID, func(p *model.Post) { next.ApplyTo(p) })
	return m, ui.CommitVote(ui.OriginFeed, action)
}

// updatePost applies fn to every listed copy of postID.
func (m *Model) updatePost(postID string, fn func(*model.Post)) {
	for i, it := range m.list.Items() {
		pi, ok := it.(PostItem)
		if !ok || pi.Post.ID != postID {
			continue
		}
		fn(&pi.Post)
		m.list.SetItem(i, pi)
	}
}

// Posts returns the currently listed posts.
func (m Model) Posts() []model.Post {
	items := m.list.Items()
	out := make([]model.Post, 0, len(items))
	for _, it := range items {
		if pi, ok := it.(PostItem); ok {
			out = append(out, pi.Post)
		}
	}
	return out
}

// View renders the feed.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		style := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		if m.FilterSummary() != "" {
			return style.Render("No matching posts.")
		}
		if m.filter.SavedOnly {
			return style.Render("No saved posts.\n\nPress s on a post to save it.")
		}
		return style.Render("No posts yet.\n\nPress n to share one.")
	}

	return m.list.View()
}

// Load returns a tea.Cmd that fetches posts with the current filter.
func (m Model) Load() tea.Cmd {
	filter := m.filter
	lister := m.posts
	userID := m.reconciler.UserID()
	return func() tea.Msg {
		posts, err := lister.ListPosts(context.Background(), userID, filter)
		return PostsLoadedMsg{Posts: posts, Err: err}
	}
}

// ShowSaved switches between the full feed and the user's saved posts
// and reloads.
func (m *Model) ShowSaved(saved bool) tea.Cmd {
	m.filter.SavedOnly = saved
	return m.reload()
}

// Search lists posts whose title or content contains q. An empty q
// clears the search.
func (m *Model) Search(q string) tea.Cmd {
	m.filter.Query = optional(q)
	return m.reload()
}

// FilterTool limits the feed to posts about one tool.
func (m *Model) FilterTool(tool string) tea.Cmd {
	m.filter.Tool = optional(strings.ToLower(tool))
	return m.reload()
}

// FilterTag limits the feed to posts carrying tag.
func (m *Model) FilterTag(tag string) tea.Cmd {
	m.filter.Tag = optional(strings.ToLower(tag))
	return m.reload()
}

// ClearFilters drops the search, tool, tag and saved filters.
func (m *Model) ClearFilters() tea.Cmd {
	m.filter.Query, m.filter.Tool, m.filter.Tag = nil, nil, nil
	m.filter.SavedOnly = false
	return m.reload()
}

// FilterSummary describes the active filters, empty when there are none.
func (m Model) FilterSummary() string {
	var parts []string
	if m.filter.Query != nil {
		parts = append(parts, fmt.Sprintf("search %q", *m.filter.Query))
	}
	if m.filter.Tool != nil {
		parts = append(parts, "tool "+*m.filter.Tool)
	}
	if m.filter.Tag != nil {
		parts = append(parts, "#"+*m.filter.Tag)
	}
	return strings.Join(parts, ", ")
}

func (m *Model) reload() tea.Cmd {
	m.filter.Offset = 0
	m.list.Title = m.title()
	return m.Load()
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// ShowingSaved reports whether only saved posts are listed.
func (m Model) ShowingSaved() bool {
	return m.filter.SavedOnly
}

func (m Model) title() string {
	t := "Community"
	if m.filter.SavedOnly {
		t = "Saved"
	}
	if m.filter.SortBy == store.PostSortTop {
		t += " · top"
	}
	return t
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-1)
	m.searchInput.Width = width - 4
}
