// Package detail shows one community post with its comments.
package detail

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/devdash/internal/community"
	"github.com/nhle/devdash/internal/engagement"
	"github.com/nhle/devdash/internal/keys"
	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/theme"
	"github.com/nhle/devdash/internal/ui"
	"github.com/nhle/devdash/internal/ui/feed"
)

// Thread loads and extends a post's comment thread.
type Thread interface {
	GetPost(ctx context.Context, userID, postID string) (*model.Post, error)
	ListComments(ctx context.Context, postID string) ([]model.Comment, error)
	AddComment(ctx context.Context, authorID, postID string, in community.NewComment) (*model.Comment, error)
}

// BackMsg signals the parent to navigate back to the feed.
type BackMsg struct{}

// LoadedMsg carries a freshly loaded post and its comments.
type LoadedMsg struct {
	Post     *model.Post
	Comments []model.Comment
	Err      error
}

// commentAddedMsg reports the result of posting a comment.
type commentAddedMsg struct {
	Comment *model.Comment
	Err     error
}

// Model is the post detail view.
type Model struct {
	post       *model.Post
	comments   []model.Comment
	thread     Thread
	reconciler *engagement.Reconciler
	viewport   viewport.Model
	input      textarea.Model
	composing  bool
	keys       *keys.KeyMap
	width      int
	height     int
	loading    bool
}

// New creates a new detail view model.
func New(t Thread, r *engagement.Reconciler, k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	ta := textarea.New()
	ta.Placeholder = "Write a comment... (ctrl+s to post, esc to cancel)"
	ta.ShowLineNumbers = false
	ta.SetWidth(width - 4)
	ta.SetHeight(4)

	return Model{
		thread:     t,
		reconciler: r,
		viewport:   vp,
		input:      ta,
		keys:       k,
		width:      width,
		height:     height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Open shows p immediately and reloads it with its comments.
func (m *Model) Open(p model.Post) tea.Cmd {
	m.post = &p
	m.comments = nil
	m.loading = true
	m.composing = false
	m.input.Reset()
	m.refresh()
	m.viewport.GotoTop()

	thread, userID, postID := m.thread, m.reconciler.UserID(), p.ID
	return func() tea.Msg {
		ctx := context.Background()
		post, err := thread.GetPost(ctx, userID, postID)
		if err != nil {
			return LoadedMsg{Err: err}
		}
		comments, err := thread.ListComments(ctx, postID)
		return LoadedMsg{Post: post, Comments: comments, Err: err}
	}
}

// Composing reports whether the comment input has focus.
func (m Model) Composing() bool {
	return m.composing
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		if msg.Err != nil {
			return m, ui.Fail(msg.Err)
		}
		if m.post == nil || msg.Post.ID != m.post.ID {
			return m, nil
		}
		m.post = msg.Post
		m.comments = msg.Comments
		m.refresh()
		return m, nil

	case commentAddedMsg:
		if msg.Err != nil {
			return m, ui.Fail(msg.Err)
		}
		if m.post != nil && msg.Comment.PostID == m.post.ID {
			m.comments = append(m.comments, *msg.Comment)
			m.post.CommentCount++
			m.refresh()
			m.viewport.GotoBottom()
		}
		return m, func() tea.Msg { return ui.StatusMsg{Text: "Comment posted"} }

	case ui.VoteResultMsg:
		if msg.Err == nil {
			return m, nil
		}
		if m.post != nil && m.post.ID == msg.PostID {
			msg.State.ApplyTo(m.post)
			m.refresh()
		}
		return m, ui.Fail(msg.Err)

	case ui.SaveResultMsg:
		if msg.Err == nil {
			return m, nil
		}
		if m.post != nil && m.post.ID == msg.PostID {
			m.post.IsSavedByUser = msg.Saved
			m.refresh()
		}
		return m, ui.Fail(msg.Err)

	case tea.KeyMsg:
		if m.composing {
			return m.handleComposeKeys(msg)
		}
		if cmd, ok := m.handleKeys(msg); ok {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return func() tea.Msg { return BackMsg{} }, true

	case m.post == nil:
		return nil, false

	case key.Matches(msg, m.keys.Upvote), key.Matches(msg, m.keys.Downvote):
		vt := model.VoteUp
		if key.Matches(msg, m.keys.Downvote) {
			vt = model.VoteDown
		}
		action, err := m.reconciler.Vote(m.post.ID, vt, engagement.VoteStateOf(*m.post))
		if err != nil {
			return ui.Fail(err), true
		}
		action.Next().ApplyTo(m.post)
		m.refresh()
		// The feed keeps its own copy of the post as it is until it reloads.
		return ui.CommitVote(ui.OriginDetail, action), true

	case key.Matches(msg, m.keys.Save):
		action := m.reconciler.Save(m.post.ID, m.post.IsSavedByUser)
		m.post.IsSavedByUser = action.Next()
		m.refresh()
		return ui.CommitSave(ui.OriginDetail, action), true

	case key.Matches(msg, m.keys.Comment):
		m.composing = true
		return m.input.Focus(), true
	}
	return nil, false
}

func (m Model) handleComposeKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.composing = false
		m.input.Blur()
		return m, nil

	case "ctrl+s":
		body := m.input.Value()
		if strings.TrimSpace(body) == "" {
			return m, nil
		}
		m.composing = false
		m.input.Blur()
		m.input.Reset()

		thread, userID, postID := m.thread, m.reconciler.UserID(), m.post.ID
		return m, func() tea.Msg {
			c, err := thread.AddComment(context.Background(), userID, postID, community.NewComment{Body: body})
			return commentAddedMsg{Comment: c, Err: err}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// Post returns the displayed post, nil when none is open.
func (m Model) Post() *model.Post {
	return m.post
}

// View renders the detail view.
func (m Model) View() string {
	if m.post == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No post selected")
	}

	if m.composing {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.viewport.View(),
			theme.BorderStyle.Render(m.input.View()),
		)
	}
	return m.viewport.View()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderContent())
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.post == nil {
		return ""
	}
	p := m.post
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(p.Title))

	saved := ""
	if p.IsSavedByUser {
		saved = lipgloss.NewStyle().Foreground(theme.ColorYellow).Render("  ★ saved")
	}
	sections = append(sections, fmt.Sprintf("%s %d up  %d down  score %d%s",
		feed.VoteGlyphs(p.UserVote), p.UpvoteCount, p.DownvoteCount, p.Score(), saved))

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	meta := fmt.Sprintf("by %s on %s", p.AuthorID, p.CreatedAt.Format("2006-01-02 15:04"))
	if p.Tool != "" {
		meta += " · " + p.Tool
	}
	if len(p.Tags) > 0 {
		meta += " · #" + strings.Join(p.Tags, " #")
	}
	sections = append(sections, metaStyle.Render(meta))

	separator := lipgloss.NewStyle().
		Foreground(theme.ColorSubtle).
		Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	sections = append(sections, "", separator, "")
	sections = append(sections, lipgloss.NewStyle().Width(max(m.width-4, 20)).Render(p.Content))
	sections = append(sections, "", separator, "")

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, headerStyle.Render(fmt.Sprintf("Comments (%d)", p.CommentCount)), "")

	switch {
	case m.loading:
		sections = append(sections, metaStyle.Render("Loading comments..."))
	case len(m.comments) == 0:
		sections = append(sections, metaStyle.Italic(true).Render("No comments yet. Press c to add one."))
	}

	authorStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue)
	for _, c := range m.comments {
		sections = append(sections,
			fmt.Sprintf("%s  %s", authorStyle.Render(c.AuthorID), metaStyle.Render(c.CreatedAt.Format("2006-01-02 15:04"))),
			c.Body,
			"",
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.input.SetWidth(width - 4)
	if m.composing {
		m.viewport.Height = height - 8
	}
	m.refresh()
}
