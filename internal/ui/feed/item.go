package feed

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/theme"
)

// PostItem wraps a model.Post so it can be used in a bubbles/list.
type PostItem struct {
	Post model.Post
}

// FilterValue returns the string used for fuzzy filtering.
func (i PostItem) FilterValue() string { return i.Post.Title }

// Title returns the post title for the list.
func (i PostItem) Title() string { return i.Post.Title }

// Description returns a short summary line for the list.
func (i PostItem) Description() string {
	parts := []string{
		i.Post.AuthorID,
		fmt.Sprintf("%d comments", i.Post.CommentCount),
		relativeTime(i.Post.CreatedAt),
	}
	return strings.Join(parts, " | ")
}

// PostDelegate renders a post on two lines: votes, title and badges,
// then a dimmed byline.
type PostDelegate struct{}

func (d PostDelegate) Height() int  { return 2 }
func (d PostDelegate) Spacing() int { return 1 }

// Update handles per-item messages (unused).
func (d PostDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

// Render draws a single post.
func (d PostDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	pi, ok := item.(PostItem)
	if !ok {
		return
	}
	p := pi.Post

	title := p.Title
	maxTitle := m.Width() - 24
	if maxTitle > 10 && lipgloss.Width(title) > maxTitle {
		title = string([]rune(title)[:maxTitle-1]) + "…"
	}

	line := fmt.Sprintf("%s %s  %s",
		VoteGlyphs(p.UserVote),
		scoreStyle(p.Score()).Render(fmt.Sprintf("%4d", p.Score())),
		title,
	)
	if p.Tool != "" {
		line += " " + theme.DimmedStyle.Render("["+p.Tool+"]")
	}
	if p.IsSavedByUser {
		line += " " + lipgloss.NewStyle().Foreground(theme.ColorYellow).Render("★")
	}

	byline := theme.DimmedStyle.Render("          " + pi.Description() + tagSuffix(p.Tags))

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
		byline = lipgloss.NewStyle().PaddingLeft(2).Render(byline)
	} else {
		line = theme.ListItemStyle.Render(line)
		byline = theme.ListItemStyle.Render(byline)
	}

	fmt.Fprint(w, line+"\n"+byline)
}

// VoteGlyphs renders the up and down arrows with the user's vote lit.
func VoteGlyphs(v model.VoteType) string {
	return theme.VoteStyle(v == model.VoteUp, true).Render("▲") +
		theme.VoteStyle(v == model.VoteDown, false).Render("▼")
}

func scoreStyle(score int) lipgloss.Style {
	switch {
	case score > 0:
		return lipgloss.NewStyle().Bold(true).Foreground(theme.ColorOrange)
	case score < 0:
		return lipgloss.NewStyle().Bold(true).Foreground(theme.ColorMagenta)
	default:
		return theme.DimmedStyle
	}
}

func tagSuffix(tags model.StringList) string {
	if len(tags) == 0 {
		return ""
	}
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = "#" + t
	}
	return " | " + strings.Join(out, " ")
}

// relativeTime formats a timestamp as a human-readable relative duration.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 02")
	}
}
