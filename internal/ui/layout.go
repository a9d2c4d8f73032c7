// Package ui holds the layout helpers shared by the dashboard views.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/devdash/internal/theme"
)

// Layout manages the terminal layout: a header, a tab bar, the content
// area and a status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	TabsHeight      int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		TabsHeight:      1,
		StatusBarHeight: 1,
	}
}

// ContentHeight returns the height left for the active view.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.TabsHeight - l.StatusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader renders the title on the left and the project / sync
// summary on the right.
func (l Layout) RenderHeader(title, right string) string {
	titleRendered := theme.HeaderStyle.Render(title)
	rightRendered := theme.HeaderStyle.Render(right)
	return fill(theme.HeaderStyle, l.Width, titleRendered, rightRendered)
}

// RenderTabs renders the view switcher with active highlighted.
func (l Layout) RenderTabs(tabs []string, active int) string {
	parts := make([]string, len(tabs))
	for i, t := range tabs {
		if i == active {
			parts[i] = theme.ActiveTabStyle.Render(t)
		} else {
			parts[i] = theme.TabStyle.Render(t)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// RenderStatusBar renders keyboard hints, or err in the error style when
// it is non-empty.
func (l Layout) RenderStatusBar(hints, err string) string {
	style := theme.StatusBarStyle
	text := hints
	if err != "" {
		style = theme.ErrorBarStyle
		text = "! " + strings.TrimSpace(err)
	}
	if l.Width > 4 && lipgloss.Width(text) > l.Width-2 {
		text = truncate(text, l.Width-2)
	}
	return fill(style, l.Width, style.Render(text), "")
}

// RenderWithFrame joins the header, tabs, content and status bar.
func (l Layout) RenderWithFrame(header, tabs, content, statusBar string) string {
	content = lipgloss.NewStyle().Height(l.ContentHeight()).MaxHeight(l.ContentHeight()).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, tabs, content, statusBar)
}

// fill pads the gap between left and right with style's background.
func fill(style lipgloss.Style, width int, left, right string) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")
	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, right)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
