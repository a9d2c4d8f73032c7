package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/devdash/internal/engagement"
)

// ErrorMsg asks the root model to show an error in the status bar.
type ErrorMsg struct {
	Err error
}

// StatusMsg asks the root model to show a transient notice.
type StatusMsg struct {
	Text string
}

// Origin names the view that started an engagement action.
type Origin string

const (
	OriginFeed   Origin = "feed"
	OriginDetail Origin = "detail"
)

// VoteResultMsg reports a committed vote. State is the action's result:
// its rollback snapshot when Err is set, which the view restores. On
// success the view keeps its local state. The message is delivered only to
// the view that started the vote; other copies of the post keep their own
// state.
type VoteResultMsg struct {
	Origin Origin
	PostID string
	State  engagement.VoteState
	Err    error
}

// SaveResultMsg is VoteResultMsg for the saved flag.
type SaveResultMsg struct {
	Origin Origin
	PostID string
	Saved  bool
	Err    error
}

// CommitVote runs the remote half of an optimistic vote.
func CommitVote(o Origin, a *engagement.VoteAction) tea.Cmd {
	return func() tea.Msg {
		state, err := a.Commit(context.Background())
		return VoteResultMsg{Origin: o, PostID: a.PostID, State: state, Err: err}
	}
}

// CommitSave runs the remote half of an optimistic save toggle.
func CommitSave(o Origin, a *engagement.SaveAction) tea.Cmd {
	return func() tea.Msg {
		saved, err := a.Commit(context.Background())
		return SaveResultMsg{Origin: o, PostID: a.PostID, Saved: saved, Err: err}
	}
}

// Fail returns a command reporting err to the status bar.
func Fail(err error) tea.Cmd {
	return func() tea.Msg { return ErrorMsg{Err: err} }
}
