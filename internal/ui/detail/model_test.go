package detail

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/devdash/internal/community"
	"github.com/nhle/devdash/internal/engagement"
	"github.com/nhle/devdash/internal/keys"
	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/testutil"
	"github.com/nhle/devdash/internal/ui"
)

func setup(t *testing.T) (Model, *community.Service, *model.Post) {
	t.Helper()
	svc := community.NewService(testutil.NewTestStore(t))
	post, err := svc.CreatePost(context.Background(), "alice", community.NewPost{Title: "Cursor rules", Content: "body"})
	require.NoError(t, err)

	r := engagement.NewReconciler(svc, "bob", time.Second)
	m := New(svc, r, keys.DefaultKeyMap(), 80, 30)
	cmd := m.Open(*post)
	m, _ = m.Update(cmd())
	require.NotNil(t, m.Post())
	return m, svc, post
}

func TestDetail_VoteCommitsThroughService(t *testing.T) {
	m, svc, post := setup(t)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("u")})
	require.NotNil(t, cmd)
	assert.Equal(t, 1, m.Post().UpvoteCount)

	res, ok := cmd().(ui.VoteResultMsg)
	require.True(t, ok)
	require.NoError(t, res.Err)
	m, _ = m.Update(res)

	stored, err := svc.GetPost(context.Background(), "bob", post.ID)
	require.NoError(t, err)
	assert.Equal(t, engagement.VoteStateOf(*stored), engagement.VoteStateOf(*m.Post()))
}

func TestDetail_Comment(t *testing.T) {
	m, svc, post := setup(t)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	require.True(t, m.Composing())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("nice tip")})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	assert.False(t, m.Composing())

	m, _ = m.Update(cmd())
	assert.Equal(t, 1, m.Post().CommentCount)

	comments, err := svc.ListComments(context.Background(), post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "nice tip", comments[0].Body)
	assert.Equal(t, "bob", comments[0].AuthorID)
}

func TestDetail_IgnoresResultsForOtherPosts(t *testing.T) {
	m, _, _ := setup(t)

	m, _ = m.Update(ui.SaveResultMsg{PostID: "other", Saved: true})
	assert.False(t, m.Post().IsSavedByUser)
}

func TestDetail_OverlappingVotesKeepLatestState(t *testing.T) {
	for _, reversed := range []bool{false, true} {
		m, svc, post := setup(t)
		u := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("u")}

		m, first := m.Update(u)
		m, second := m.Update(u)
		results := []tea.Msg{first(), second()}
		if reversed {
			slices.Reverse(results)
		}
		for _, res := range results {
			var cmd tea.Cmd
			m, cmd = m.Update(res)
			assert.Nil(t, cmd)
		}

		assert.Equal(t, 0, m.Post().UpvoteCount, "reversed=%v", reversed)
		assert.Equal(t, model.VoteNone, m.Post().UserVote, "reversed=%v", reversed)

		stored, err := svc.GetPost(context.Background(), "bob", post.ID)
		require.NoError(t, err)
		assert.Equal(t, engagement.VoteStateOf(*stored), engagement.VoteStateOf(*m.Post()))
	}
}

type offline struct{}

func (offline) SetVote(context.Context, string, string, model.VoteType) error {
	return errors.New("offline")
}
func (offline) RemoveVote(context.Context, string, string) error { return errors.New("offline") }
func (offline) Save(context.Context, string, string) error       { return errors.New("offline") }
func (offline) Unsave(context.Context, string, string) error     { return errors.New("offline") }

func TestDetail_FailureRestoresOwnSnapshot(t *testing.T) {
	_, svc, post := setup(t)
	m := New(svc, engagement.NewReconciler(offline{}, "bob", time.Second), keys.DefaultKeyMap(), 80, 30)
	m, _ = m.Update(m.Open(*post)())

	m, first := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("u")})
	m, second := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	assert.True(t, m.Post().IsSavedByUser)

	m, cmd := m.Update(first())
	require.NotNil(t, cmd)
	_, ok := cmd().(ui.ErrorMsg)
	assert.True(t, ok)
	assert.Equal(t, engagement.VoteState{}, engagement.VoteStateOf(*m.Post()))
	assert.True(t, m.Post().IsSavedByUser, "the vote rollback leaves the save alone")

	m, cmd = m.Update(second())
	require.NotNil(t, cmd)
	assert.False(t, m.Post().IsSavedByUser)
}
