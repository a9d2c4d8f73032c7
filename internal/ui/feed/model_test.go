package feed

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/devdash/internal/engagement"
	"github.com/nhle/devdash/internal/keys"
	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/store"
	"github.com/nhle/devdash/internal/ui"
)

type staticLister struct {
	posts  []model.Post
	filter store.PostFilter
}

func (s *staticLister) ListPosts(_ context.Context, _ string, f store.PostFilter) ([]model.Post, error) {
	s.filter = f
	return s.posts, nil
}

type remote struct {
	mu    sync.Mutex
	err   error
	calls []string
}

func (r *remote) rec(call string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	return r.err
}

func (r *remote) SetVote(_ context.Context, _, postID string, vt model.VoteType) error {
	return r.rec("set:" + postID + ":" + string(vt))
}
func (r *remote) RemoveVote(_ context.Context, _, postID string) error {
	return r.rec("remove:" + postID)
}
func (r *remote) Save(_ context.Context, _, postID string) error   { return r.rec("save:" + postID) }
func (r *remote) Unsave(_ context.Context, _, postID string) error { return r.rec("unsave:" + postID) }

func press(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loaded(t *testing.T, rem *remote, posts ...model.Post) (Model, *staticLister) {
	t.Helper()
	lister := &staticLister{posts: posts}
	m := New(lister, engagement.NewReconciler(rem, "bob", time.Second), keys.DefaultKeyMap(), 80, 30)
	msg := m.Init()()
	m, _ = m.Update(msg)
	require.Len(t, m.Posts(), len(posts))
	return m, lister
}

func TestFeed_UpvoteIsOptimisticThenConfirmed(t *testing.T) {
	rem := &remote{}
	m, _ := loaded(t, rem, model.Post{ID: "p1", Title: "one", UpvoteCount: 5, DownvoteCount: 2})

	m, cmd := m.Update(press("u"))
	require.NotNil(t, cmd)
	p := m.Posts()[0]
	assert.Equal(t, 6, p.UpvoteCount)
	assert.Equal(t, model.VoteUp, p.UserVote)
	assert.Empty(t, rem.calls, "nothing is sent before the command runs")

	res := cmd()
	m, cmd = m.Update(res)
	assert.Nil(t, cmd)
	assert.Equal(t, []string{"set:p1:upvote"}, rem.calls)
	assert.Equal(t, 6, m.Posts()[0].UpvoteCount)
}

func TestFeed_FailedVoteRollsBack(t *testing.T) {
	rem := &remote{err: errors.New("offline")}
	m, _ := loaded(t, rem, model.Post{ID: "p1", Title: "one", UpvoteCount: 5, UserVote: model.VoteNone})

	m, cmd := m.Update(press("d"))
	assert.Equal(t, 1, m.Posts()[0].DownvoteCount)

	m, cmd = m.Update(cmd())
	require.NotNil(t, cmd)
	p := m.Posts()[0]
	assert.Equal(t, 5, p.UpvoteCount)
	assert.Equal(t, 0, p.DownvoteCount)
	assert.Equal(t, model.VoteNone, p.UserVote)

	errMsg, ok := cmd().(ui.ErrorMsg)
	require.True(t, ok)
	var rb *engagement.RollbackError
	assert.ErrorAs(t, errMsg.Err, &rb)
}

func TestFeed_SaveToggle(t *testing.T) {
	rem := &remote{}
	m, _ := loaded(t, rem, model.Post{ID: "p1", Title: "one", IsSavedByUser: true})

	m, cmd := m.Update(press("s"))
	assert.False(t, m.Posts()[0].IsSavedByUser)
	m, _ = m.Update(cmd())
	assert.False(t, m.Posts()[0].IsSavedByUser)
	assert.Equal(t, []string{"unsave:p1"}, rem.calls)
}

func TestFeed_RollbackAppliesByPostID(t *testing.T) {
	rem := &remote{}
	m, _ := loaded(t, rem,
		model.Post{ID: "p1", Title: "one"},
		model.Post{ID: "p2", Title: "two", UpvoteCount: 3},
	)

	m, cmd := m.Update(ui.VoteResultMsg{
		PostID: "p2",
		State:  engagement.VoteState{UpvoteCount: 9, UserVote: model.VoteUp},
		Err:    errors.New("offline"),
	})
	require.NotNil(t, cmd)
	assert.Equal(t, 0, m.Posts()[0].UpvoteCount)
	assert.Equal(t, 9, m.Posts()[1].UpvoteCount)
}

func TestFeed_ConfirmedResultKeepsLocalState(t *testing.T) {
	m, _ := loaded(t, &remote{}, model.Post{ID: "p1", Title: "one", UpvoteCount: 5})

	m, cmd := m.Update(ui.VoteResultMsg{
		PostID: "p1",
		State:  engagement.VoteState{UpvoteCount: 9, UserVote: model.VoteUp},
	})
	assert.Nil(t, cmd)
	assert.Equal(t, 5, m.Posts()[0].UpvoteCount)
	assert.Equal(t, model.VoteNone, m.Posts()[0].UserVote)
}

// Overlapping actions on one post keep the latest local state whichever
// confirmation arrives first.
func TestFeed_OverlappingActionsKeepLatestState(t *testing.T) {
	tests := []struct {
		name     string
		reversed bool
	}{
		{name: "in order"},
		{name: "reversed", reversed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rem := &remote{}
			m, _ := loaded(t, rem, model.Post{ID: "p1", Title: "one", UpvoteCount: 5})

			m, first := m.Update(press("u"))
			m, second := m.Update(press("u"))
			m, firstSave := m.Update(press("s"))
			m, secondSave := m.Update(press("s"))

			results := []tea.Msg{first(), firstSave(), second(), secondSave()}
			if tt.reversed {
				slices.Reverse(results)
			}
			for _, res := range results {
				var cmd tea.Cmd
				m, cmd = m.Update(res)
				assert.Nil(t, cmd)
			}

			p := m.Posts()[0]
			assert.Equal(t, 5, p.UpvoteCount)
			assert.Equal(t, model.VoteNone, p.UserVote)
			assert.False(t, p.IsSavedByUser)
		})
	}
}

// Each failed action writes back the state from just before it, whatever
// was displayed in the meantime.
func TestFeed_OverlappingFailureRestoresOwnSnapshot(t *testing.T) {
	rem := &remote{err: errors.New("offline")}
	m, _ := loaded(t, rem, model.Post{ID: "p1", Title: "one", UpvoteCount: 5})

	m, first := m.Update(press("u"))
	m, second := m.Update(press("d"))
	p := m.Posts()[0]
	assert.Equal(t, 5, p.UpvoteCount)
	assert.Equal(t, 1, p.DownvoteCount)
	assert.Equal(t, model.VoteDown, p.UserVote)

	m, cmd := m.Update(first())
	require.NotNil(t, cmd)
	assert.Equal(t, engagement.VoteState{UpvoteCount: 5}, engagement.VoteStateOf(m.Posts()[0]))

	m, cmd = m.Update(second())
	require.NotNil(t, cmd)
	assert.Equal(t, engagement.VoteState{UpvoteCount: 6, UserVote: model.VoteUp},
		engagement.VoteStateOf(m.Posts()[0]))
}

func TestFeed_SortToggleReloads(t *testing.T) {
	m, lister := loaded(t, &remote{}, model.Post{ID: "p1", Title: "one"})

	m, cmd := m.Update(press("t"))
	require.NotNil(t, cmd)
	_, _ = m.Update(cmd())
	assert.Equal(t, store.PostSortTop, lister.filter.SortBy)
	assert.Equal(t, pageSize, lister.filter.Limit)
}

func TestFeed_ShowSaved(t *testing.T) {
	m, lister := loaded(t, &remote{}, model.Post{ID: "p1", Title: "one"})

	cmd := m.ShowSaved(true)
	_, _ = m.Update(cmd())
	assert.True(t, lister.filter.SavedOnly)
	assert.True(t, m.ShowingSaved())

	cmd = m.ShowSaved(false)
	_, _ = m.Update(cmd())
	assert.False(t, lister.filter.SavedOnly)
}

func TestFeed_Filters(t *testing.T) {
	m, lister := loaded(t, &remote{}, model.Post{ID: "p1", Title: "one"})

	_, _ = m.Update(m.FilterTool(" Cursor ")())
	require.NotNil(t, lister.filter.Tool)
	assert.Equal(t, "cursor", *lister.filter.Tool)

	_, _ = m.Update(m.FilterTag("Workflow")())
	_, _ = m.Update(m.Search("agents")())
	assert.Equal(t, `search "agents", tool cursor, #workflow`, m.FilterSummary())

	_, _ = m.Update(m.ClearFilters()())
	assert.Nil(t, lister.filter.Tool)
	assert.Nil(t, lister.filter.Tag)
	assert.Nil(t, lister.filter.Query)
	assert.Empty(t, m.FilterSummary())
}
