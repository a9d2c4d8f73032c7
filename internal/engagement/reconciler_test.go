package engagement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/devdash/internal/model"
)

// fakeRemote records calls and fails when err is set.
type fakeRemote struct {
	mu    sync.Mutex
	calls []string
	err   error
	block chan struct{}
}

func (f *fakeRemote) record(call string) error {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	block, err := f.block, f.err
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return err
}

func (f *fakeRemote) SetVote(ctx context.Context, userID, postID string, vt model.VoteType) error {
	return f.record("set:" + userID + ":" + postID + ":" + string(vt))
}

func (f *fakeRemote) RemoveVote(ctx context.Context, userID, postID string) error {
	return f.record("remove:" + userID + ":" + postID)
}

func (f *fakeRemote) Save(ctx context.Context, userID, postID string) error {
	return f.record("save:" + userID + ":" + postID)
}

func (f *fakeRemote) Unsave(ctx context.Context, userID, postID string) error {
	return f.record("unsave:" + userID + ":" + postID)
}

func (f *fakeRemote) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func TestNextVote_Table(t *testing.T) {
	base := VoteState{UpvoteCount: 5, DownvoteCount: 2}

	tests := []struct {
		name     string
		current  model.VoteType
		action   model.VoteType
		wantVote model.VoteType
		wantUp   int
		wantDown int
		wantMut  Mutation
	}{
		{"none+up", model.VoteNone, model.VoteUp, model.VoteUp, 6, 2, MutationSetVote},
		{"none+down", model.VoteNone, model.VoteDown, model.VoteDown, 5, 3, MutationSetVote},
		{"up+up", model.VoteUp, model.VoteUp, model.VoteNone, 4, 2, MutationRemoveVote},
		{"down+down", model.VoteDown, model.VoteDown, model.VoteNone, 5, 1, MutationRemoveVote},
		{"up+down", model.VoteUp, model.VoteDown, model.VoteDown, 4, 3, MutationSetVote},
		{"down+up", model.VoteDown, model.VoteUp, model.VoteUp, 6, 1, MutationSetVote},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur := base
			cur.UserVote = tt.current

			tr, err := NextVote(cur, tt.action)
			require.NoError(t, err)

			assert.Equal(t, VoteState{UpvoteCount: tt.wantUp, DownvoteCount: tt.wantDown, UserVote: tt.wantVote}, tr.Next)
			assert.Equal(t, cur, tr.Rollback)
			assert.Equal(t, tt.wantMut, tr.Mutation)
		})
	}
}

func TestNextVote_UpThenDown(t *testing.T) {
	tr, err := NextVote(VoteState{UpvoteCount: 5, DownvoteCount: 2, UserVote: model.VoteUp}, model.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, VoteState{UpvoteCount: 4, DownvoteCount: 3, UserVote: model.VoteDown}, tr.Next)
}

func TestNextVote_ToggleRoundTrip(t *testing.T) {
	start := VoteState{UpvoteCount: 10, DownvoteCount: 4}
	for _, vt := range []model.VoteType{model.VoteUp, model.VoteDown} {
		first, err := NextVote(start, vt)
		require.NoError(t, err)
		second, err := NextVote(first.Next, vt)
		require.NoError(t, err)
		assert.Equal(t, start, second.Next)
	}
}

func TestNextVote_Invalid(t *testing.T) {
	_, err := NextVote(VoteState{}, model.VoteNone)
	assert.Error(t, err)
	_, err = NextVote(VoteState{}, "sideways")
	assert.Error(t, err)
	_, err = NextVote(VoteState{UserVote: "meh"}, model.VoteUp)
	assert.Error(t, err)
}

func TestNextVote_NeverNegative(t *testing.T) {
	tr, err := NextVote(VoteState{UserVote: model.VoteUp}, model.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 0, tr.Next.UpvoteCount)
}

func TestNextSave(t *testing.T) {
	assert.Equal(t, SaveTransition{Next: true, Rollback: false, Mutation: MutationSave}, NextSave(false))
	assert.Equal(t, SaveTransition{Next: false, Rollback: true, Mutation: MutationUnsave}, NextSave(true))
}

func TestVoteAction_CommitSuccess(t *testing.T) {
	remote := &fakeRemote{}
	r := NewReconciler(remote, "u1", 0)

	cur := VoteState{UpvoteCount: 1, DownvoteCount: 0}
	action, err := r.Vote("p1", model.VoteUp, cur)
	require.NoError(t, err)

	// Optimistic state is available before any remote call.
	assert.Equal(t, VoteState{UpvoteCount: 2, UserVote: model.VoteUp}, action.Next())
	assert.Empty(t, remote.Calls())

	got, err := action.Commit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, action.Next(), got)
	assert.Equal(t, []string{"set:u1:p1:upvote"}, remote.Calls())
}

func TestVoteAction_ToggleOffCallsRemove(t *testing.T) {
	remote := &fakeRemote{}
	r := NewReconciler(remote, "u1", 0)

	action, err := r.Vote("p1", model.VoteDown, VoteState{DownvoteCount: 3, UserVote: model.VoteDown})
	require.NoError(t, err)
	_, err = action.Commit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"remove:u1:p1"}, remote.Calls())
}

func TestVoteAction_RollbackIsExactSnapshot(t *testing.T) {
	boom := errors.New("network down")
	remote := &fakeRemote{err: boom}
	r := NewReconciler(remote, "u1", 0)

	cur := VoteState{UpvoteCount: 5, DownvoteCount: 2, UserVote: model.VoteUp}
	action, err := r.Vote("p1", model.VoteDown, cur)
	require.NoError(t, err)

	got, err := action.Commit(context.Background())
	require.Error(t, err)
	assert.Equal(t, cur, got)

	var rb *RollbackError
	require.ErrorAs(t, err, &rb)
	assert.Equal(t, "p1", rb.PostID)
	assert.Equal(t, MutationSetVote, rb.Mutation)
	assert.ErrorIs(t, err, boom)
}

func TestVoteAction_CommitOnce(t *testing.T) {
	remote := &fakeRemote{}
	r := NewReconciler(remote, "u1", 0)

	action, err := r.Vote("p1", model.VoteUp, VoteState{})
	require.NoError(t, err)

	_, err = action.Commit(context.Background())
	require.NoError(t, err)
	_, err = action.Commit(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyCommitted)
	assert.Len(t, remote.Calls(), 1)
}

func TestVoteAction_TimeoutRollsBack(t *testing.T) {
	remote := slowRemote{}
	r := NewReconciler(remote, "u1", 20*time.Millisecond)

	cur := VoteState{UpvoteCount: 3}
	action, err := r.Vote("p1", model.VoteUp, cur)
	require.NoError(t, err)

	got, err := action.Commit(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, cur, got)
}

func TestVoteAction_ConcurrentActionsKeepOwnSnapshots(t *testing.T) {
	remote := &fakeRemote{block: make(chan struct{})}
	r := NewReconciler(remote, "u1", time.Second)

	s0 := VoteState{UpvoteCount: 5, DownvoteCount: 2}
	first, err := r.Vote("p1", model.VoteUp, s0)
	require.NoError(t, err)

	// The second action builds on the first's optimistic state while the
	// first is still in flight.
	second, err := r.Vote("p1", model.VoteUp, first.Next())
	require.NoError(t, err)
	assert.Equal(t, s0, second.Next())

	var wg sync.WaitGroup
	results := make([]VoteState, 2)
	for i, a := range []*VoteAction{first, second} {
		wg.Add(1)
		go func(i int, a *VoteAction) {
			defer wg.Done()
			results[i], _ = a.Commit(context.Background())
		}(i, a)
	}

	require.Eventually(t, func() bool { return len(remote.Calls()) == 2 }, time.Second, 5*time.Millisecond)
	close(remote.block)
	wg.Wait()

	assert.Equal(t, first.Next(), results[0])
	assert.Equal(t, s0, results[1])
	assert.ElementsMatch(t, []string{"set:u1:p1:upvote", "remove:u1:p1"}, remote.Calls())
}

func TestSaveAction(t *testing.T) {
	remote := &fakeRemote{}
	r := NewReconciler(remote, "u2", 0)

	action := r.Save("p9", false)
	assert.True(t, action.Next())
	assert.Empty(t, remote.Calls())

	saved, err := action.Commit(context.Background())
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, []string{"save:u2:p9"}, remote.Calls())

	_, err = action.Commit(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyCommitted)
	assert.Len(t, remote.Calls(), 1)
}

func TestSaveAction_Rollback(t *testing.T) {
	remote := &fakeRemote{err: errors.New("500")}
	r := NewReconciler(remote, "u2", 0)

	action := r.Save("p9", true)
	assert.False(t, action.Next())

	saved, err := action.Commit(context.Background())
	assert.True(t, saved)

	var rb *RollbackError
	require.ErrorAs(t, err, &rb)
	assert.Equal(t, MutationUnsave, rb.Mutation)
}

func TestVoteStateOf(t *testing.T) {
	p := model.Post{UpvoteCount: 2, DownvoteCount: 1, UserVote: model.VoteDown}
	s := VoteStateOf(p)
	assert.Equal(t, VoteState{UpvoteCount: 2, DownvoteCount: 1, UserVote: model.VoteDown}, s)

	var q model.Post
	s.ApplyTo(&q)
	assert.Equal(t, p.UpvoteCount, q.UpvoteCount)
	assert.Equal(t, p.UserVote, q.UserVote)
}

// slowRemote blocks until the context expires.
type slowRemote struct{}

func (slowRemote) SetVote(ctx context.Context, _, _ string, _ model.VoteType) error {
	<-ctx.Done()
	return ctx.Err()
}

func (slowRemote) RemoveVote(ctx context.Context, _, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

func (slowRemote) Save(ctx context.Context, _, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

func (slowRemote) Unsave(ctx context.Context, _, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}
