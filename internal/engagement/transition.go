// Package engagement applies vote and save actions optimistically and
// reconciles them with the remote store.
//
// An action is computed synchronously from the caller's current local
// state, shown immediately, and then committed with exactly one remote
// call. If the call fails, the caller restores the snapshot it held before
// the action. Actions on the same post are never serialized: each one
// carries its own snapshot and corrects only that.
package engagement

import (
	"fmt"

	"github.com/nhle/devdash/internal/model"
)

// VoteState is the locally displayed vote data of one post for the
// current user.
type VoteState struct {
	UpvoteCount   int            `json:"upvote_count"`
	DownvoteCount int            `json:"downvote_count"`
	UserVote      model.VoteType `json:"user_vote"`
}

// VoteStateOf extracts the vote state from a post.
func VoteStateOf(p model.Post) VoteState {
	return VoteState{
		UpvoteCount:   p.UpvoteCount,
		DownvoteCount: p.DownvoteCount,
		UserVote:      p.UserVote,
	}
}

// ApplyTo writes s into p.
func (s VoteState) ApplyTo(p *model.Post) {
	p.UpvoteCount = s.UpvoteCount
	p.DownvoteCount = s.DownvoteCount
	p.UserVote = s.UserVote
}

// Mutation is the remote operation an action commits with.
type Mutation string

const (
	MutationSetVote    Mutation = "set_vote"
	MutationRemoveVote Mutation = "remove_vote"
	MutationSave       Mutation = "save"
	MutationUnsave     Mutation = "unsave"
)

// Transition is the result of applying a vote action to a state.
type Transition struct {
	Next     VoteState
	Rollback VoteState
	Mutation Mutation
}

// SaveTransition is the result of toggling a save.
type SaveTransition struct {
	Next     bool
	Rollback bool
	Mutation Mutation
}

// NextVote applies action to current:
//
//	none     + up   -> up,   up+1
//	none     + down -> down, down+1
//	up       + up   -> none, up-1
//	down     + down -> none, down-1
//	up       + down -> down, up-1 down+1
//	down     + up   -> up,   down-1 up+1
//
// Counts never drop below zero. Rollback is current, unchanged.
func NextVote(current VoteState, action model.VoteType) (Transition, error) {
	if !action.Valid() {
		return Transition{}, fmt.Errorf("invalid vote type %q", action)
	}
	if current.UserVote != model.VoteNone && !current.UserVote.Valid() {
		return Transition{}, fmt.Errorf("invalid current vote %q", current.UserVote)
	}

	next := current

	// Retract whatever vote the user had.
	switch current.UserVote {
	case model.VoteUp:
		next.UpvoteCount = decrement(next.UpvoteCount)
	case model.VoteDown:
		next.DownvoteCount = decrement(next.DownvoteCount)
	}

	if current.UserVote == action {
		next.UserVote = model.VoteNone
		return Transition{Next: next, Rollback: current, Mutation: MutationRemoveVote}, nil
	}

	switch action {
	case model.VoteUp:
		next.UpvoteCount++
	case model.VoteDown:
		next.DownvoteCount++
	}
	next.UserVote = action

	return Transition{Next: next, Rollback: current, Mutation: MutationSetVote}, nil
}

// NextSave toggles a save.
func NextSave(currentlySaved bool) SaveTransition {
	if currentlySaved {
		return SaveTransition{Next: false, Rollback: true, Mutation: MutationUnsave}
	}
	return SaveTransition{Next: true, Rollback: false, Mutation: MutationSave}
}

func decrement(n int) int {
	if n <= 0 {
		return 0
	}
	return n - 1
}
