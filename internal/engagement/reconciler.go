package engagement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/observability"
)

// DefaultTimeout bounds each remote mutation. Expiry is treated as failure.
const DefaultTimeout = 10 * time.Second

// ErrAlreadyCommitted is returned when Commit is called twice on an action.
var ErrAlreadyCommitted = errors.New("engagement action already committed")

// Remote performs engagement mutations on behalf of a user.
type Remote interface {
	SetVote(ctx context.Context, userID, postID string, vt model.VoteType) error
	RemoveVote(ctx context.Context, userID, postID string) error
	Save(ctx context.Context, userID, postID string) error
	Unsave(ctx context.Context, userID, postID string) error
}

// RollbackError reports a failed remote mutation. The caller has already
// been handed the pre-action snapshot to restore.
type RollbackError struct {
	PostID   string
	Mutation Mutation
	Err      error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("%s on post %s failed, reverted: %v", e.Mutation, e.PostID, e.Err)
}

func (e *RollbackError) Unwrap() error {
	return e.Err
}

// Reconciler creates optimistic vote and save actions for one user.
type Reconciler struct {
	remote  Remote
	userID  string
	timeout time.Duration
	logger  *slog.Logger
}

// NewReconciler creates a reconciler acting as userID. A non-positive
// timeout selects DefaultTimeout.
func NewReconciler(
	remote Remote,
	userID string,
	timeout time.Duration,
) *Reconciler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Reconciler{
		remote:  remote,
		userID:  userID,
		timeout: timeout,
		logger:  slog.Default().With("component", "engagement", "user_id", userID),
	}
}

// UserID returns the user the reconciler acts as.
func (r *Reconciler) UserID() string {
	return r.userID
}

// VoteAction is a vote that has been applied locally but not yet committed.
type VoteAction struct {
	PostID     string
	Transition Transition

	r    *Reconciler
	done atomic.Bool
}

// Vote computes the optimistic result of voteType on current. No remote
// call is made until Commit.
func (r *Reconciler) Vote(
	postID string,
	voteType model.VoteType,
	current VoteState,
) (*VoteAction, error) {
	tr, err := NextVote(current, voteType)
	if err != nil {
		return nil, err
	}
	return &VoteAction{PostID: postID, Transition: tr, r: r}, nil
}

// Next is the state to display while the action is in flight.
func (a *VoteAction) Next() VoteState {
	return a.Transition.Next
}

// Commit performs the single remote mutation for the action. It returns
// the state the caller should display afterwards: Next on success, the
// exact pre-action snapshot with a *RollbackError on failure.
func (a *VoteAction) Commit(ctx context.Context) (VoteState, error) {
	if !a.done.CompareAndSwap(false, true) {
		return a.Transition.Next, ErrAlreadyCommitted
	}

	r := a.r
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var err error
	switch a.Transition.Mutation {
	case MutationRemoveVote:
		err = r.remote.RemoveVote(ctx, r.userID, a.PostID)
	default:
		err = r.remote.SetVote(ctx, r.userID, a.PostID, a.Transition.Next.UserVote)
	}

	observability.RecordEngagement("vote", err == nil)
	if err != nil {
		r.logger.Warn("vote failed, rolling back",
			"post_id", a.PostID,
			"mutation", a.Transition.Mutation,
			"error", err,
		)
		return a.Transition.Rollback, &RollbackError{
			PostID:   a.PostID,
			Mutation: a.Transition.Mutation,
			Err:      err,
		}
	}
	return a.Transition.Next, nil
}

// SaveAction is a save toggle that has been applied locally but not yet
// committed.
type SaveAction struct {
	PostID     string
	Transition SaveTransition

	r    *Reconciler
	done atomic.Bool
}

// Save computes the optimistic toggle of currentlySaved.
func (r *Reconciler) Save(postID string, currentlySaved bool) *SaveAction {
	return &SaveAction{PostID: postID, Transition: NextSave(currentlySaved), r: r}
}

// Next is the saved flag to display while the action is in flight.
func (a *SaveAction) Next() bool {
	return a.Transition.Next
}

// Commit performs the single remote save or unsave. On failure the prior
// flag is returned with a *RollbackError.
func (a *SaveAction) Commit(ctx context.Context) (bool, error) {
	if !a.done.CompareAndSwap(false, true) {
		return a.Transition.Next, ErrAlreadyCommitted
	}

	r := a.r
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var err error
	if a.Transition.Mutation == MutationSave {
		err = r.remote.Save(ctx, r.userID, a.PostID)
	} else {
		err = r.remote.Unsave(ctx, r.userID, a.PostID)
	}

	observability.RecordEngagement("save", err == nil)
	if err != nil {
		r.logger.Warn("save failed, rolling back",
			"post_id", a.PostID,
			"mutation", a.Transition.Mutation,
			"error", err,
		)
		return a.Transition.Rollback, &RollbackError{
			PostID:   a.PostID,
			Mutation: a.Transition.Mutation,
			Err:      err,
		}
	}
	return a.Transition.Next, nil
}
