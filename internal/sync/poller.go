// Package sync keeps local task status in step with the GitHub issues
// the tasks are mirrored to.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/devdash/internal/issues"
	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/store"
)

// SyncState represents the current state of the issue sync.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus holds the state of the last sync run.
type SyncStatus struct {
	State    SyncState
	LastSync time.Time
	Error    error
}

// TaskUpdate describes a task whose status changed because its issue
// was closed or reopened.
type TaskUpdate struct {
	TaskID      string
	Title       string
	IssueNumber int
	IssueState  string
	Status      model.TaskStatus
}

// SyncResultMsg is a tea.Msg sent when a sync run completes.
type SyncResultMsg struct {
	Checked   int
	Updates   []TaskUpdate
	Error     error
	AuthError *AuthErrorMsg
}

// AuthErrorMsg is a tea.Msg sent when GitHub rejects the token.
type AuthErrorMsg struct {
	Message string
}

// IssueGetter fetches a single GitHub issue.
type IssueGetter interface {
	GetIssue(ctx context.Context, owner, repo string, number int) (*issues.Issue, error)
}

// fetchTimeout is the maximum time allowed for a single sync run.
const fetchTimeout = 30 * time.Second

// Poller periodically refreshes linked issues in the background.
type Poller struct {
	store     store.Store
	issues    IssueGetter
	interval  time.Duration
	status    SyncStatus
	resultCh  chan SyncResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
	logger    *slog.Logger
}

// New creates a Poller that syncs every interval.
func New(s store.Store, gh IssueGetter, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Poller{
		store:     s,
		issues:    gh,
		interval:  interval,
		resultCh:  make(chan SyncResultMsg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		logger:    slog.Default().With("component", "sync"),
	}
}

// Start returns a tea.Cmd that starts the polling goroutine and
// subscribes to results.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	go p.poll()

	return p.waitForResult()
}

// Stop halts the polling goroutine.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// Refresh triggers an immediate sync.
func (p *Poller) Refresh() tea.Cmd {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// A sync is already queued.
	}
	return nil
}

// Status returns the state of the last sync run.
func (p *Poller) Status() SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Poller) poll() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.run()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.run()
		case <-p.triggerCh:
			p.run()
		}
	}
}

func (p *Poller) run() {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	p.sendResult(p.SyncOnce(ctx))
}

// SyncOnce refreshes every linked issue and applies state transitions:
// a closed issue marks its task done and a reopened issue moves a done
// task back to todo.
func (p *Poller) SyncOnce(ctx context.Context) SyncResultMsg {
	p.setStatus(SyncRunning, nil)

	links, err := p.store.ListIssueLinks(ctx, store.IssueLinkFilter{})
	if err != nil {
		p.setStatus(SyncError, err)
		return SyncResultMsg{Error: err}
	}

	result := SyncResultMsg{Updates: []TaskUpdate{}}
	for _, link := range links {
		issue, err := p.issues.GetIssue(ctx, link.RepoOwner, link.RepoName, link.IssueNumber)
		if err != nil {
			if issues.IsAuthError(err) {
				p.setStatus(SyncError, err)
				return SyncResultMsg{
					Error: err,
					AuthError: &AuthErrorMsg{
						Message: "github: authentication expired. Update the token and retry.",
					},
				}
			}
			// One missing issue must not stop the rest from syncing.
			p.logger.Warn("fetching linked issue failed",
				"task_id", link.TaskID, "issue", link.IssueNumber, "error", err)
			continue
		}
		result.Checked++

		update, err := p.apply(ctx, link, issue.State)
		if err != nil {
			p.setStatus(SyncError, err)
			result.Error = err
			return result
		}
		if update != nil {
			result.Updates = append(result.Updates, *update)
		}
	}

	p.setStatus(SyncIdle, nil)
	return result
}

// apply records the fetched state and returns the resulting task change,
// or nil when nothing changed.
func (p *Poller) apply(ctx context.Context, link model.IssueLink, state string) (*TaskUpdate, error) {
	now := time.Now()
	if state == link.IssueState {
		return nil, p.store.UpdateIssueLinkState(ctx, link.ID, state, now)
	}

	var next model.TaskStatus
	switch state {
	case model.IssueStateClosed:
		next = model.TaskDone
	case model.IssueStateOpen:
		next = model.TaskTodo
	default:
		return nil, fmt.Errorf("unknown issue state %q for task %s", state, link.TaskID)
	}

	task, err := p.store.GetTaskByID(ctx, link.TaskID)
	if err != nil {
		return nil, err
	}
	// A reopened issue only pulls back tasks that were done.
	if next == model.TaskTodo && task.Status != model.TaskDone {
		next = task.Status
	}

	if next != task.Status {
		if err := p.store.UpdateTaskStatus(ctx, task.ID, next); err != nil {
			return nil, err
		}
	}
	if err := p.store.UpdateIssueLinkState(ctx, link.ID, state, now); err != nil {
		return nil, err
	}

	p.logger.Info("issue state changed",
		"task_id", task.ID, "issue", link.IssueNumber, "state", state, "status", next)
	return &TaskUpdate{
		TaskID:      task.ID,
		Title:       task.Title,
		IssueNumber: link.IssueNumber,
		IssueState:  state,
		Status:      next,
	}, nil
}

func (p *Poller) setStatus(state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state == SyncIdle && err == nil {
		p.status.LastSync = time.Now()
	}
}

// sendResult sends a SyncResultMsg on the result channel without blocking.
func (p *Poller) sendResult(msg SyncResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next sync result.
// Call it after handling a SyncResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
