package issues

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	gosync "sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nhle/devdash/internal/crossref"
	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/observability"
	"github.com/nhle/devdash/internal/store"
)

// ErrNoRepo is returned when a project has no GitHub repository set.
var ErrNoRepo = errors.New("project has no github repository configured")

// IssueService is the part of the GitHub API the mirror needs.
type IssueService interface {
	CreateIssue(ctx context.Context, owner, repo string, req CreateIssueRequest) (*Issue, error)
	GetIssue(ctx context.Context, owner, repo string, number int) (*Issue, error)
}

// TaskFailure reports a task that could not be mirrored.
type TaskFailure struct {
	TaskID string `json:"task_id"`
	Title  string `json:"title"`
	Error  string `json:"error"`
}

// MirrorResult summarizes one MirrorTasks run.
type MirrorResult struct {
	Created    []model.IssueLink `json:"created"`
	Referenced []model.IssueLink `json:"referenced"`
	Skipped    int               `json:"skipped"`
	Failed     []TaskFailure     `json:"failed"`
}

// Mirror creates GitHub issues for project tasks and records the links.
type Mirror struct {
	issues      IssueService
	store       store.Store
	concurrency int
	logger      *slog.Logger
}

// NewMirror creates a Mirror that runs at most concurrency requests at
// once.
func NewMirror(is IssueService, s store.Store, concurrency int) *Mirror {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Mirror{
		issues:      is,
		store:       s,
		concurrency: concurrency,
		logger:      slog.Default().With("component", "issues"),
	}
}

// MirrorTasks links every task of project to a GitHub issue. Tasks that
// already have a link are skipped. A task whose title or description
// references an existing issue ("#123") is linked to it instead of
// getting a new issue. Per-task failures are collected in the result;
// an authentication failure aborts the run.
func (m *Mirror) MirrorTasks(
	ctx context.Context,
	project model.Project,
	tasks []model.TaskItem,
) (*MirrorResult, error) {
	if !project.HasRepo() {
		return nil, ErrNoRepo
	}

	result := &MirrorResult{
		Created:    []model.IssueLink{},
		Referenced: []model.IssueLink{},
		Failed:     []TaskFailure{},
	}
	position := make(map[string]int, len(tasks))
	var mu gosync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)

	for _, task := range tasks {
		position[task.ID] = task.Position
		g.Go(func() error {
			link, err := m.mirrorTask(gctx, project, task)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err != nil:
				if IsAuthError(err) {
					return err
				}
				m.logger.Warn("mirroring task failed",
					"project_id", project.ID, "task_id", task.ID, "error", err)
				result.Failed = append(result.Failed, TaskFailure{
					TaskID: task.ID,
					Title:  task.Title,
					Error:  err.Error(),
				})
			case link == nil:
				result.Skipped++
			case link.LinkType == model.LinkTypeReferenced:
				result.Referenced = append(result.Referenced, *link)
			default:
				result.Created = append(result.Created, *link)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("mirroring tasks of project %s: %w", project.ID, err)
	}

	byPosition := func(links []model.IssueLink) {
		sort.SliceStable(links, func(i, j int) bool {
			return position[links[i].TaskID] < position[links[j].TaskID]
		})
	}
	byPosition(result.Created)
	byPosition(result.Referenced)

	m.logger.Info("mirrored tasks",
		"project_id", project.ID,
		"created", len(result.Created),
		"referenced", len(result.Referenced),
		"skipped", result.Skipped,
		"failed", len(result.Failed),
	)
	return result, nil
}

// mirrorTask returns the new link, or nil when the task was already
// linked.
func (m *Mirror) mirrorTask(
	ctx context.Context,
	project model.Project,
	task model.TaskItem,
) (*model.IssueLink, error) {
	_, err := m.store.GetIssueLinkForTask(ctx, task.ID)
	if err == nil {
		return nil, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if number, ok := crossref.FirstIssueRef(task.Title, task.Description, nil); ok {
		issue, err := m.issues.GetIssue(ctx, project.RepoOwner, project.RepoName, number)
		switch {
		case err == nil && !issue.IsPullRequest():
			link, err := m.store.CreateIssueLink(ctx, linkFor(project, task, issue, model.LinkTypeReferenced))
			observability.RecordIssueMirror(model.LinkTypeReferenced, err)
			return link, err
		case err != nil && !IsNotFound(err):
			observability.RecordIssueMirror(model.LinkTypeReferenced, err)
			return nil, err
		}
		// A dangling reference or a pull request gets a fresh issue.
	}

	issue, err := m.issues.CreateIssue(ctx, project.RepoOwner, project.RepoName, CreateIssueRequest{
		Title:  task.Title,
		Body:   issueBody(project, task),
		Labels: issueLabels(task),
	})
	if err != nil {
		observability.RecordIssueMirror(model.LinkTypeCreated, err)
		return nil, err
	}

	link, err := m.store.CreateIssueLink(ctx, linkFor(project, task, issue, model.LinkTypeCreated))
	observability.RecordIssueMirror(model.LinkTypeCreated, err)
	if err != nil {
		// The issue exists on GitHub but is not recorded locally.
		m.logger.Error("recording issue link failed",
			"task_id", task.ID, "issue_url", issue.HTMLURL, "error", err)
		return nil, err
	}
	return link, nil
}

func linkFor(project model.Project, task model.TaskItem, issue *Issue, linkType string) model.IssueLink {
	state := model.IssueStateOpen
	if issue.State == model.IssueStateClosed {
		state = model.IssueStateClosed
	}
	return model.IssueLink{
		TaskID:      task.ID,
		ProjectID:   project.ID,
		RepoOwner:   project.RepoOwner,
		RepoName:    project.RepoName,
		IssueNumber: issue.Number,
		IssueURL:    issue.HTMLURL,
		IssueState:  state,
		LinkType:    linkType,
		TaskTitle:   task.Title,
	}
}

func issueBody(project model.Project, task model.TaskItem) string {
	var b strings.Builder
	if task.Description != "" {
		b.WriteString(task.Description)
		b.WriteString("\n\n")
	}
	b.WriteString("---\n")
	b.WriteString("Priority: " + string(task.Priority))
	if task.EstimatedHours != nil {
		b.WriteString(" | Estimate: " + strconv.FormatFloat(*task.EstimatedHours, 'f', -1, 64) + "h")
	}
	if task.DueDate != nil {
		b.WriteString(" | Due: " + *task.DueDate)
	}
	fmt.Fprintf(&b, "\n\n_Mirrored from devdash project %q on %s._\n",
		project.Name, time.Now().UTC().Format("2006-01-02"))
	return b.String()
}

func issueLabels(task model.TaskItem) []string {
	labels := []string{"priority:" + string(task.Priority)}
	seen := map[string]bool{labels[0]: true}
	for _, tag := range task.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		labels = append(labels, tag)
	}
	return labels
}
