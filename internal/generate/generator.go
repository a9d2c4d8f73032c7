package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nhle/devdash/internal/ai"
	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/observability"
)

// DefaultTimeout bounds a single completion call.
const DefaultTimeout = 60 * time.Second

// UpstreamError reports that the completion backend failed or timed out.
// No records are produced in that case.
type UpstreamError struct {
	ContentType model.ContentType
	Err         error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("generating %s: %v", e.ContentType, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the completion exceeded its deadline.
func (e *UpstreamError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// Generator produces validated workspace content for a project.
type Generator struct {
	completer ai.Completer
	timeout   time.Duration
	maxTokens int
	logger    *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithTimeout sets the per-call completion timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) Option {
	return func(g *Generator) {
		g.maxTokens = n
	}
}

// WithLogger sets the logger used for fallback and failure events.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGenerator creates a Generator around the given completer.
func NewGenerator(c ai.Completer, opts ...Option) *Generator {
	g := &Generator{
		completer: c,
		timeout:   DefaultTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateList generates and validates a list of records of type ct. The
// result is never empty. Upstream failures are returned as *UpstreamError.
func (g *Generator) GenerateList(
	ctx context.Context,
	ct model.ContentType,
	pc ProjectContext,
) ([]model.Record, error) {
	if !ct.IsList() {
		return nil, fmt.Errorf("content type %q is not a list type", ct)
	}

	start := time.Now()
	raw, err := g.complete(ctx, ct, pc)
	if err != nil {
		observability.RecordGeneration(string(ct), observability.OutcomeUpstreamError, time.Since(start))
		return nil, err
	}

	res, err := Parse(raw, ct)
	if err != nil {
		return nil, err
	}

	outcome := observability.OutcomeOK
	if res.UsedFallback {
		outcome = observability.OutcomeFallback
		g.logger.Warn("generated content unparseable, using fallback",
			"content_type", ct,
			"project_id", pc.ProjectID,
			"raw_len", len(raw),
		)
	}
	observability.RecordGeneration(string(ct), outcome, time.Since(start))

	g.logger.Info("generated content",
		"content_type", ct,
		"project_id", pc.ProjectID,
		"count", len(res.Records),
		"fallback", res.UsedFallback,
	)

	return res.Records, nil
}

// GeneratePRD generates a PRD document for the project.
func (g *Generator) GeneratePRD(ctx context.Context, pc ProjectContext) (string, error) {
	start := time.Now()
	raw, err := g.complete(ctx, model.ContentPRD, pc)
	if err != nil {
		observability.RecordGeneration(string(model.ContentPRD), observability.OutcomeUpstreamError, time.Since(start))
		return "", err
	}
	observability.RecordGeneration(string(model.ContentPRD), observability.OutcomeOK, time.Since(start))
	return ParsePRD(raw, pc.Name), nil
}

func (g *Generator) complete(
	ctx context.Context,
	ct model.ContentType,
	pc ProjectContext,
) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.completer.Complete(ctx, ai.Request{
		System:    systemPrompt,
		Prompt:    buildPrompt(ct, pc),
		MaxTokens: g.maxTokens,
	})
	if err != nil {
		g.logger.Error("completion failed",
			"content_type", ct,
			"project_id", pc.ProjectID,
			"error", err,
		)
		return "", &UpstreamError{ContentType: ct, Err: err}
	}
	return raw, nil
}

// RoadmapItems returns the roadmap items in records.
func RoadmapItems(records []model.Record) []model.RoadmapItem {
	var out []model.RoadmapItem
	for _, r := range records {
		if it, ok := r.(model.RoadmapItem); ok {
			out = append(out, it)
		}
	}
	return out
}

// TaskItems returns the tasks in records.
func TaskItems(records []model.Record) []model.TaskItem {
	var out []model.TaskItem
	for _, r := range records {
		if it, ok := r.(model.TaskItem); ok {
			out = append(out, it)
		}
	}
	return out
}

// DeploymentItems returns the deployment checklist items in records.
func DeploymentItems(records []model.Record) []model.DeploymentItem {
	var out []model.DeploymentItem
	for _, r := range records {
		if it, ok := r.(model.DeploymentItem); ok {
			out = append(out, it)
		}
	}
	return out
}
