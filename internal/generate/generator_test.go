package generate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/devdash/internal/ai"
	"github.com/nhle/devdash/internal/model"
)

func TestGenerator_GenerateList(t *testing.T) {
	var got ai.Request
	c := ai.CompleterFunc(func(ctx context.Context, req ai.Request) (string, error) {
		got = req
		return `[{"title":"Login page","priority":"high"},{"title":"Signup"}]`, nil
	})

	g := NewGenerator(c, WithMaxTokens(512))
	recs, err := g.GenerateList(context.Background(), model.ContentTask, ProjectContext{
		ProjectID: "p1",
		Name:      "Acme",
		TechStack: "Go, SQLite",
		PRD:       "Users can sign in.",
	})
	require.NoError(t, err)

	tasks := TaskItems(recs)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Login page", tasks[0].Title)
	assert.Equal(t, model.TaskPriorityHigh, tasks[0].Priority)
	assert.Equal(t, 1, tasks[1].Position)

	assert.Equal(t, 512, got.MaxTokens)
	assert.Contains(t, got.Prompt, "Project: Acme")
	assert.Contains(t, got.Prompt, "Tech stack: Go, SQLite")
	assert.Contains(t, got.Prompt, "Users can sign in.")
	assert.Contains(t, got.Prompt, "estimated_hours")
	assert.NotEmpty(t, got.System)
}

func TestGenerator_MalformedOutputFallsBack(t *testing.T) {
	c := ai.CompleterFunc(func(ctx context.Context, req ai.Request) (string, error) {
		return "I'm sorry, I can't help with that.", nil
	})

	recs, err := NewGenerator(c).GenerateList(context.Background(), model.ContentRoadmap, ProjectContext{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, roadmapFallback(), RoadmapItems(recs))
}

func TestGenerator_UpstreamFailure(t *testing.T) {
	boom := errors.New("quota exceeded")
	c := ai.CompleterFunc(func(ctx context.Context, req ai.Request) (string, error) {
		return "", boom
	})

	recs, err := NewGenerator(c).GenerateList(context.Background(), model.ContentDeployment, ProjectContext{})
	require.Error(t, err)
	assert.Nil(t, recs)

	var upErr *UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, model.ContentDeployment, upErr.ContentType)
	assert.ErrorIs(t, err, boom)
	assert.False(t, upErr.Timeout())
}

func TestGenerator_Timeout(t *testing.T) {
	c := ai.CompleterFunc(func(ctx context.Context, req ai.Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	g := NewGenerator(c, WithTimeout(20*time.Millisecond))
	_, err := g.GenerateList(context.Background(), model.ContentTask, ProjectContext{})

	var upErr *UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.True(t, upErr.Timeout())
}

func TestGenerator_GeneratePRD(t *testing.T) {
	c := ai.CompleterFunc(func(ctx context.Context, req ai.Request) (string, error) {
		assert.Contains(t, req.Prompt, "product requirements document")
		return "```markdown\n# Acme PRD\n```", nil
	})

	doc, err := NewGenerator(c).GeneratePRD(context.Background(), ProjectContext{Name: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "# Acme PRD", doc)
}

func TestGenerator_RejectsPRDAsList(t *testing.T) {
	called := false
	c := ai.CompleterFunc(func(ctx context.Context, req ai.Request) (string, error) {
		called = true
		return "", nil
	})

	_, err := NewGenerator(c).GenerateList(context.Background(), model.ContentPRD, ProjectContext{})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestBuildPrompt_Instructions(t *testing.T) {
	p := buildPrompt(model.ContentDeployment, ProjectContext{Name: "Acme", Instructions: "Focus on Docker."})
	assert.Contains(t, p, "Focus on Docker.")
	assert.Contains(t, p, "ci_cd")
	assert.Contains(t, p, "railway")
}
