package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/store"
	"github.com/nhle/devdash/internal/testutil"
)

func TestFindProject(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	a, err := s.CreateProject(ctx, model.Project{OwnerID: "alice", Name: "Dashboard"})
	require.NoError(t, err)
	_, err = s.CreateProject(ctx, model.Project{OwnerID: "bob", Name: "Dashboard"})
	require.NoError(t, err)

	got, err := findProject(ctx, s, "alice", "dashboard")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	got, err = findProject(ctx, s, "alice", a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dashboard", got.Name)

	_, err = findProject(ctx, s, "carol", "dashboard")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.CreateProject(ctx, model.Project{OwnerID: "alice", Name: "dashboard"})
	require.NoError(t, err)
	_, err = findProject(ctx, s, "alice", "Dashboard")
	assert.ErrorContains(t, err, "ambiguous")
}

func TestWriteRecords(t *testing.T) {
	records := []model.Record{
		model.TaskItem{Title: "Set up CI", Priority: model.TaskPriorityHigh, Status: model.TaskTodo},
	}

	var buf bytes.Buffer
	require.NoError(t, writeRecords(&buf, "yaml", records))
	assert.Contains(t, buf.String(), "title: Set up CI")

	buf.Reset()
	require.NoError(t, writeRecords(&buf, "json", nil))
	assert.JSONEq(t, "[]", buf.String())
}
