package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/devdash/internal/ai"
	"github.com/nhle/devdash/internal/generate"
	"github.com/nhle/devdash/internal/issues"
	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/store"
	"github.com/nhle/devdash/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeMirror struct {
	called int
}

func (f *fakeMirror) MirrorTasks(_ context.Context, p model.Project, tasks []model.TaskItem) (*issues.MirrorResult, error) {
	f.called++
	if !p.HasRepo() {
		return nil, issues.ErrNoRepo
	}
	res := &issues.MirrorResult{}
	for _, t := range tasks {
		res.Created = append(res.Created, model.IssueLink{TaskID: t.ID, LinkType: model.LinkTypeCreated})
	}
	return res, nil
}

type testServer struct {
	srv    *Server
	store  *store.SQLiteStore
	mirror *fakeMirror
}

func newTestServer(t *testing.T, completion func(context.Context, ai.Request) (string, error)) *testServer {
	t.Helper()
	s := testutil.NewTestStore(t)
	m := &fakeMirror{}
	deps := Deps{Store: s, Mirror: m}
	if completion != nil {
		deps.Generator = generate.NewGenerator(ai.CompleterFunc(completion))
	}
	return &testServer{srv: NewServer(deps), store: s, mirror: m}
}

func (ts *testServer) do(t *testing.T, method, path, user string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	w := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (ts *testServer) createProject(t *testing.T, user string, body gin.H) model.Project {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/v1/projects", user, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[model.Project](t, w)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "devdash_http_requests_total")
}

func TestProjects_CRUD(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodPost, "/v1/projects", "", gin.H{"name": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodPost, "/v1/projects", "alice", gin.H{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	p := ts.createProject(t, "alice", gin.H{"name": " Shop ", "tech_stack": "Go"})
	assert.Equal(t, "Shop", p.Name)
	assert.Equal(t, "alice", p.OwnerID)

	w = ts.do(t, http.MethodGet, "/v1/projects/"+p.ID, "bob", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "other users cannot see the project")

	w = ts.do(t, http.MethodPut, "/v1/projects/"+p.ID, "alice", gin.H{"name": "Store", "repo_owner": "acme", "repo_name": "store"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[model.Project](t, w).HasRepo())

	w = ts.do(t, http.MethodPost, "/v1/projects/"+p.ID+"/archive", "alice", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	list := decode[struct {
		Projects []model.Project `json:"projects"`
	}](t, ts.do(t, http.MethodGet, "/v1/projects", "alice", nil))
	assert.Empty(t, list.Projects)

	list = decode[struct {
		Projects []model.Project `json:"projects"`
	}](t, ts.do(t, http.MethodGet, "/v1/projects?archived=true", "alice", nil))
	assert.Len(t, list.Projects, 1)

	w = ts.do(t, http.MethodDelete, "/v1/projects/"+p.ID, "alice", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = ts.do(t, http.MethodGet, "/v1/projects/"+p.ID, "alice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerate_ReturnsValidatedItems(t *testing.T) {
	var prompt string
	ts := newTestServer(t, func(_ context.Context, req ai.Request) (string, error) {
		prompt = req.Prompt
		return "```json\n[{\"title\":\"Set up CI\",\"priority\":\"HIGH\"}]\n```", nil
	})
	p := ts.createProject(t, "alice", gin.H{"name": "Shop"})

	w := ts.do(t, http.MethodPost, "/v1/projects/"+p.ID+"/generate/tasks", "alice", gin.H{"instructions": "focus on CI"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := decode[struct {
		Items []model.TaskItem `json:"items"`
	}](t, w)
	require.Len(t, got.Items, 1)
	assert.Equal(t, model.TaskPriorityHigh, got.Items[0].Priority)
	assert.Equal(t, model.TaskTodo, got.Items[0].Status)
	assert.Contains(t, prompt, "focus on CI")

	stored, err := ts.store.GetTasks(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Empty(t, stored, "generation does not persist")
}

func TestGenerate_UpstreamFailure(t *testing.T) {
	ts := newTestServer(t, func(context.Context, ai.Request) (string, error) {
		return "", errors.New("503 from provider")
	})
	p := ts.createProject(t, "alice", gin.H{"name": "Shop"})

	w := ts.do(t, http.MethodPost, "/v1/projects/"+p.ID+"/generate/roadmap", "alice", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGenerate_NotConfigured(t *testing.T) {
	ts := newTestServer(t, nil)
	p := ts.createProject(t, "alice", gin.H{"name": "Shop"})

	w := ts.do(t, http.MethodPost, "/v1/projects/"+p.ID+"/generate/roadmap", "alice", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGenerate_PRD(t *testing.T) {
	ts := newTestServer(t, func(context.Context, ai.Request) (string, error) {
		return "```markdown\n# Shop\n\nGoals\n```", nil
	})
	p := ts.createProject(t, "alice", gin.H{"name": "Shop"})

	w := ts.do(t, http.MethodPost, "/v1/projects/"+p.ID+"/generate/prd", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[map[string]string](t, w)
	assert.Equal(t, "# Shop\n\nGoals", got["content"])

	w = ts.do(t, http.MethodPut, "/v1/projects/"+p.ID+"/prd", "alice", gin.H{"content": got["content"]})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[model.PRD](t, w).Version)
}

func TestBatchCreate(t *testing.T) {
	ts := newTestServer(t, nil)
	p := ts.createProject(t, "alice", gin.H{"name": "Shop"})
	path := "/v1/projects/" + p.ID + "/items/roadmap/batch"

	w := ts.do(t, http.MethodPost, path, "alice", `[{"title":"MVP","phase":"mvp"},{"title":"Later","status":"bogus"}]`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/v1/projects/"+p.ID+"/items/roadmap", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[struct {
		Items []model.RoadmapItem `json:"items"`
	}](t, w)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "MVP", got.Items[0].Title)
	assert.Equal(t, model.RoadmapPlanned, got.Items[1].Status, "invalid enums are normalized")

	w = ts.do(t, http.MethodPost, path, "alice", `{"not":"an array"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/v1/projects/"+p.ID+"/items/prd/batch", "alice", `[]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskStatusAndMirror(t *testing.T) {
	ts := newTestServer(t, nil)
	p := ts.createProject(t, "alice", gin.H{"name": "Shop"})

	w := ts.do(t, http.MethodPost, "/v1/projects/"+p.ID+"/items/tasks/batch", "alice", `[{"title":"A"}]`)
	require.Equal(t, http.StatusCreated, w.Code)
	tasks := decode[struct {
		Items []model.TaskItem `json:"items"`
	}](t, w).Items
	require.Len(t, tasks, 1)

	w = ts.do(t, http.MethodPut, "/v1/tasks/"+tasks[0].ID+"/status", "alice", gin.H{"status": "done"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = ts.do(t, http.MethodPut, "/v1/tasks/"+tasks[0].ID+"/status", "alice", gin.H{"status": "finished"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = ts.do(t, http.MethodPut, "/v1/tasks/"+tasks[0].ID+"/status", "bob", gin.H{"status": "todo"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, "/v1/projects/"+p.ID+"/issues/mirror", "alice", nil)
	assert.Equal(t, http.StatusConflict, w.Code, "no repository configured")

	w = ts.do(t, http.MethodPut, "/v1/projects/"+p.ID, "alice", gin.H{"name": "Shop", "repo_owner": "acme", "repo_name": "shop"})
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.do(t, http.MethodPost, "/v1/projects/"+p.ID+"/issues/mirror", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[issues.MirrorResult](t, w).Created, 1)
}

func TestPosts_EngagementFlow(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodPost, "/v1/posts", "alice", gin.H{"title": "", "content": "c"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/v1/posts", "alice", gin.H{"title": "Aider tips", "content": "c", "tool": "Aider"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	post := decode[model.Post](t, w)

	w = ts.do(t, http.MethodPut, "/v1/posts/"+post.ID+"/vote", "bob", gin.H{"vote_type": "upvote"})
	require.Equal(t, http.StatusOK, w.Code)
	state := decode[map[string]interface{}](t, w)
	assert.EqualValues(t, 1, state["upvote_count"])
	assert.Equal(t, "upvote", state["user_vote"])

	w = ts.do(t, http.MethodPut, "/v1/posts/"+post.ID+"/vote", "bob", gin.H{"vote_type": "sideways"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPut, "/v1/posts/missing/vote", "bob", gin.H{"vote_type": "upvote"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPut, "/v1/posts/"+post.ID+"/save", "bob", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]interface{}](t, w)["is_saved_by_user"])

	saved := decode[struct {
		Posts []model.Post `json:"posts"`
	}](t, ts.do(t, http.MethodGet, "/v1/posts?saved=true", "bob", nil))
	require.Len(t, saved.Posts, 1)

	w = ts.do(t, http.MethodDelete, "/v1/posts/"+post.ID+"/vote", "bob", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode[map[string]interface{}](t, w)["upvote_count"])

	w = ts.do(t, http.MethodPost, "/v1/posts/"+post.ID+"/comments", "carol", gin.H{"body": "nice"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = ts.do(t, http.MethodGet, "/v1/posts/"+post.ID+"/comments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[map[string]interface{}](t, w)["count"])

	w = ts.do(t, http.MethodGet, "/v1/posts?tool=aider", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[map[string]interface{}](t, w)["count"])
}
