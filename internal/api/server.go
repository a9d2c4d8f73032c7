// Package api exposes projects, generation and the community forum over
// HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/nhle/devdash/internal/community"
	"github.com/nhle/devdash/internal/generate"
	"github.com/nhle/devdash/internal/issues"
	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/observability"
	"github.com/nhle/devdash/internal/store"
)

// ContentGenerator produces validated workspace content.
type ContentGenerator interface {
	GenerateList(ctx context.Context, ct model.ContentType, pc generate.ProjectContext) ([]model.Record, error)
	GeneratePRD(ctx context.Context, pc generate.ProjectContext) (string, error)
}

// TaskMirror links tasks to GitHub issues.
type TaskMirror interface {
	MirrorTasks(ctx context.Context, project model.Project, tasks []model.TaskItem) (*issues.MirrorResult, error)
}

// Deps are the collaborators of the server. Generator and Mirror may be
// nil when no AI key or GitHub token is configured; their routes then
// answer 503.
type Deps struct {
	Store     store.Store
	Generator ContentGenerator
	Mirror    TaskMirror
	Logger    *slog.Logger
}

// Server is the devdash HTTP API.
type Server struct {
	store     store.Store
	community *community.Service
	generator ContentGenerator
	mirror    TaskMirror
	logger    *slog.Logger
	router    *gin.Engine
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	}
}

// NewServer wires routes and middleware.
func NewServer(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger), recordMetrics(), actingUser())

	s := &Server{
		store:     d.Store,
		community: community.NewService(d.Store),
		generator: d.Generator,
		mirror:    d.Mirror,
		logger:    logger,
		router:    router,
	}

	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(observability.Handler()))

	v1 := router.Group("/v1")
	{
		projects := v1.Group("/projects")
		projects.POST("", s.handleCreateProject)
		projects.GET("", s.handleListProjects)
		projects.GET("/:id", s.handleGetProject)
		projects.PUT("/:id", s.handleUpdateProject)
		projects.DELETE("/:id", s.handleDeleteProject)
		projects.POST("/:id/archive", s.handleArchiveProject)
		projects.POST("/:id/restore", s.handleRestoreProject)

		projects.POST("/:id/generate/:type", s.handleGenerate)
		projects.GET("/:id/items/:type", s.handleListItems)
		projects.POST("/:id/items/:type/batch", s.handleBatchCreate)
		projects.GET("/:id/prd", s.handleGetPRD)
		projects.PUT("/:id/prd", s.handleSavePRD)

		projects.GET("/:id/issues", s.handleListIssueLinks)
		projects.POST("/:id/issues/mirror", s.handleMirror)

		v1.PUT("/tasks/:id/status", s.handleTaskStatus)
		v1.PUT("/deployment-items/:id/status", s.handleDeploymentStatus)

		posts := v1.Group("/posts")
		posts.GET("", s.handleListPosts)
		posts.POST("", s.handleCreatePost)
		posts.GET("/:id", s.handleGetPost)
		posts.PUT("/:id/vote", s.handleVote)
		posts.DELETE("/:id/vote", s.handleRemoveVote)
		posts.PUT("/:id/save", s.handleSave)
		posts.DELETE("/:id/save", s.handleUnsave)
		posts.GET("/:id/comments", s.handleListComments)
		posts.POST("/:id/comments", s.handleAddComment)
	}

	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok"}
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			body = gin.H{"status": "unavailable", "error": err.Error()}
		}
	}
	c.JSON(status, body)
}
