package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nhle/devdash/internal/generate"
	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/store"
	"github.com/nhle/devdash/internal/workspace"
)

type projectRequest struct {
	Name        string `json:"name" binding:"required,notblank,max=120"`
	Description string `json:"description" binding:"max=5000"`
	TechStack   string `json:"tech_stack" binding:"max=500"`
	RepoOwner   string `json:"repo_owner" binding:"max=100"`
	RepoName    string `json:"repo_name" binding:"max=100"`
}

func (r projectRequest) apply(p *model.Project) {
	p.Name = strings.TrimSpace(r.Name)
	p.Description = r.Description
	p.TechStack = r.TechStack
	p.RepoOwner = strings.TrimSpace(r.RepoOwner)
	p.RepoName = strings.TrimSpace(r.RepoName)
}

type generateRequest struct {
	Instructions string `json:"instructions" binding:"max=2000"`
}

type prdRequest struct {
	Content string `json:"content" binding:"required,notblank"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ownedProject loads the :id project of the acting user. Projects of
// other users are reported as not found.
func (s *Server) ownedProject(c *gin.Context) (*model.Project, bool) {
	uid, ok := requireUser(c)
	if !ok {
		return nil, false
	}
	p, err := s.store.GetProjectByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return nil, false
	}
	if p.OwnerID != uid {
		s.writeError(c, fmt.Errorf("project %s: %w", p.ID, store.ErrNotFound))
		return nil, false
	}
	return p, true
}

func (s *Server) handleCreateProject(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p := model.Project{OwnerID: uid}
	req.apply(&p)
	created, err := s.store.CreateProject(c.Request.Context(), p)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleListProjects(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	projects, err := s.store.GetProjects(c.Request.Context(), store.ProjectFilter{
		OwnerID:         &uid,
		IncludeArchived: c.Query("archived") == "true",
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects, "count": len(projects)})
}

func (s *Server) handleGetProject(c *gin.Context) {
	p, ok := s.ownedProject(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleUpdateProject(c *gin.Context) {
	p, ok := s.ownedProject(c)
	if !ok {
		return
	}
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.apply(p)
	if err := s.store.UpdateProject(c.Request.Context(), *p); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleDeleteProject(c *gin.Context) {
	p, ok := s.ownedProject(c)
	if !ok {
		return
	}
	if err := s.store.DeleteProject(c.Request.Context(), p.ID); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleArchiveProject(c *gin.Context) {
	p, ok := s.ownedProject(c)
	if !ok {
		return
	}
	if err := s.store.ArchiveProject(c.Request.Context(), p.ID); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleRestoreProject(c *gin.Context) {
	p, ok := s.ownedProject(c)
	if !ok {
		return
	}
	if err := s.store.RestoreProject(c.Request.Context(), p.ID); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleGenerate returns validated content without persisting it. The
// client accepts it through the batch endpoint.
func (s *Server) handleGenerate(c *gin.Context) {
	if s.generator == nil {
		unavailable(c, "content generation")
		return
	}
	p, ok := s.ownedProject(c)
	if !ok {
		return
	}
	ct, err := model.ParseContentType(c.Param("type"))
	if err != nil {
		badRequest(c, err)
		return
	}

	var req generateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	pc, err := workspace.Context(c.Request.Context(), s.store, *p, req.Instructions)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if ct == model.ContentPRD {
		content, err := s.generator.GeneratePRD(c.Request.Context(), pc)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"content_type": ct, "content": content})
		return
	}

	records, err := s.generator.GenerateList(c.Request.Context(), ct, pc)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content_type": ct, "items": records, "count": len(records)})
}

func (s *Server) handleListItems(c *gin.Context) {
	p, ok := s.ownedProject(c)
	if !ok {
		return
	}
	ct, err := listType(c.Param("type"))
	if err != nil {
		badRequest(c, err)
		return
	}

	items, err := workspace.Items(c.Request.Context(), s.store, p.ID, ct)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if items == nil {
		items = []model.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"content_type": ct, "items": items})
}

// handleBatchCreate stores accepted items. The body is a JSON array that
// goes through the same validator as generated content, so clients
// cannot persist malformed records.
func (s *Server) handleBatchCreate(c *gin.Context) {
	p, ok := s.ownedProject(c)
	if !ok {
		return
	}
	ct, err := listType(c.Param("type"))
	if err != nil {
		badRequest(c, err)
		return
	}

	raw, err := c.GetRawData()
	if err != nil {
		badRequest(c, err)
		return
	}
	res, err := generate.Parse(string(raw), ct)
	if err != nil {
		badRequest(c, err)
		return
	}
	if res.UsedFallback {
		badRequest(c, errors.New("body must be a non-empty JSON array of items"))
		return
	}

	created, err := workspace.Accept(c.Request.Context(), s.store, p.ID, ct, res.Records)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"content_type": ct, "items": created, "count": len(res.Records)})
}

func (s *Server) handleGetPRD(c *gin.Context) {
	p, ok := s.ownedProject(c)
	if !ok {
		return
	}
	prd, err := s.store.GetPRD(c.Request.Context(), p.ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, prd)
}

func (s *Server) handleSavePRD(c *gin.Context) {
	p, ok := s.ownedProject(c)
	if !ok {
		return
	}
	var req prdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	prd, err := s.store.SavePRD(c.Request.Context(), p.ID, req.Content)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, prd)
}

func (s *Server) handleTaskStatus(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	status := model.TaskStatus(req.Status)
	if !status.Valid() {
		badRequest(c, fmt.Errorf("invalid task status %q", req.Status))
		return
	}

	ctx := c.Request.Context()
	task, err := s.store.GetTaskByID(ctx, c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if !s.ownsProject(c, uid, task.ProjectID) {
		return
	}
	if err := s.store.UpdateTaskStatus(ctx, task.ID, status); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleDeploymentStatus(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	status := model.DeploymentStatus(req.Status)
	if !status.Valid() {
		badRequest(c, fmt.Errorf("invalid deployment status %q", req.Status))
		return
	}

	ctx := c.Request.Context()
	item, err := s.store.GetDeploymentItemByID(ctx, c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if !s.ownsProject(c, uid, item.ProjectID) {
		return
	}
	if err := s.store.UpdateDeploymentStatus(ctx, item.ID, status); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) ownsProject(c *gin.Context, uid, projectID string) bool {
	p, err := s.store.GetProjectByID(c.Request.Context(), projectID)
	if err != nil {
		s.writeError(c, err)
		return false
	}
	if p.OwnerID != uid {
		s.writeError(c, fmt.Errorf("project %s: %w", projectID, store.ErrNotFound))
		return false
	}
	return true
}

func (s *Server) handleListIssueLinks(c *gin.Context) {
	p, ok := s.ownedProject(c)
	if !ok {
		return
	}
	filter := store.IssueLinkFilter{ProjectID: &p.ID}
	if state := c.Query("state"); state != "" {
		filter.State = &state
	}
	links, err := s.store.ListIssueLinks(c.Request.Context(), filter)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"links": links, "count": len(links)})
}

func (s *Server) handleMirror(c *gin.Context) {
	if s.mirror == nil {
		unavailable(c, "github mirroring")
		return
	}
	p, ok := s.ownedProject(c)
	if !ok {
		return
	}
	tasks, err := s.store.GetTasks(c.Request.Context(), p.ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	res, err := s.mirror.MirrorTasks(c.Request.Context(), *p, tasks)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func listType(s string) (model.ContentType, error) {
	ct, err := model.ParseContentType(s)
	if err != nil {
		return "", err
	}
	if !ct.IsList() {
		return "", fmt.Errorf("content type %q has no items", ct)
	}
	return ct, nil
}
