package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nhle/devdash/internal/community"
	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/store"
)

const maxPageSize = 100

type voteRequest struct {
	VoteType model.VoteType `json:"vote_type" binding:"required,oneof=upvote downvote"`
}

func (s *Server) handleListPosts(c *gin.Context) {
	filter := store.PostFilter{
		SortBy: store.PostSort(c.DefaultQuery("sort", string(store.PostSortNew))),
		Limit:  20,
	}
	if v := c.Query("tool"); v != "" {
		filter.Tool = &v
	}
	if v := c.Query("tag"); v != "" {
		filter.Tag = &v
	}
	if v := c.Query("author"); v != "" {
		filter.AuthorID = &v
	}
	if v := c.Query("q"); v != "" {
		filter.Query = &v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		filter.Limit = min(v, maxPageSize)
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		filter.Offset = v
	}

	uid := userID(c)
	if c.Query("saved") == "true" {
		if _, ok := requireUser(c); !ok {
			return
		}
		filter.SavedOnly = true
	}

	posts, err := s.community.ListPosts(c.Request.Context(), uid, filter)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts, "count": len(posts)})
}

func (s *Server) handleCreatePost(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req community.NewPost
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	post, err := s.community.CreatePost(c.Request.Context(), uid, req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (s *Server) handleGetPost(c *gin.Context) {
	post, err := s.community.GetPost(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// engagementResponse returns the post's counts after a mutation so the
// client can confirm its optimistic state.
func (s *Server) engagementResponse(c *gin.Context, uid string) {
	post, err := s.community.GetPost(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"post_id":          post.ID,
		"upvote_count":     post.UpvoteCount,
		"downvote_count":   post.DownvoteCount,
		"user_vote":        post.UserVote,
		"is_saved_by_user": post.IsSavedByUser,
	})
}

func (s *Server) handleVote(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.community.SetVote(c.Request.Context(), uid, c.Param("id"), req.VoteType); err != nil {
		s.writeError(c, err)
		return
	}
	s.engagementResponse(c, uid)
}

func (s *Server) handleRemoveVote(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	if err := s.community.RemoveVote(c.Request.Context(), uid, c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	s.engagementResponse(c, uid)
}

func (s *Server) handleSave(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	if err := s.community.Save(c.Request.Context(), uid, c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	s.engagementResponse(c, uid)
}

func (s *Server) handleUnsave(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	if err := s.community.Unsave(c.Request.Context(), uid, c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	s.engagementResponse(c, uid)
}

func (s *Server) handleListComments(c *gin.Context) {
	if _, err := s.community.GetPost(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	comments, err := s.community.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments, "count": len(comments)})
}

func (s *Server) handleAddComment(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req community.NewComment
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	comment, err := s.community.AddComment(c.Request.Context(), uid, c.Param("id"), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}
