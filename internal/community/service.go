// Package community implements the forum where users share posts about AI
// coding tools, vote on them, save them and comment.
package community

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nhle/devdash/internal/engagement"
	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/store"
)

// validate is shared by all request types of this package.
var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// ValidationError reports input rejected before any store call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// fromValidator converts the first failure of a validator error.
func fromValidator(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		reason := fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		return &ValidationError{Field: strings.ToLower(fe.Field()), Reason: reason}
	}
	return err
}

// NewPost is the input for creating a post.
type NewPost struct {
	Title   string   `json:"title" validate:"required,notblank,max=200"`
	Content string   `json:"content" validate:"required,notblank,max=20000"`
	Tool    string   `json:"tool" validate:"max=50"`
	Tags    []string `json:"tags" validate:"max=10,dive,notblank,max=30"`
}

// NewComment is the input for commenting on a post.
type NewComment struct {
	Body string `json:"body" validate:"required,notblank,max=5000"`
}

// Service implements forum operations on top of the store.
type Service struct {
	store  store.Store
	logger *slog.Logger
}

var _ engagement.Remote = (*Service)(nil)

// NewService creates a forum service.
func NewService(s store.Store) *Service {
	return &Service{
		store:  s,
		logger: slog.Default().With("component", "community"),
	}
}

// CreatePost validates and stores a new post by authorID.
func (s *Service) CreatePost(ctx context.Context, authorID string, in NewPost) (*model.Post, error) {
	if err := requireUser(authorID); err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, fromValidator(err)
	}

	tags := make(model.StringList, 0, len(in.Tags))
	for _, t := range in.Tags {
		tags = append(tags, strings.ToLower(strings.TrimSpace(t)))
	}

	post, err := s.store.CreatePost(ctx, model.Post{
		AuthorID: authorID,
		Title:    strings.TrimSpace(in.Title),
		Content:  in.Content,
		Tool:     strings.ToLower(strings.TrimSpace(in.Tool)),
		Tags:     tags,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("post created", "post_id", post.ID, "author_id", authorID)
	return post, nil
}

// ListPosts returns posts as seen by userID.
func (s *Service) ListPosts(ctx context.Context, userID string, filter store.PostFilter) ([]model.Post, error) {
	return s.store.GetPosts(ctx, userID, filter)
}

// ListSaved returns the posts userID has saved, newest first.
func (s *Service) ListSaved(ctx context.Context, userID string) ([]model.Post, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.store.GetPosts(ctx, userID, store.PostFilter{SavedOnly: true})
}

// GetPost returns one post as seen by userID.
func (s *Service) GetPost(ctx context.Context, userID, postID string) (*model.Post, error) {
	return s.store.GetPostByID(ctx, userID, postID)
}

// SetVote records userID's vote on a post.
func (s *Service) SetVote(ctx context.Context, userID, postID string, vt model.VoteType) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if !vt.Valid() {
		return &ValidationError{Field: "vote_type", Reason: fmt.Sprintf("must be upvote or downvote, got %q", vt)}
	}
	if err := s.requirePost(ctx, userID, postID); err != nil {
		return err
	}
	return s.store.UpsertVote(ctx, userID, postID, vt)
}

// RemoveVote withdraws userID's vote on a post.
func (s *Service) RemoveVote(ctx context.Context, userID, postID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := s.requirePost(ctx, userID, postID); err != nil {
		return err
	}
	return s.store.DeleteVote(ctx, userID, postID)
}

// Save bookmarks a post for userID.
func (s *Service) Save(ctx context.Context, userID, postID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := s.requirePost(ctx, userID, postID); err != nil {
		return err
	}
	return s.store.SavePost(ctx, userID, postID)
}

// Unsave removes userID's bookmark.
func (s *Service) Unsave(ctx context.Context, userID, postID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := s.requirePost(ctx, userID, postID); err != nil {
		return err
	}
	return s.store.UnsavePost(ctx, userID, postID)
}

// AddComment validates and stores a comment by authorID.
func (s *Service) AddComment(ctx context.Context, authorID, postID string, in NewComment) (*model.Comment, error) {
	if err := requireUser(authorID); err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, fromValidator(err)
	}
	if err := s.requirePost(ctx, authorID, postID); err != nil {
		return nil, err
	}
	return s.store.CreateComment(ctx, model.Comment{
		PostID:   postID,
		AuthorID: authorID,
		Body:     strings.TrimSpace(in.Body),
	})
}

// ListComments returns a post's comments, oldest first.
func (s *Service) ListComments(ctx context.Context, postID string) ([]model.Comment, error) {
	return s.store.GetComments(ctx, postID)
}

func (s *Service) requirePost(ctx context.Context, userID, postID string) error {
	if _, err := s.store.GetPostByID(ctx, userID, postID); err != nil {
		return err
	}
	return nil
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return &ValidationError{Field: "user_id", Reason: "required"}
	}
	return nil
}
