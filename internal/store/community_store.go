package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/devdash/internal/model"
)

// postSelect returns posts with counts aggregated from the votes and
// comments tables plus the engagement state of the requesting user.
// The first two bind parameters are the user ID.
const postSelect = `
	SELECT
		p.id, p.author_id, p.title, p.content, p.tool, p.tags,
		p.created_at, p.updated_at,
		(SELECT COUNT(*) FROM votes v WHERE v.post_id = p.id AND v.vote_type = 'upvote') AS upvote_count,
		(SELECT COUNT(*) FROM votes v WHERE v.post_id = p.id AND v.vote_type = 'downvote') AS downvote_count,
		(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comment_count,
		COALESCE((SELECT v.vote_type FROM votes v WHERE v.post_id = p.id AND v.user_id = ?), '') AS user_vote,
		EXISTS(SELECT 1 FROM saves s WHERE s.post_id = p.id AND s.user_id = ?) AS is_saved_by_user
	FROM posts p`

// CreatePost inserts a new post and returns it with its ID set.
func (s *SQLiteStore) CreatePost(ctx context.Context, post model.Post) (*model.Post, error) {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	if post.Tags == nil {
		post.Tags = model.StringList{}
	}
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now
	post.UpvoteCount, post.DownvoteCount, post.CommentCount = 0, 0, 0
	post.UserVote = model.VoteNone
	post.IsSavedByUser = false

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (id, author_id, title, content, tool, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID, post.AuthorID, post.Title, post.Content, post.Tool, post.Tags,
		post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}
	return &post, nil
}

// GetPosts retrieves posts matching the filter, as seen by userID.
func (s *SQLiteStore) GetPosts(
	ctx context.Context,
	userID string,
	filter PostFilter,
) ([]model.Post, error) {
	conditions := []string{}
	args := []interface{}{userID, userID}

	if filter.Tool != nil {
		conditions = append(conditions, "p.tool = ?")
		args = append(args, *filter.Tool)
	}
	if filter.Tag != nil {
		conditions = append(conditions,
			"EXISTS(SELECT 1 FROM json_each(p.tags) WHERE json_each.value = ?)")
		args = append(args, *filter.Tag)
	}
	if filter.AuthorID != nil {
		conditions = append(conditions, "p.author_id = ?")
		args = append(args, *filter.AuthorID)
	}
	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions, "(p.title LIKE ? OR p.content LIKE ?)")
		q := "%" + *filter.Query + "%"
		args = append(args, q, q)
	}
	if filter.SavedOnly {
		conditions = append(conditions,
			"EXISTS(SELECT 1 FROM saves s2 WHERE s2.post_id = p.id AND s2.user_id = ?)")
		args = append(args, userID)
	}

	query := postSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	switch filter.SortBy {
	case PostSortTop:
		query += " ORDER BY (upvote_count - downvote_count) DESC, p.created_at DESC"
	default:
		query += " ORDER BY p.created_at DESC"
	}

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	posts := []model.Post{}
	if err := s.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	return posts, nil
}

// GetPostByID retrieves a single post as seen by userID.
func (s *SQLiteStore) GetPostByID(ctx context.Context, userID, id string) (*model.Post, error) {
	var post model.Post
	err := s.db.GetContext(ctx, &post, postSelect+" WHERE p.id = ?", userID, userID, id)
	if err != nil {
		return nil, notFound(err, "post", id)
	}
	return &post, nil
}

// UpsertVote records userID's vote on a post, replacing any earlier vote.
func (s *SQLiteStore) UpsertVote(
	ctx context.Context,
	userID, postID string,
	vt model.VoteType,
) error {
	if !vt.Valid() {
		return fmt.Errorf("invalid vote type %q", vt)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO votes (post_id, user_id, vote_type, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, post_id) DO UPDATE SET
			vote_type = excluded.vote_type,
			created_at = excluded.created_at`,
		postID, userID, vt, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("voting on post %s: %w", postID, err)
	}
	return nil
}

// DeleteVote removes userID's vote on a post. Removing a vote that does
// not exist is not an error.
func (s *SQLiteStore) DeleteVote(ctx context.Context, userID, postID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM votes WHERE user_id = ? AND post_id = ?", userID, postID)
	if err != nil {
		return fmt.Errorf("removing vote on post %s: %w", postID, err)
	}
	return nil
}

// SavePost bookmarks a post for userID. Saving twice is a no-op.
func (s *SQLiteStore) SavePost(ctx context.Context, userID, postID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO saves (post_id, user_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id, post_id) DO NOTHING`,
		postID, userID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving post %s: %w", postID, err)
	}
	return nil
}

// UnsavePost removes a bookmark. Unsaving a post that is not saved is a no-op.
func (s *SQLiteStore) UnsavePost(ctx context.Context, userID, postID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM saves WHERE user_id = ? AND post_id = ?", userID, postID)
	if err != nil {
		return fmt.Errorf("unsaving post %s: %w", postID, err)
	}
	return nil
}

// CreateComment inserts a comment on a post.
func (s *SQLiteStore) CreateComment(ctx context.Context, c model.Comment) (*model.Comment, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, post_id, author_id, body, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.PostID, c.AuthorID, c.Body, c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating comment on post %s: %w", c.PostID, err)
	}
	return &c, nil
}

// GetComments lists a post's comments, oldest first.
func (s *SQLiteStore) GetComments(ctx context.Context, postID string) ([]model.Comment, error) {
	comments := []model.Comment{}
	err := s.db.SelectContext(ctx, &comments, `
		SELECT id, post_id, author_id, body, created_at
		FROM comments WHERE post_id = ? ORDER BY created_at, id`, postID)
	if err != nil {
		return nil, fmt.Errorf("querying comments for post %s: %w", postID, err)
	}
	return comments, nil
}
