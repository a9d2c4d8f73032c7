package model

import "time"

// VoteType is a user's vote on a community post. The empty value means
// the user has not voted.
type VoteType string

const (
	VoteNone VoteType = ""
	VoteUp   VoteType = "upvote"
	VoteDown VoteType = "downvote"
)

// Valid reports whether v is an actual vote (upvote or downvote).
func (v VoteType) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// Post is a community forum post about AI coding tools.
type Post struct {
	ID       string     `json:"id" db:"id"`
	AuthorID string     `json:"author_id" db:"author_id"`
	Title    string     `json:"title" db:"title"`
	Content  string     `json:"content" db:"content"`
	Tool     string     `json:"tool" db:"tool"`
	Tags     StringList `json:"tags" db:"tags"`

	// Aggregated per query from the votes and comments tables.
	UpvoteCount   int `json:"upvote_count" db:"upvote_count"`
	DownvoteCount int `json:"downvote_count" db:"downvote_count"`
	CommentCount  int `json:"comment_count" db:"comment_count"`

	// Engagement state of the requesting user.
	UserVote      VoteType `json:"user_vote" db:"user_vote"`
	IsSavedByUser bool     `json:"is_saved_by_user" db:"is_saved_by_user"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Score returns upvotes minus downvotes.
func (p Post) Score() int {
	return p.UpvoteCount - p.DownvoteCount
}

// Vote is one user's active vote on a post.
type Vote struct {
	PostID    string    `json:"post_id" db:"post_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	VoteType  VoteType  `json:"vote_type" db:"vote_type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Comment is a reply on a community post.
type Comment struct {
	ID        string    `json:"id" db:"id"`
	PostID    string    `json:"post_id" db:"post_id"`
	AuthorID  string    `json:"author_id" db:"author_id"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
