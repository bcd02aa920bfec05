package model

import "time"

// Post is a piece of content owned by its author. At least one of Content
// and Image is set.
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Content   *string   `json:"content"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Comment belongs to exactly one post. Content is always non-empty.
type Comment struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	PostID    string    `json:"postId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Like is the (user, post) edge. A user likes a post at most once.
type Like struct {
	UserID    string    `json:"userId"`
	PostID    string    `json:"postId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Follow is the directed (follower, following) edge. FollowerID never
// equals FollowingID.
type Follow struct {
	FollowerID  string    `json:"followerId"`
	FollowingID string    `json:"followingId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CommentView is a comment with its author, as rendered under a post.
type CommentView struct {
	Comment
	Author UserSummary `json:"author"`
}

// PostCounts are derived from the like and comment relations at read time.
type PostCounts struct {
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
}

// FeedPost is a post as shown in a feed or on a profile: author, comments,
// derived counts, and whether the viewer has liked it.
type FeedPost struct {
	Post
	Author   UserSummary   `json:"author"`
	Comments []CommentView `json:"comments"`
	Counts   PostCounts    `json:"_count"`
	Liked    bool          `json:"liked"`
}
