package models

// CommentView is a comment decorated with its author's username for
// rendering. A missing author resolves to the "Unknown" placeholder.
type CommentView struct {
	Comment
	Username string `json:"username"`
}

// FeedItem is a post enriched with its author's username, interaction
// aggregates, the requesting viewer's like state and ordered comments.
// None of the derived fields are persisted.
type FeedItem struct {
	Post
	Username       string        `json:"username"`
	LikeCount      int           `json:"like_count"`
	CommentCount   int           `json:"comment_count"`
	ViewerHasLiked bool          `json:"viewer_has_liked"`
	Comments       []CommentView `json:"comments"`
}
