package models

import "time"

// Like marks that a user currently likes a post. The unique index over
// (user_id, post_id) backs the at-most-one-like-per-pair invariant in
// the relational schema; the stores additionally serialize toggles per
// pair so the invariant holds on every backend.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}
