package models

import "time"

// Media kinds derived from the upload extension allow-list.
const (
	MediaImage = "image"
	MediaVideo = "video"
)

// Post represents a feed entry created by a user. Either Content or
// MediaRef must be present.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Content   string    `gorm:"type:text" json:"content"`
	MediaType string    `gorm:"size:16" json:"media_type,omitempty"`
	MediaRef  string    `gorm:"size:512" json:"media_ref,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
