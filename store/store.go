// Package store defines the persistence contracts shared by every
// backend. The HTTP layer and the feed assembler depend only on these
// interfaces; the flat-file, relational and document implementations
// live in subpackages and are selected at boot via configuration.
package store

import (
	"context"

	"pulse/models"
)

// IdentityStore owns user records and enforces username uniqueness
// (case-sensitive exact match).
type IdentityStore interface {
	// Register allocates a new id and persists the user. It fails with
	// models.ErrInvalidInput for an empty username and
	// models.ErrDuplicateUsername when the name is taken.
	Register(ctx context.Context, username, passwordHash string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// ContentStore owns post records. Posts are never edited or deleted.
type ContentStore interface {
	// CreatePost persists a post. Media, when present, is handed to the
	// MediaSink first and the returned reference stored with the post.
	// Both body and media absent fails with models.ErrEmptyPost.
	CreatePost(ctx context.Context, authorID uint, body string, media *MediaUpload) (*models.Post, error)
	GetPost(ctx context.Context, id uint) (*models.Post, error)
	// ListPosts returns every post ordered by created_at descending,
	// ties broken by insertion order (stable).
	ListPosts(ctx context.Context) ([]*models.Post, error)
}

// InteractionStore owns likes and comments.
type InteractionStore interface {
	// ToggleLike flips the like state for the pair atomically: an
	// existing like is removed, a missing one inserted. Implementations
	// serialize concurrent toggles per (user, post) pair so the pair
	// never holds two likes.
	ToggleLike(ctx context.Context, userID, postID uint) (liked bool, likeCount int, err error)
	// AddComment fails with models.ErrEmptyComment for a blank body and
	// models.ErrNotFound when the post does not resolve.
	AddComment(ctx context.Context, userID, postID uint, body string) (*models.Comment, error)
	// CommentsFor returns comments ordered by created_at ascending.
	CommentsFor(ctx context.Context, postID uint) ([]*models.Comment, error)
	LikesFor(ctx context.Context, postID uint) (int, error)
	HasLiked(ctx context.Context, userID, postID uint) (bool, error)
	// LikedPostIDs returns the ids of every post the user currently likes.
	LikedPostIDs(ctx context.Context, userID uint) ([]uint, error)
}

// MediaSink stores uploaded binary content behind opaque references.
type MediaSink interface {
	// Store persists the bytes and returns a reference Retrieve can
	// resolve later. Names never collide; implementations disambiguate
	// with a timestamp or generated id.
	Store(ctx context.Context, data []byte, suggestedName string) (string, error)
	// Retrieve resolves a reference to the original bytes and content
	// type, or models.ErrNotFound.
	Retrieve(ctx context.Context, ref string) ([]byte, string, error)
}

// Stores bundles one backend's implementations for wiring.
type Stores struct {
	Identity     IdentityStore
	Content      ContentStore
	Interactions InteractionStore
	Media        MediaSink
}
