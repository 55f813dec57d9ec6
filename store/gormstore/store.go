// Package gormstore implements the persistence contracts on a
// relational database through GORM. MySQL is the production target;
// SQLite serves single-node deployments and the test suite. Atomicity
// for like toggles comes from an explicit check-then-act inside a per
// (user, post) pair lock rather than unique-constraint control flow;
// the unique index over the pair remains in the schema as a backstop.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"pulse/models"
	"pulse/store"
	"pulse/utils"
)

// Store implements IdentityStore, ContentStore and InteractionStore.
type Store struct {
	db     *gorm.DB
	sink   store.MediaSink
	policy store.MediaPolicy
	pairs  *utils.KeyMutex
}

// New wires a Store over an initialized gorm DB and a media sink.
func New(db *gorm.DB, sink store.MediaSink, policy store.MediaPolicy) *Store {
	return &Store{db: db, sink: sink, policy: policy, pairs: utils.NewKeyMutex()}
}

// Migrate creates or updates the schema for the store's models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{}, &models.Like{})
}

// Register persists a new user, enforcing username uniqueness.
func (s *Store) Register(ctx context.Context, username, passwordHash string) (*models.User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, models.ErrInvalidInput
	}

	user := models.User{Username: username, PasswordHash: passwordHash, CreatedAt: time.Now()}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// MySQL's default collation is case-insensitive; re-check the
		// candidates in Go so uniqueness stays case-sensitive everywhere
		var candidates []models.User
		if err := tx.Where("username = ?", username).Find(&candidates).Error; err != nil {
			return err
		}
		for _, c := range candidates {
			if c.Username == username {
				return models.ErrDuplicateUsername
			}
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername resolves an exact, case-sensitive username match.
func (s *Store) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var candidates []models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).Find(&candidates).Error; err != nil {
		return nil, err
	}
	for i := range candidates {
		if candidates[i].Username == username {
			return &candidates[i], nil
		}
	}
	return nil, models.ErrNotFound
}

// FindByID resolves a user by primary key.
func (s *Store) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreatePost stores media through the sink, then the post row.
func (s *Store) CreatePost(ctx context.Context, authorID uint, body string, media *store.MediaUpload) (*models.Post, error) {
	if body == "" && (media == nil || len(media.Data) == 0) {
		return nil, models.ErrEmptyPost
	}

	ref, kind, err := store.SaveMedia(ctx, s.sink, media, s.policy)
	if err != nil {
		return nil, err
	}

	post := models.Post{
		UserID:    authorID,
		Content:   body,
		MediaType: kind,
		MediaRef:  ref,
		CreatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// GetPost loads a post by id.
func (s *Store) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

// ListPosts returns all posts newest first. The secondary id sort in
// Go keeps ties in insertion order regardless of the database's
// timestamp precision.
func (s *Store) ListPosts(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&posts).Error; err != nil {
		return nil, err
	}
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts, nil
}

// pairKey identifies one (user, post) combination in the keyed mutex.
func pairKey(userID, postID uint) string {
	return fmt.Sprintf("%d:%d", userID, postID)
}

// ToggleLike serializes per pair, then checks-then-acts in a
// transaction. The unique (user_id, post_id) index never fires under
// normal operation; it only guards external writers.
func (s *Store) ToggleLike(ctx context.Context, userID, postID uint) (bool, int, error) {
	key := pairKey(userID, postID)
	s.pairs.Lock(key)
	defer s.pairs.Unlock(key)

	var liked bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrNotFound
			}
			return err
		}

		var existing models.Like
		err := tx.Where("user_id = ? AND post_id = ?", userID, postID).First(&existing).Error
		switch {
		case err == nil:
			liked = false
			return tx.Delete(&existing).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			liked = true
			return tx.Create(&models.Like{UserID: userID, PostID: postID, CreatedAt: time.Now()}).Error
		default:
			return err
		}
	})
	if err != nil {
		return false, 0, err
	}

	count, err := s.LikesFor(ctx, postID)
	if err != nil {
		return false, 0, err
	}
	return liked, count, nil
}

// AddComment appends a comment to an existing post.
func (s *Store) AddComment(ctx context.Context, userID, postID uint, body string) (*models.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, models.ErrEmptyComment
	}
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	comment := models.Comment{
		PostID:    postID,
		UserID:    userID,
		Content:   body,
		CreatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// CommentsFor returns the post's comments oldest first, id as the
// tie-break for equal timestamps.
func (s *Store) CommentsFor(ctx context.Context, postID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// LikesFor counts the post's current likes.
func (s *Store) LikesFor(ctx context.Context, postID uint) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error
	return int(count), err
}

// HasLiked reports whether the pair currently holds a like.
func (s *Store) HasLiked(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	return count > 0, err
}

// LikedPostIDs returns the ids of every post the user currently likes.
func (s *Store) LikedPostIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ?", userID).
		Pluck("post_id", &ids).Error
	return ids, err
}
