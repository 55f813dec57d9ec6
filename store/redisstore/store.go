// Package redisstore implements the persistence contracts on Redis as
// a document store: each post is one JSON document with its likes and
// comments embedded, users are sibling documents with a username
// index, and media bytes live in binary blob keys. The embedded
// representation stays behind the InteractionStore interface, so
// callers never see it.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"pulse/models"
	"pulse/store"
	"pulse/utils"
)

const (
	keyUserPrefix  = "user:"
	keyUsernameIdx = "username:"
	keyPostPrefix  = "post:"
	keyPostZSet    = "posts:z"
	keySeqUser     = "seq:user"
	keySeqPost     = "seq:post"
	keySeqComment  = "seq:comment"
)

// userDoc is the stored user document.
type userDoc struct {
	ID           uint      `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// postDoc embeds likes and comments inside the post document.
type postDoc struct {
	ID        uint             `json:"id"`
	UserID    uint             `json:"user_id"`
	Content   string           `json:"content"`
	MediaType string           `json:"media_type,omitempty"`
	MediaRef  string           `json:"media_ref,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	Likes     []uint           `json:"likes"`
	Comments  []models.Comment `json:"comments"`
}

// Store implements IdentityStore, ContentStore and InteractionStore.
type Store struct {
	rdb    *redis.Client
	sink   store.MediaSink
	policy store.MediaPolicy
	pairs  *utils.KeyMutex
}

// New wires a Store over a connected Redis client.
func New(rdb *redis.Client, sink store.MediaSink, policy store.MediaPolicy) *Store {
	return &Store{rdb: rdb, sink: sink, policy: policy, pairs: utils.NewKeyMutex()}
}

func (s *Store) nextID(ctx context.Context, seqKey string) (uint, error) {
	id, err := s.rdb.Incr(ctx, seqKey).Result()
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func (s *Store) getPostDoc(ctx context.Context, postID uint) (*postDoc, error) {
	b, err := s.rdb.Get(ctx, fmt.Sprintf("%s%d", keyPostPrefix, postID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	var doc postDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Store) putPostDoc(ctx context.Context, doc *postDoc) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, fmt.Sprintf("%s%d", keyPostPrefix, doc.ID), b, 0).Err()
}

func (d *postDoc) toModel() *models.Post {
	return &models.Post{
		ID:        d.ID,
		UserID:    d.UserID,
		Content:   d.Content,
		MediaType: d.MediaType,
		MediaRef:  d.MediaRef,
		CreatedAt: d.CreatedAt,
	}
}

// Register allocates an id and writes the user document plus the
// username index entry. The index is claimed first with SETNX, which
// makes duplicate detection atomic across processes.
func (s *Store) Register(ctx context.Context, username, passwordHash string) (*models.User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, models.ErrInvalidInput
	}

	id, err := s.nextID(ctx, keySeqUser)
	if err != nil {
		return nil, err
	}
	claimed, err := s.rdb.SetNX(ctx, keyUsernameIdx+username, fmt.Sprint(id), 0).Result()
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, models.ErrDuplicateUsername
	}

	doc := userDoc{ID: id, Username: username, PasswordHash: passwordHash, CreatedAt: time.Now()}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	if err := s.rdb.Set(ctx, fmt.Sprintf("%s%d", keyUserPrefix, id), b, 0).Err(); err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

// FindByUsername resolves the username index, then the document.
func (s *Store) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	idStr, err := s.rdb.Get(ctx, keyUsernameIdx+username).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	var id uint
	if _, err := fmt.Sscanf(idStr, "%d", &id); err != nil {
		return nil, err
	}
	return s.FindByID(ctx, id)
}

// FindByID loads a user document.
func (s *Store) FindByID(ctx context.Context, id uint) (*models.User, error) {
	b, err := s.rdb.Get(ctx, fmt.Sprintf("%s%d", keyUserPrefix, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	var doc userDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (d *userDoc) toModel() *models.User {
	return &models.User{
		ID:           d.ID,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
	}
}

// CreatePost stores media in the blob sink, then writes the post
// document and its recency index entry.
func (s *Store) CreatePost(ctx context.Context, authorID uint, body string, media *store.MediaUpload) (*models.Post, error) {
	if body == "" && (media == nil || len(media.Data) == 0) {
		return nil, models.ErrEmptyPost
	}

	ref, kind, err := store.SaveMedia(ctx, s.sink, media, s.policy)
	if err != nil {
		return nil, err
	}

	id, err := s.nextID(ctx, keySeqPost)
	if err != nil {
		return nil, err
	}
	doc := &postDoc{
		ID:        id,
		UserID:    authorID,
		Content:   body,
		MediaType: kind,
		MediaRef:  ref,
		CreatedAt: time.Now(),
		Likes:     []uint{},
		Comments:  []models.Comment{},
	}
	if err := s.putPostDoc(ctx, doc); err != nil {
		return nil, err
	}
	err = s.rdb.ZAdd(ctx, keyPostZSet, redis.Z{
		Score:  float64(doc.CreatedAt.UnixNano()),
		Member: fmt.Sprint(id),
	}).Err()
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

// GetPost loads a post document.
func (s *Store) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	doc, err := s.getPostDoc(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

// ListPosts loads every indexed post, newest first; the final stable
// sort in Go keeps ties in insertion (id) order.
func (s *Store) ListPosts(ctx context.Context) ([]*models.Post, error) {
	members, err := s.rdb.ZRange(ctx, keyPostZSet, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	posts := make([]*models.Post, 0, len(members))
	for _, m := range members {
		var id uint
		if _, err := fmt.Sscanf(m, "%d", &id); err != nil {
			continue
		}
		doc, err := s.getPostDoc(ctx, id)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				continue
			}
			return nil, err
		}
		posts = append(posts, doc.toModel())
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts, nil
}

// ToggleLike rewrites the embedded like list under the pair's lock.
func (s *Store) ToggleLike(ctx context.Context, userID, postID uint) (bool, int, error) {
	key := fmt.Sprintf("%d:%d", userID, postID)
	s.pairs.Lock(key)
	defer s.pairs.Unlock(key)

	doc, err := s.getPostDoc(ctx, postID)
	if err != nil {
		return false, 0, err
	}

	liked := true
	kept := doc.Likes[:0]
	for _, uid := range doc.Likes {
		if uid == userID {
			liked = false
			continue
		}
		kept = append(kept, uid)
	}
	doc.Likes = kept
	if liked {
		doc.Likes = append(doc.Likes, userID)
	}

	if err := s.putPostDoc(ctx, doc); err != nil {
		return false, 0, err
	}
	return liked, len(doc.Likes), nil
}

// AddComment appends to the embedded comment list.
func (s *Store) AddComment(ctx context.Context, userID, postID uint, body string) (*models.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, models.ErrEmptyComment
	}

	// comments get globally unique ids so they stay addressable even
	// though they live inside the post document
	id, err := s.nextID(ctx, keySeqComment)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("comments:%d", postID)
	s.pairs.Lock(key)
	defer s.pairs.Unlock(key)

	doc, err := s.getPostDoc(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment := models.Comment{
		ID:        id,
		PostID:    postID,
		UserID:    userID,
		Content:   body,
		CreatedAt: time.Now(),
	}
	doc.Comments = append(doc.Comments, comment)
	if err := s.putPostDoc(ctx, doc); err != nil {
		return nil, err
	}
	return &comment, nil
}

// CommentsFor returns the embedded comments oldest first.
func (s *Store) CommentsFor(ctx context.Context, postID uint) ([]*models.Comment, error) {
	doc, err := s.getPostDoc(ctx, postID)
	if err != nil {
		return nil, err
	}
	comments := make([]*models.Comment, 0, len(doc.Comments))
	for i := range doc.Comments {
		comments = append(comments, &doc.Comments[i])
	}
	sort.SliceStable(comments, func(i, j int) bool {
		if comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].ID < comments[j].ID
		}
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

// LikesFor counts the embedded likes.
func (s *Store) LikesFor(ctx context.Context, postID uint) (int, error) {
	doc, err := s.getPostDoc(ctx, postID)
	if err != nil {
		return 0, err
	}
	return len(doc.Likes), nil
}

// HasLiked checks the embedded like list.
func (s *Store) HasLiked(ctx context.Context, userID, postID uint) (bool, error) {
	doc, err := s.getPostDoc(ctx, postID)
	if err != nil {
		return false, err
	}
	for _, uid := range doc.Likes {
		if uid == userID {
			return true, nil
		}
	}
	return false, nil
}

// LikedPostIDs scans the indexed posts for the user's likes. The post
// set is small by design; the feed join is already O(posts × comments).
func (s *Store) LikedPostIDs(ctx context.Context, userID uint) ([]uint, error) {
	members, err := s.rdb.ZRange(ctx, keyPostZSet, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	ids := []uint{}
	for _, m := range members {
		var postID uint
		if _, err := fmt.Sscanf(m, "%d", &postID); err != nil {
			continue
		}
		doc, err := s.getPostDoc(ctx, postID)
		if err != nil {
			continue
		}
		for _, uid := range doc.Likes {
			if uid == userID {
				ids = append(ids, postID)
				break
			}
		}
	}
	return ids, nil
}
