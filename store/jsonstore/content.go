package jsonstore

import (
	"context"
	"sort"
	"strconv"
	"time"

	"pulse/models"
	"pulse/store"
)

// ContentStore is the flat-file post store. Media bytes go through the
// sink before the post row is written; the returned reference is kept
// in the document.
type ContentStore struct {
	*Store
	sink   store.MediaSink
	policy store.MediaPolicy
}

// NewContentStore binds the document store to a media sink and policy.
func NewContentStore(s *Store, sink store.MediaSink, policy store.MediaPolicy) *ContentStore {
	return &ContentStore{Store: s, sink: sink, policy: policy}
}

// CreatePost persists a post with optional media.
func (c *ContentStore) CreatePost(ctx context.Context, authorID uint, body string, media *store.MediaUpload) (*models.Post, error) {
	if body == "" && (media == nil || len(media.Data) == 0) {
		return nil, models.ErrEmptyPost
	}

	// store the media before taking the document lock; the sink has its
	// own collision-free naming
	ref, kind, err := store.SaveMedia(ctx, c.sink, media, c.policy)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	doc := c.load()
	post := &models.Post{
		ID:        doc.nextID(idKeyPost),
		UserID:    authorID,
		Content:   body,
		MediaType: kind,
		MediaRef:  ref,
		CreatedAt: time.Now(),
	}
	doc.Posts[strconv.FormatUint(uint64(post.ID), 10)] = post

	if err := c.save(doc); err != nil {
		return nil, err
	}
	return post, nil
}

// GetPost returns a single post.
func (c *ContentStore) GetPost(_ context.Context, id uint) (*models.Post, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc := c.load()
	if p, ok := doc.Posts[strconv.FormatUint(uint64(id), 10)]; ok {
		return p, nil
	}
	return nil, models.ErrNotFound
}

// ListPosts returns all posts newest first, stable on equal timestamps.
func (c *ContentStore) ListPosts(_ context.Context) ([]*models.Post, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc := c.load()
	posts := make([]*models.Post, 0, len(doc.Posts))
	for _, p := range doc.Posts {
		posts = append(posts, p)
	}
	// id order approximates insertion order; the stable sort keeps it
	// for equal timestamps
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts, nil
}
