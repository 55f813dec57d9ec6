package jsonstore

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"pulse/models"
)

// ToggleLike removes the pair's like when present, inserts one
// otherwise. The store's single lock covers the whole read-modify-
// write, so concurrent toggles on the same pair serialize here.
func (s *Store) ToggleLike(_ context.Context, userID, postID uint) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	if _, ok := doc.Posts[strconv.FormatUint(uint64(postID), 10)]; !ok {
		return false, 0, models.ErrNotFound
	}

	liked := true
	for key, like := range doc.Likes {
		if like.UserID == userID && like.PostID == postID {
			delete(doc.Likes, key)
			liked = false
			break
		}
	}
	if liked {
		like := &models.Like{
			ID:        doc.nextID(idKeyLike),
			UserID:    userID,
			PostID:    postID,
			CreatedAt: time.Now(),
		}
		doc.Likes[strconv.FormatUint(uint64(like.ID), 10)] = like
	}

	if err := s.save(doc); err != nil {
		return false, 0, err
	}

	count := 0
	for _, like := range doc.Likes {
		if like.PostID == postID {
			count++
		}
	}
	return liked, count, nil
}

// AddComment appends a comment to an existing post.
func (s *Store) AddComment(_ context.Context, userID, postID uint, body string) (*models.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, models.ErrEmptyComment
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	if _, ok := doc.Posts[strconv.FormatUint(uint64(postID), 10)]; !ok {
		return nil, models.ErrNotFound
	}

	comment := &models.Comment{
		ID:        doc.nextID(idKeyComment),
		PostID:    postID,
		UserID:    userID,
		Content:   body,
		CreatedAt: time.Now(),
	}
	doc.Comments[strconv.FormatUint(uint64(comment.ID), 10)] = comment

	if err := s.save(doc); err != nil {
		return nil, err
	}
	return comment, nil
}

// CommentsFor returns the post's comments oldest first.
func (s *Store) CommentsFor(_ context.Context, postID uint) ([]*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	comments := []*models.Comment{}
	for _, c := range doc.Comments {
		if c.PostID == postID {
			comments = append(comments, c)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		if comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].ID < comments[j].ID
		}
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

// LikesFor counts the post's current likes.
func (s *Store) LikesFor(_ context.Context, postID uint) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	count := 0
	for _, like := range doc.Likes {
		if like.PostID == postID {
			count++
		}
	}
	return count, nil
}

// HasLiked reports whether the pair currently holds a like.
func (s *Store) HasLiked(_ context.Context, userID, postID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	for _, like := range doc.Likes {
		if like.UserID == userID && like.PostID == postID {
			return true, nil
		}
	}
	return false, nil
}

// LikedPostIDs returns every post id the user has toggled on.
func (s *Store) LikedPostIDs(_ context.Context, userID uint) ([]uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	ids := []uint{}
	for _, like := range doc.Likes {
		if like.UserID == userID {
			ids = append(ids, like.PostID)
		}
	}
	return ids, nil
}
