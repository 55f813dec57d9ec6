package gormstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pulse/models"
	"pulse/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	sink, err := store.NewDiskSink(t.TempDir())
	require.NoError(t, err)
	return New(db, sink, store.MediaPolicyReject)
}

func TestRegisterAndLookup(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	alice, err := s.Register(ctx, "alice", "hash-a")
	require.NoError(t, err)
	require.NotZero(t, alice.ID)

	found, err := s.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, alice.ID, found.ID)
	require.Equal(t, "hash-a", found.PasswordHash)

	byID, err := s.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", byID.Username)

	_, err = s.FindByUsername(ctx, "nobody")
	require.ErrorIs(t, err, models.ErrNotFound)

	_, err = s.FindByID(ctx, 9999)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Register(ctx, "bob", "h1")
	require.NoError(t, err)

	_, err = s.Register(ctx, "bob", "h2")
	require.ErrorIs(t, err, models.ErrDuplicateUsername)

	_, err = s.Register(ctx, "  ", "h3")
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestCreatePostAndListOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.CreatePost(ctx, 1, "", nil)
	require.ErrorIs(t, err, models.ErrEmptyPost)

	first, err := s.CreatePost(ctx, 1, "first", nil)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := s.CreatePost(ctx, 2, "second", nil)
	require.NoError(t, err)

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.Equal(t, second.ID, posts[0].ID)
	require.Equal(t, first.ID, posts[1].ID)

	got, err := s.GetPost(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, "first", got.Content)

	_, err = s.GetPost(ctx, 9999)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreatePostMediaPolicy(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.CreatePost(ctx, 1, "x", &store.MediaUpload{Filename: "evil.exe", Data: []byte{1}})
	require.ErrorIs(t, err, models.ErrUnsupportedMediaType)

	post, err := s.CreatePost(ctx, 1, "", &store.MediaUpload{Filename: "pic.jpeg", Data: []byte{1}})
	require.NoError(t, err)
	require.Equal(t, models.MediaImage, post.MediaType)
	require.NotEmpty(t, post.MediaRef)
}

func TestToggleLike(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	post, err := s.CreatePost(ctx, 1, "likeable", nil)
	require.NoError(t, err)

	liked, count, err := s.ToggleLike(ctx, 7, post.ID)
	require.NoError(t, err)
	require.True(t, liked)
	require.Equal(t, 1, count)

	has, err := s.HasLiked(ctx, 7, post.ID)
	require.NoError(t, err)
	require.True(t, has)

	liked, count, err = s.ToggleLike(ctx, 7, post.ID)
	require.NoError(t, err)
	require.False(t, liked)
	require.Equal(t, 0, count)

	_, _, err = s.ToggleLike(ctx, 7, 9999)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestLikedPostIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p1, err := s.CreatePost(ctx, 1, "one", nil)
	require.NoError(t, err)
	p2, err := s.CreatePost(ctx, 1, "two", nil)
	require.NoError(t, err)

	_, _, err = s.ToggleLike(ctx, 5, p1.ID)
	require.NoError(t, err)
	_, _, err = s.ToggleLike(ctx, 5, p2.ID)
	require.NoError(t, err)
	_, _, err = s.ToggleLike(ctx, 6, p1.ID)
	require.NoError(t, err)

	ids, err := s.LikedPostIDs(ctx, 5)
	require.NoError(t, err)
	require.ElementsMatch(t, []uint{p1.ID, p2.ID}, ids)
}

func TestComments(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	post, err := s.CreatePost(ctx, 1, "p", nil)
	require.NoError(t, err)

	_, err = s.AddComment(ctx, 2, post.ID, "  ")
	require.ErrorIs(t, err, models.ErrEmptyComment)

	_, err = s.AddComment(ctx, 2, 9999, "hi")
	require.ErrorIs(t, err, models.ErrNotFound)

	first, err := s.AddComment(ctx, 2, post.ID, "first")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := s.AddComment(ctx, 3, post.ID, "second")
	require.NoError(t, err)

	comments, err := s.CommentsFor(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	require.Equal(t, first.ID, comments[0].ID)
	require.Equal(t, second.ID, comments[1].ID)
}
