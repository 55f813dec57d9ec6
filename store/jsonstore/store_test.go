package jsonstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pulse/models"
	"pulse/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, err)
	return s
}

func newTestContentStore(t *testing.T, s *Store, policy store.MediaPolicy) *ContentStore {
	t.Helper()
	sink, err := store.NewDiskSink(t.TempDir())
	require.NoError(t, err)
	return NewContentStore(s, sink, policy)
}

func TestRegisterAndLookup(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	alice, err := s.Register(ctx, "alice", "hash-a")
	require.NoError(t, err)
	require.Equal(t, uint(1), alice.ID)

	found, err := s.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, alice.ID, found.ID)
	require.Equal(t, "hash-a", found.PasswordHash)

	byID, err := s.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", byID.Username)

	_, err = s.FindByUsername(ctx, "nobody")
	require.ErrorIs(t, err, models.ErrNotFound)

	_, err = s.FindByID(ctx, 42)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Register(ctx, "alice", "h1")
	require.NoError(t, err)

	_, err = s.Register(ctx, "alice", "h2")
	require.ErrorIs(t, err, models.ErrDuplicateUsername)

	// uniqueness is case sensitive
	other, err := s.Register(ctx, "Alice", "h3")
	require.NoError(t, err)
	require.Equal(t, uint(2), other.ID)
}

func TestRegisterRejectsBlankUsername(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Register(context.Background(), "   ", "h")
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestIDAllocationSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Register(ctx, "first", "h")
	require.NoError(t, err)
	_, err = s.Register(ctx, "second", "h")
	require.NoError(t, err)

	reopened, err := Open(path)
	require.NoError(t, err)
	third, err := reopened.Register(ctx, "third", "h")
	require.NoError(t, err)
	require.Equal(t, uint(3), third.ID)
}

func TestMissingFileReadsEmpty(t *testing.T) {
	s := newTestStore(t)
	content := newTestContentStore(t, s, store.MediaPolicyReject)

	posts, err := content.ListPosts(context.Background())
	require.NoError(t, err)
	require.Empty(t, posts)
}

func TestCreatePostRequiresContentOrMedia(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	content := newTestContentStore(t, s, store.MediaPolicyReject)

	_, err := content.CreatePost(ctx, 1, "", nil)
	require.ErrorIs(t, err, models.ErrEmptyPost)

	post, err := content.CreatePost(ctx, 1, "hello", nil)
	require.NoError(t, err)
	require.Equal(t, uint(1), post.ID)
	require.Empty(t, post.MediaRef)

	upload := &store.MediaUpload{Filename: "cat.png", Data: []byte{0x89, 0x50}}
	mediaOnly, err := content.CreatePost(ctx, 1, "", upload)
	require.NoError(t, err)
	require.Equal(t, models.MediaImage, mediaOnly.MediaType)
	require.NotEmpty(t, mediaOnly.MediaRef)
}

func TestListPostsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	content := newTestContentStore(t, s, store.MediaPolicyReject)

	first, err := content.CreatePost(ctx, 1, "first", nil)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := content.CreatePost(ctx, 2, "second", nil)
	require.NoError(t, err)

	posts, err := content.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.Equal(t, second.ID, posts[0].ID)
	require.Equal(t, first.ID, posts[1].ID)
}

func TestToggleLike(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	content := newTestContentStore(t, s, store.MediaPolicyReject)

	post, err := content.CreatePost(ctx, 1, "likeable", nil)
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

	has, err = s.HasLiked(ctx, 7, post.ID)
	require.NoError(t, err)
	require.False(t, has)

	_, _, err = s.ToggleLike(ctx, 7, 999)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestLikedPostIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	content := newTestContentStore(t, s, store.MediaPolicyReject)

	p1, err := content.CreatePost(ctx, 1, "one", nil)
	require.NoError(t, err)
	p2, err := content.CreatePost(ctx, 1, "two", nil)
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

func TestAddComment(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	content := newTestContentStore(t, s, store.MediaPolicyReject)

	post, err := content.CreatePost(ctx, 1, "p", nil)
	require.NoError(t, err)

	_, err = s.AddComment(ctx, 2, post.ID, "   ")
	require.ErrorIs(t, err, models.ErrEmptyComment)

	_, err = s.AddComment(ctx, 2, 999, "hi")
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

// A write that dies between the rename and the new file leaves only a
// backup behind. The next read must serve the backup and move it back
// into place.
func TestBackupRestoredAfterCrashedWrite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Register(ctx, "survivor", "h")
	require.NoError(t, err)

	// simulate the crash window: main file renamed away, new one never written
	require.NoError(t, os.Rename(path, path+".bak"))

	user, err := s.FindByUsername(ctx, "survivor")
	require.NoError(t, err)
	require.Equal(t, "survivor", user.Username)

	// the backup was promoted back to the main file
	_, err = os.Stat(path)
	require.NoError(t, err)
	_, err = os.Stat(path + ".bak")
	require.True(t, os.IsNotExist(err))
}

func TestBackupWinsOverCorruptMainFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Register(ctx, "kept", "h")
	require.NoError(t, err)

	// partial write: good state in the backup, garbage in the main file
	require.NoError(t, os.Rename(path, path+".bak"))
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o644))

	user, err := s.FindByUsername(ctx, "kept")
	require.NoError(t, err)
	require.Equal(t, "kept", user.Username)
}

func TestConcurrentTogglesStaySane(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	content := newTestContentStore(t, s, store.MediaPolicyReject)

	post, err := content.CreatePost(ctx, 1, "contended", nil)
	require.NoError(t, err)

	const workers = 8
	done := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func(userID uint) {
			for j := 0; j < 5; j++ {
				if _, _, err := s.ToggleLike(ctx, userID, post.ID); err != nil {
					done <- err
					return
				}
			}
			done <- nil
		}(uint(i + 1))
	}
	for i := 0; i < workers; i++ {
		require.NoError(t, <-done)
	}

	// odd toggle count per user leaves every like present exactly once
	count, err := s.LikesFor(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, workers, count)
}
