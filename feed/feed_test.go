package feed

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pulse/models"
	"pulse/store"
	"pulse/store/jsonstore"
)

func newTestStores(t *testing.T) *store.Stores {
	t.Helper()
	js, err := jsonstore.Open(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, err)
	sink, err := store.NewDiskSink(t.TempDir())
	require.NoError(t, err)
	return &store.Stores{
		Identity:     js,
		Content:      jsonstore.NewContentStore(js, sink, store.MediaPolicyReject),
		Interactions: js,
		Media:        sink,
	}
}

func TestBuildEnrichesPosts(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t)
	assembler := New(stores)

	alice, err := stores.Identity.Register(ctx, "alice", "h")
	require.NoError(t, err)
	bob, err := stores.Identity.Register(ctx, "bob", "h")
	require.NoError(t, err)

	p1, err := stores.Content.CreatePost(ctx, alice.ID, "alice's post", nil)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	p2, err := stores.Content.CreatePost(ctx, bob.ID, "bob's post", nil)
	require.NoError(t, err)

	_, _, err = stores.Interactions.ToggleLike(ctx, bob.ID, p1.ID)
	require.NoError(t, err)
	_, err = stores.Interactions.AddComment(ctx, bob.ID, p1.ID, "nice one")
	require.NoError(t, err)

	items, err := assembler.Build(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// newest first
	require.Equal(t, p2.ID, items[0].ID)
	require.Equal(t, "bob", items[0].Username)
	require.Zero(t, items[0].LikeCount)
	require.Empty(t, items[0].Comments)

	first := items[1]
	require.Equal(t, p1.ID, first.ID)
	require.Equal(t, "alice", first.Username)
	require.Equal(t, 1, first.LikeCount)
	require.Equal(t, 1, first.CommentCount)
	require.False(t, first.ViewerHasLiked)
	require.Len(t, first.Comments, 1)
	require.Equal(t, "nice one", first.Comments[0].Content)
	require.Equal(t, "bob", first.Comments[0].Username)
}

func TestBuildMarksViewerLikes(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t)
	assembler := New(stores)

	bob, err := stores.Identity.Register(ctx, "bob", "h")
	require.NoError(t, err)
	post, err := stores.Content.CreatePost(ctx, bob.ID, "self-liked", nil)
	require.NoError(t, err)
	_, _, err = stores.Interactions.ToggleLike(ctx, bob.ID, post.ID)
	require.NoError(t, err)

	items, err := assembler.Build(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.True(t, items[0].ViewerHasLiked)
}

func TestMissingAuthorResolvesToPlaceholder(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t)
	assembler := New(stores)

	// author id 99 was never registered
	post, err := stores.Content.CreatePost(ctx, 99, "orphaned", nil)
	require.NoError(t, err)
	_, err = stores.Interactions.AddComment(ctx, 98, post.ID, "also orphaned")
	require.NoError(t, err)

	items, err := assembler.Build(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, UnknownAuthor, items[0].Username)
	require.Equal(t, UnknownAuthor, items[0].Comments[0].Username)
}

func TestBuildOne(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t)
	assembler := New(stores)

	alice, err := stores.Identity.Register(ctx, "alice", "h")
	require.NoError(t, err)
	post, err := stores.Content.CreatePost(ctx, alice.ID, "solo", nil)
	require.NoError(t, err)

	item, err := assembler.BuildOne(ctx, post.ID, alice.ID)
	require.NoError(t, err)
	require.Equal(t, post.ID, item.ID)
	require.Equal(t, "alice", item.Username)
	require.False(t, item.ViewerHasLiked)

	_, err = assembler.BuildOne(ctx, 999, alice.ID)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestBuildEmptyStore(t *testing.T) {
	stores := newTestStores(t)
	items, err := New(stores).Build(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, items)
}
