package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"pulse/models"
)

func TestMediaKind(t *testing.T) {
	require.Equal(t, models.MediaImage, MediaKind("photo.png"))
	require.Equal(t, models.MediaImage, MediaKind("PHOTO.JPG"))
	require.Equal(t, models.MediaImage, MediaKind("anim.gif"))
	require.Equal(t, models.MediaVideo, MediaKind("clip.mp4"))
	require.Equal(t, models.MediaVideo, MediaKind("clip.MOV"))
	require.Equal(t, "", MediaKind("notes.txt"))
	require.Equal(t, "", MediaKind("noext"))
}

func TestContentTypeFor(t *testing.T) {
	require.Equal(t, "image/png", ContentTypeFor("a.png"))
	require.Equal(t, "video/mp4", ContentTypeFor("a.mp4"))
	require.Equal(t, "application/octet-stream", ContentTypeFor("a.bin"))
}

func TestSaveMediaRejectPolicy(t *testing.T) {
	ctx := context.Background()
	sink, err := NewDiskSink(t.TempDir())
	require.NoError(t, err)

	_, _, err = SaveMedia(ctx, sink, &MediaUpload{Filename: "evil.exe", Data: []byte{1}}, MediaPolicyReject)
	require.ErrorIs(t, err, models.ErrUnsupportedMediaType)

	ref, kind, err := SaveMedia(ctx, sink, &MediaUpload{Filename: "ok.png", Data: []byte{1}}, MediaPolicyReject)
	require.NoError(t, err)
	require.Equal(t, models.MediaImage, kind)
	require.NotEmpty(t, ref)
}

func TestSaveMediaStoreUntypedPolicy(t *testing.T) {
	ctx := context.Background()
	sink, err := NewDiskSink(t.TempDir())
	require.NoError(t, err)

	ref, kind, err := SaveMedia(ctx, sink, &MediaUpload{Filename: "blob.bin", Data: []byte{1, 2}}, MediaPolicyStoreUntyped)
	require.NoError(t, err)
	require.Empty(t, kind)
	require.NotEmpty(t, ref)

	data, ct, err := sink.Retrieve(ctx, ref)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2}, data)
	require.Equal(t, "application/octet-stream", ct)
}

func TestSaveMediaNilUpload(t *testing.T) {
	sink, err := NewDiskSink(t.TempDir())
	require.NoError(t, err)

	ref, kind, err := SaveMedia(context.Background(), sink, nil, MediaPolicyReject)
	require.NoError(t, err)
	require.Empty(t, ref)
	require.Empty(t, kind)
}

func TestDiskSinkRoundTrip(t *testing.T) {
	ctx := context.Background()
	sink, err := NewDiskSink(t.TempDir())
	require.NoError(t, err)

	payload := []byte("png-bytes")
	ref, err := sink.Store(ctx, payload, "my photo!.PNG")
	require.NoError(t, err)

	data, ct, err := sink.Retrieve(ctx, ref)
	require.NoError(t, err)
	require.Equal(t, payload, data)
	require.Equal(t, "image/png", ct)
}

func TestDiskSinkRejectsPathTraversal(t *testing.T) {
	sink, err := NewDiskSink(t.TempDir())
	require.NoError(t, err)

	_, _, err = sink.Retrieve(context.Background(), "../etc/passwd")
	require.ErrorIs(t, err, models.ErrNotFound)

	_, _, err = sink.Retrieve(context.Background(), "")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestDiskSinkMissingRef(t *testing.T) {
	sink, err := NewDiskSink(t.TempDir())
	require.NoError(t, err)

	_, _, err = sink.Retrieve(context.Background(), "absent.png")
	require.ErrorIs(t, err, models.ErrNotFound)
}
