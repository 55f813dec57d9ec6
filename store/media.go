package store

import (
	"context"
	"path/filepath"
	"strings"

	"pulse/models"
)

// MediaPolicy decides what happens to uploads whose extension is not
// in the allow-list.
type MediaPolicy string

const (
	// MediaPolicyReject refuses unknown extensions with
	// models.ErrUnsupportedMediaType.
	MediaPolicyReject MediaPolicy = "reject"
	// MediaPolicyStoreUntyped stores the bytes anyway and leaves the
	// media kind empty, matching the legacy flat-file behavior.
	MediaPolicyStoreUntyped MediaPolicy = "store-untyped"
)

// MediaUpload carries an uploaded file into a ContentStore.
type MediaUpload struct {
	Filename string
	Data     []byte
}

var extKinds = map[string]string{
	".png":  models.MediaImage,
	".jpg":  models.MediaImage,
	".jpeg": models.MediaImage,
	".gif":  models.MediaImage,
	".mp4":  models.MediaVideo,
	".mov":  models.MediaVideo,
	".avi":  models.MediaVideo,
}

var extContentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
}

// MediaKind maps a filename onto "image", "video" or "" via the
// extension allow-list.
func MediaKind(filename string) string {
	return extKinds[strings.ToLower(filepath.Ext(filename))]
}

// ContentTypeFor returns the MIME type for a stored media name,
// falling back to application/octet-stream for untyped uploads.
func ContentTypeFor(filename string) string {
	if ct, ok := extContentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// SaveMedia applies the policy to an upload and, when accepted, hands
// the bytes to the sink. It returns the media reference and kind to
// store with the post. Every ContentStore implementation funnels
// uploads through here so the policy is enforced uniformly.
func SaveMedia(ctx context.Context, sink MediaSink, upload *MediaUpload, policy MediaPolicy) (ref, kind string, err error) {
	if upload == nil || len(upload.Data) == 0 {
		return "", "", nil
	}
	kind = MediaKind(upload.Filename)
	if kind == "" && policy != MediaPolicyStoreUntyped {
		return "", "", models.ErrUnsupportedMediaType
	}
	ref, err = sink.Store(ctx, upload.Data, upload.Filename)
	if err != nil {
		return "", "", err
	}
	return ref, kind, nil
}
