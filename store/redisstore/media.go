package redisstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"pulse/models"
	"pulse/store"
)

const (
	keyBlobPrefix = "media:blob:"
	keyMetaPrefix = "media:meta:"
)

// BlobSink keeps media bytes in Redis values keyed by generated ids,
// with the content type in a sibling key. The reference handed back is
// the id alone, so it stays opaque to callers.
type BlobSink struct {
	rdb *redis.Client
}

// NewBlobSink wires a sink over a connected Redis client.
func NewBlobSink(rdb *redis.Client) *BlobSink {
	return &BlobSink{rdb: rdb}
}

// Store writes the blob and its content type under a fresh uuid.
func (b *BlobSink) Store(ctx context.Context, data []byte, suggestedName string) (string, error) {
	ref := uuid.NewString()
	if err := b.rdb.Set(ctx, keyBlobPrefix+ref, data, 0).Err(); err != nil {
		return "", err
	}
	if err := b.rdb.Set(ctx, keyMetaPrefix+ref, store.ContentTypeFor(suggestedName), 0).Err(); err != nil {
		return "", err
	}
	return ref, nil
}

// Retrieve resolves a blob id back to bytes and content type.
func (b *BlobSink) Retrieve(ctx context.Context, ref string) ([]byte, string, error) {
	data, err := b.rdb.Get(ctx, keyBlobPrefix+ref).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, "", models.ErrNotFound
		}
		return nil, "", err
	}
	ct, err := b.rdb.Get(ctx, keyMetaPrefix+ref).Result()
	if err != nil {
		ct = "application/octet-stream"
	}
	return data, ct, nil
}
