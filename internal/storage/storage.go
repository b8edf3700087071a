// Package storage wraps the remote object store behind a narrow interface.
// Swap implementations by changing the concrete type injected at startup —
// the MinIO implementation works with any S3-compatible provider (MinIO, AWS S3).
package storage

import (
	"context"
	"time"
)

// Asset is the durable result of a successful Put: the store key, the
// resolvable URL, and the stored byte size.
type Asset struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// ObjectStore is the interface the upload pipeline depends on.
type ObjectStore interface {
	// Put uploads data under key. Implementations own their retry policy;
	// the caller sees only the final outcome.
	Put(ctx context.Context, key string, data []byte, contentType string) (Asset, error)
	// Delete removes the object at key. Idempotent: deleting an absent key
	// is not an error.
	Delete(ctx context.Context, key string) error
	// Presign produces a time-limited direct-access URL for key.
	Presign(ctx context.Context, key string, ttl time.Duration) (string, error)
	// PublicURL constructs the browser-accessible URL for a given key.
	PublicURL(key string) string
}
