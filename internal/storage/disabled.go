package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotConfigured is the cause carried by every Disabled store failure.
var ErrNotConfigured = errors.New("object storage not configured")

// Disabled is the ObjectStore used when storage settings are absent. Every
// operation fails with ClassNotConfigured, which the upload pipeline turns
// into observable degraded mode instead of a hard request failure.
type Disabled struct{}

// NewDisabled returns the not-configured store.
func NewDisabled() *Disabled { return &Disabled{} }

func (d *Disabled) Put(ctx context.Context, key string, data []byte, contentType string) (Asset, error) {
	return Asset{}, &Error{Op: "put", Key: key, Class: ClassNotConfigured, Err: ErrNotConfigured}
}

// Delete stays idempotent even when nothing is stored anywhere.
func (d *Disabled) Delete(ctx context.Context, key string) error {
	return nil
}

func (d *Disabled) Presign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "", &Error{Op: "presign", Key: key, Class: ClassNotConfigured, Err: ErrNotConfigured}
}

func (d *Disabled) PublicURL(key string) string { return "" }

var _ ObjectStore = (*Disabled)(nil)
