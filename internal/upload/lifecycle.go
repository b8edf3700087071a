package upload

import (
	"context"
	"log"

	"github.com/comichub/service/internal/storage"
)

// Lifecycle removes orphaned assets after their owning reference has been
// replaced or the owning entity deleted. Deletion is a cleanup concern, not a
// consistency concern: the entity record is the single source of truth, a
// dangling unreferenced object is a cheap recoverable leak, and a dangling
// reference to a deleted object is a user-visible bug. Deletes therefore
// always follow the repoint, and their failures never surface to the caller.
type Lifecycle struct {
	store storage.ObjectStore
}

// NewLifecycle creates a Lifecycle backed by the given store.
func NewLifecycle(store storage.ObjectStore) *Lifecycle {
	return &Lifecycle{store: store}
}

// Replace deletes the keys an entity referenced before its record was
// repointed at new assets. Call strictly after the new reference is durably
// written. Best-effort: failures are logged and swallowed.
func (l *Lifecycle) Replace(ctx context.Context, previousKeys []string) {
	l.deleteAll(ctx, previousKeys)
}

// Release deletes the keys of an entity that has itself been removed, or of
// stored assets whose batch failed its commit before ever being referenced.
// Best-effort: failures are logged and swallowed.
func (l *Lifecycle) Release(ctx context.Context, keys []string) {
	l.deleteAll(ctx, keys)
}

func (l *Lifecycle) deleteAll(ctx context.Context, keys []string) {
	// Detached from request cancellation: an aborted response must not leave
	// known-orphaned objects behind when the store is still reachable.
	ctx = context.WithoutCancel(ctx)
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := l.store.Delete(ctx, key); err != nil {
			log.Printf("lifecycle: delete %q failed (orphan left in store): %v", key, err)
		}
	}
}
