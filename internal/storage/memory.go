package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Memory is an in-process ObjectStore for tests and local development.
// It mimics the real store's semantics (idempotent delete, presign query)
// without any network.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
	base    string
}

// NewMemory constructs a Memory store with the given public base URL.
func NewMemory(base string) *Memory {
	return &Memory{objects: make(map[string][]byte), base: base}
}

func (m *Memory) Put(ctx context.Context, key string, data []byte, contentType string) (Asset, error) {
	if len(data) == 0 {
		return Asset{}, &Error{Op: "put", Key: key, Class: ClassUnknown, Err: fmt.Errorf("empty payload")}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	return Asset{Key: key, URL: m.PublicURL(key), Size: int64(len(data))}, nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *Memory) Presign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return "", &Error{Op: "presign", Key: key, Class: ClassNotFound, Err: fmt.Errorf("no such key")}
	}
	return fmt.Sprintf("%s/%s?expires=%d", m.base, key, time.Now().Add(ttl).Unix()), nil
}

func (m *Memory) PublicURL(key string) string {
	return m.base + "/" + key
}

// Bytes returns the stored payload for assertions.
func (m *Memory) Bytes(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	return append([]byte(nil), data...), ok
}

// Len reports how many objects are currently stored.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

var _ ObjectStore = (*Memory)(nil)
