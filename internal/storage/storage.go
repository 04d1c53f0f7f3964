// Package storage keeps durable JSON snapshots of client state under fixed keys.
// Snapshots are warm-start hints; callers must tolerate ErrNotFound and stale data.
package storage

import (
	"context"
	"sync"
)

type Storage interface {
	// Load decodes the value stored under key into v.
	Load(ctx context.Context, key string, v any) error
	Save(ctx context.Context, key string, v any) error
	// Delete removes key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Memory is an in-process Storage, used by tests and ephemeral clients.
type Memory struct {
	mu    sync.Mutex
	items map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, key string, v any) error {
	m.mu.Lock()
	b, ok := m.items[key]
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	return decode(key, b, v)
}

func (m *Memory) Save(_ context.Context, key string, v any) error {
	b, err := encode(key, v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.items[key] = b
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Raw returns the encoded bytes under key, for inspection in tests.
func (m *Memory) Raw(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.items[key]
	return b, ok
}

// Put stores already-encoded bytes under key.
func (m *Memory) Put(key string, b []byte) {
	m.mu.Lock()
	m.items[key] = b
	m.mu.Unlock()
}
