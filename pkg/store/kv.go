package store

import (
	"context"
	"sync"
)

// KV is a flat string key-value store.
type KV interface {
	Load(ctx context.Context, key string) (value string, ok bool, err error)
	Save(ctx context.Context, key, value string) (err error)
	Delete(ctx context.Context, key string) (err error)
}

// MemoryKV keeps values in process memory.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() (kv *MemoryKV) {
	kv = &MemoryKV{
		values: make(map[string]string),
	}
	return kv
}

// Load returns the value stored under key.
func (m *MemoryKV) Load(_ context.Context, key string) (value string, ok bool, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok = m.values[key]
	return value, ok, err
}

// Save stores value under key.
func (m *MemoryKV) Save(_ context.Context, key, value string) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return err
}

// Delete removes key.
func (m *MemoryKV) Delete(_ context.Context, key string) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return err
}
