// Package kv persists the order draft, history log and preferences as JSON
// documents under fixed keys of a key-value backend.
package kv

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned by Backend.Get for missing keys.
var ErrNotFound = errors.New("key not found")

// Backend is a minimal byte-oriented key-value store.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Update atomically replaces the value under key with the result of fn.
	// fn receives nil when the key is absent and may be called more than once
	// if the backend retries on conflict.
	Update(ctx context.Context, key string, fn func(old []byte) ([]byte, error)) error
	Ping(ctx context.Context) error
}

// Memory is an in-process Backend. State is lost on restart.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

var _ Backend = (*Memory)(nil)

// NewMemory creates an empty Memory backend.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

func (m *Memory) Update(_ context.Context, key string, fn func(old []byte) ([]byte, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var old []byte
	if v, ok := m.data[key]; ok {
		old = append([]byte(nil), v...)
	}
	next, err := fn(old)
	if err != nil {
		return err
	}
	m.data[key] = next
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }
