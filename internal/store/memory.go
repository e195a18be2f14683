package store

import (
	"context"
	"sync"

	"medibook-console/internal/model"
)

// Memory is a process-local store, used for ephemeral sessions.
type Memory struct {
	mu sync.Mutex
	u  *model.User
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Load(_ context.Context) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.u == nil {
		return nil, ErrNotFound
	}
	cp := *m.u
	return &cp, nil
}

func (m *Memory) Save(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.u = &cp
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.u = nil
	return nil
}

func (m *Memory) Close() error { return nil }
