package storage

import (
	"context"
	"sync"

	"github.com/awantoch/portflow/model"
	"github.com/google/uuid"
)

// MemoryStorage implements Storage in-memory (for fallback/dev mode)
type MemoryStorage struct {
	mu          sync.Mutex
	invocations map[uuid.UUID]*model.Invocation
}

var _ Storage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{invocations: make(map[uuid.UUID]*model.Invocation)}
}

func (m *MemoryStorage) SaveInvocation(ctx context.Context, inv *model.Invocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *inv
	m.invocations[inv.ID] = &cp
	return nil
}

func (m *MemoryStorage) GetInvocation(ctx context.Context, id uuid.UUID) (*model.Invocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invocations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (m *MemoryStorage) ListInvocations(ctx context.Context, filter ListFilter) ([]*model.Invocation, error) {
	m.mu.Lock()
	out := make([]*model.Invocation, 0, len(m.invocations))
	for _, inv := range m.invocations {
		if filter.RunID != uuid.Nil && inv.RunID != filter.RunID {
			continue
		}
		if filter.Operation != "" && inv.Operation != filter.Operation {
			continue
		}
		cp := *inv
		out = append(out, &cp)
	}
	m.mu.Unlock()

	sortInvocations(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MemoryStorage) DeleteInvocation(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invocations[id]; !ok {
		return ErrNotFound
	}
	delete(m.invocations, id)
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
