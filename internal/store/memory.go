package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ashureev/productlens/internal/domain"
	"github.com/google/uuid"
)

// MemoryStore implements Repository with an in-process map.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	now      func() time.Time
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*domain.Session),
		now:      time.Now,
	}
}

// Get retrieves a session by id.
func (m *MemoryStore) Get(_ context.Context, id string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id].Clone(), nil
}

// ListByOwner returns sessions newest first.
func (m *MemoryStore) ListByOwner(_ context.Context, owner string) ([]*domain.Session, error) {
	m.mu.RLock()
	out := make([]*domain.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if owner == "" || s.OwnerID == owner {
			out = append(out, s.Clone())
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Create stores a new pending session.
func (m *MemoryStore) Create(_ context.Context, input domain.CreateSessionInput) (*domain.Session, error) {
	s := newSession(uuid.NewString(), input, m.now())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return s.Clone(), nil
}

// Update merges update into the stored session.
func (m *MemoryStore) Update(_ context.Context, id string, update domain.SessionUpdate) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	next := s.Clone()
	update.Apply(next, m.now())
	m.sessions[id] = next
	return next.Clone(), nil
}

// Delete removes a session.
func (m *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false, nil
	}
	delete(m.sessions, id)
	return true, nil
}

// ListStale returns sessions in status last updated before cutoff.
func (m *MemoryStore) ListStale(_ context.Context, status domain.Status, cutoff time.Time) ([]*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*domain.Session
	for _, s := range m.sessions {
		if s.Status == status && s.UpdatedAt.Before(cutoff) {
			out = append(out, s.Clone())
		}
	}
	return out, nil
}

// Ping always succeeds for the in-memory store.
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

var _ Repository = (*MemoryStore)(nil)
