package session

import (
	"context"
	"sync"

	"github.com/jutorials/backend/internal/models"
)

// MemoryStore is an in-memory Store used by tests. No TTL; tests drive
// expiry by deleting sessions explicitly.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64]*models.WithdrawalSession
}

// NewMemoryStore creates an empty in-memory session store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]*models.WithdrawalSession)}
}

func (s *MemoryStore) Get(_ context.Context, userID int64) (*models.WithdrawalSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	cp := *session
	return &cp, nil
}

func (s *MemoryStore) Put(_ context.Context, session *models.WithdrawalSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *session
	s.sessions[session.UserID] = &cp
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
	return nil
}
