package memory

import (
	"context"
	"sync"
)

// ProfileStore is an in-memory employee-type store for tests and dev.
type ProfileStore struct {
	mu    sync.RWMutex
	types map[string]string
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{types: make(map[string]string)}
}

func (s *ProfileStore) GetEmployeeType(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.types[userID], nil
}

func (s *ProfileStore) SetEmployeeType(_ context.Context, userID, employeeType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types[userID] = employeeType
	return nil
}
