package memory

import (
	"context"
	"sync"

	"github.com/asistencia-qr/server/internal/asistencia/store"
)

// ConfigStore is an in-memory system-config store for tests and dev.
type ConfigStore struct {
	mu    sync.RWMutex
	fence *store.GeofenceRecord
}

func NewConfigStore() *ConfigStore {
	return &ConfigStore{}
}

func (s *ConfigStore) GetGeofence(_ context.Context) (*store.GeofenceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fence == nil {
		return nil, nil
	}
	out := *s.fence
	return &out, nil
}

func (s *ConfigStore) SetGeofence(_ context.Context, rec store.GeofenceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fence = &rec
	return nil
}
