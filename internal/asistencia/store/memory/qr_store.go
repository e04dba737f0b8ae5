package memory

import (
	"context"
	"sync"

	"github.com/asistencia-qr/server/internal/asistencia/store"
)

// QRStore is an in-memory daily-QR store for tests and dev.
type QRStore struct {
	mu   sync.RWMutex
	byDt map[string]store.DailyQRRecord
}

func NewQRStore() *QRStore {
	return &QRStore{byDt: make(map[string]store.DailyQRRecord)}
}

func (s *QRStore) GetDailyQR(_ context.Context, date string) (*store.DailyQRRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byDt[date]
	if !ok {
		return nil, nil
	}
	out := rec
	return &out, nil
}

func (s *QRStore) PutDailyQR(_ context.Context, rec store.DailyQRRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byDt[rec.Date] = rec
	return nil
}

func (s *QRStore) PruneOlderThan(_ context.Context, cutoffDate string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for date := range s.byDt {
		if date < cutoffDate {
			delete(s.byDt, date)
			n++
		}
	}
	return n, nil
}
