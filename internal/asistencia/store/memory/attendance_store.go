package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/asistencia-qr/server/internal/asistencia/store"
)

type attendanceKey struct {
	userID string
	date   string
}

// AttendanceStore is an in-memory registration store for tests and dev.
// CreateIfAbsent is atomic under the store mutex, matching the
// conditional-write semantics of the sqlite implementation.
type AttendanceStore struct {
	mu   sync.Mutex
	recs map[attendanceKey]store.AttendanceRecord
}

func NewAttendanceStore() *AttendanceStore {
	return &AttendanceStore{recs: make(map[attendanceKey]store.AttendanceRecord)}
}

func (s *AttendanceStore) HasRecord(_ context.Context, userID, date string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.recs[attendanceKey{userID, date}]
	return ok, nil
}

func (s *AttendanceStore) CreateIfAbsent(_ context.Context, rec store.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := attendanceKey{rec.UserID, rec.Date}
	if _, ok := s.recs[k]; ok {
		return store.ErrDuplicate
	}
	s.recs[k] = rec
	return nil
}

func (s *AttendanceStore) ListByUser(_ context.Context, userID, fromDate, toDate string) ([]store.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []store.AttendanceRecord
	for k, rec := range s.recs {
		if k.userID == userID && k.date >= fromDate && k.date <= toDate {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (s *AttendanceStore) ListByDate(_ context.Context, date string) ([]store.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []store.AttendanceRecord
	for k, rec := range s.recs {
		if k.date == date {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}
