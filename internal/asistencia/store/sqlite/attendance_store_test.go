package sqlite_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/asistencia-qr/server/internal/asistencia/store"
	"github.com/asistencia-qr/server/internal/asistencia/store/sqlite"
)

func TestCreateIfAbsent_FirstInsertSucceeds(t *testing.T) {
	conn := openTestDB(t)
	s := sqlite.NewAttendanceStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	rec := store.AttendanceRecord{
		UserID:    "u1",
		Date:      "2024-03-01",
		Timestamp: time.Now().UTC(),
		QRCode:    "abc123def456",
	}
	if err := s.CreateIfAbsent(ctx, rec); err != nil {
		t.Fatalf("CreateIfAbsent: %v", err)
	}

	has, err := s.HasRecord(ctx, "u1", "2024-03-01")
	if err != nil {
		t.Fatalf("HasRecord: %v", err)
	}
	if !has {
		t.Error("expected record to exist after insert")
	}
}

func TestCreateIfAbsent_SecondInsertIsDuplicate(t *testing.T) {
	conn := openTestDB(t)
	s := sqlite.NewAttendanceStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	rec := store.AttendanceRecord{UserID: "u1", Date: "2024-03-01", QRCode: "abc123def456"}
	if err := s.CreateIfAbsent(ctx, rec); err != nil {
		t.Fatalf("first CreateIfAbsent: %v", err)
	}

	err := s.CreateIfAbsent(ctx, rec)
	if !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestCreateIfAbsent_ConcurrentRace_OneWinner(t *testing.T) {
	conn := openTestDB(t)
	s := sqlite.NewAttendanceStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	rec := store.AttendanceRecord{UserID: "u1", Date: "2024-03-01", QRCode: "abc123def456"}

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.CreateIfAbsent(ctx, rec)
		}(i)
	}
	wg.Wait()

	var wins, dups int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, store.ErrDuplicate):
			dups++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("expected exactly 1 winner, got %d", wins)
	}
	if dups != attempts-1 {
		t.Errorf("expected %d duplicates, got %d", attempts-1, dups)
	}
}

func TestCreateIfAbsent_DifferentDaysIndependent(t *testing.T) {
	conn := openTestDB(t)
	s := sqlite.NewAttendanceStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	if err := s.CreateIfAbsent(ctx, store.AttendanceRecord{UserID: "u1", Date: "2024-03-01", QRCode: "a"}); err != nil {
		t.Fatalf("day 1: %v", err)
	}
	if err := s.CreateIfAbsent(ctx, store.AttendanceRecord{UserID: "u1", Date: "2024-03-02", QRCode: "b"}); err != nil {
		t.Fatalf("day 2: %v", err)
	}
}

func TestListByUser_RangeAndOrder(t *testing.T) {
	conn := openTestDB(t)
	s := sqlite.NewAttendanceStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	for _, date := range []string{"2024-03-01", "2024-03-05", "2024-03-10", "2024-04-01"} {
		if err := s.CreateIfAbsent(ctx, store.AttendanceRecord{UserID: "u1", Date: date, QRCode: "c"}); err != nil {
			t.Fatalf("insert %s: %v", date, err)
		}
	}
	// Another user inside the range must not leak in.
	if err := s.CreateIfAbsent(ctx, store.AttendanceRecord{UserID: "u2", Date: "2024-03-05", QRCode: "c"}); err != nil {
		t.Fatalf("insert u2: %v", err)
	}

	recs, err := s.ListByUser(ctx, "u1", "2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	// Newest date first.
	want := []string{"2024-03-10", "2024-03-05", "2024-03-01"}
	for i, rec := range recs {
		if rec.Date != want[i] {
			t.Errorf("record %d: expected date %s, got %s", i, want[i], rec.Date)
		}
	}
}

func TestListByDate_OrderedByTimestamp(t *testing.T) {
	conn := openTestDB(t)
	s := sqlite.NewAttendanceStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	inserts := []store.AttendanceRecord{
		{UserID: "u2", Date: "2024-03-01", Timestamp: base.Add(2 * time.Minute), QRCode: "c"},
		{UserID: "u1", Date: "2024-03-01", Timestamp: base, QRCode: "c"},
		{UserID: "u3", Date: "2024-03-01", Timestamp: base.Add(5 * time.Minute), QRCode: "c"},
	}
	for _, rec := range inserts {
		if err := s.CreateIfAbsent(ctx, rec); err != nil {
			t.Fatalf("insert %s: %v", rec.UserID, err)
		}
	}

	recs, err := s.ListByDate(ctx, "2024-03-01")
	if err != nil {
		t.Fatalf("ListByDate: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	want := []string{"u1", "u2", "u3"}
	for i, rec := range recs {
		if rec.UserID != want[i] {
			t.Errorf("record %d: expected user %s, got %s", i, want[i], rec.UserID)
		}
	}
}
