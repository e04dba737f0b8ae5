package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/asistencia-qr/server/internal/asistencia/service"
	"github.com/asistencia-qr/server/internal/asistencia/store"
	"github.com/asistencia-qr/server/internal/asistencia/store/memory"
)

func seedAttendance(t *testing.T, as *memory.AttendanceStore, userID, date string, hour int) {
	t.Helper()

	err := as.CreateIfAbsent(context.Background(), store.AttendanceRecord{
		UserID:    userID,
		Date:      date,
		Timestamp: time.Date(2024, 3, 1, hour, 0, 0, 0, orgTZ),
		QRCode:    "abc123def456",
	})
	if err != nil {
		t.Fatalf("seed %s/%s: %v", userID, date, err)
	}
}

func TestReportsDaily(t *testing.T) {
	as := memory.NewAttendanceStore()
	r := service.NewReports(as)
	ctx := context.Background()

	seedAttendance(t, as, "u2", "2024-03-01", 9)
	seedAttendance(t, as, "u1", "2024-03-01", 7)
	seedAttendance(t, as, "u3", "2024-03-02", 8)

	recs, err := r.Daily(ctx, "2024-03-01")
	if err != nil {
		t.Fatalf("Daily: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].UserID != "u1" || recs[1].UserID != "u2" {
		t.Errorf("expected registration-time order, got %s then %s", recs[0].UserID, recs[1].UserID)
	}

	if _, err := r.Daily(ctx, "not-a-date"); err == nil {
		t.Error("expected an error for a malformed date")
	}
}

func TestReportsUserRange(t *testing.T) {
	as := memory.NewAttendanceStore()
	r := service.NewReports(as)
	ctx := context.Background()

	seedAttendance(t, as, "u1", "2024-03-01", 8)
	seedAttendance(t, as, "u1", "2024-03-04", 8)
	seedAttendance(t, as, "u1", "2024-03-10", 8)
	seedAttendance(t, as, "u2", "2024-03-04", 8)

	recs, err := r.UserRange(ctx, "u1", "2024-03-01", "2024-03-05")
	if err != nil {
		t.Fatalf("UserRange: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records in range, got %d", len(recs))
	}
	if recs[0].Date != "2024-03-04" || recs[1].Date != "2024-03-01" {
		t.Errorf("expected newest first, got %s then %s", recs[0].Date, recs[1].Date)
	}

	if _, err := r.UserRange(ctx, "u1", "2024-03-05", "2024-03-01"); err == nil {
		t.Error("expected an error for an inverted range")
	}
	if _, err := r.UserRange(ctx, "u1", "03/01/2024", "2024-03-05"); err == nil {
		t.Error("expected an error for a malformed date")
	}
}

func TestReportsMonthlyDates(t *testing.T) {
	as := memory.NewAttendanceStore()
	r := service.NewReports(as)
	ctx := context.Background()

	seedAttendance(t, as, "u1", "2024-02-29", 8)
	seedAttendance(t, as, "u1", "2024-03-01", 8)
	seedAttendance(t, as, "u1", "2024-03-31", 8)
	seedAttendance(t, as, "u1", "2024-04-01", 8)

	dates, err := r.MonthlyDates(ctx, "u1", 2024, time.March)
	if err != nil {
		t.Fatalf("MonthlyDates: %v", err)
	}
	if len(dates) != 2 {
		t.Fatalf("expected 2 dates in March, got %v", dates)
	}
	for _, d := range dates {
		if d != "2024-03-01" && d != "2024-03-31" {
			t.Errorf("unexpected date %s", d)
		}
	}
}

func TestAttendancePercentage(t *testing.T) {
	cases := []struct {
		attended, total, want int
	}{
		{0, 0, 0},
		{0, 20, 0},
		{20, 20, 100},
		{1, 3, 33},
		{2, 3, 67},
		{19, 20, 95},
	}
	for _, tc := range cases {
		if got := service.AttendancePercentage(tc.attended, tc.total); got != tc.want {
			t.Errorf("AttendancePercentage(%d, %d) = %d, want %d", tc.attended, tc.total, got, tc.want)
		}
	}
}
