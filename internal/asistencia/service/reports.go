package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/asistencia-qr/server/internal/asistencia/store"
)

// Reports serves the admin and per-user attendance queries.  Read-only.
type Reports struct {
	attendance store.AttendanceStore
}

func NewReports(as store.AttendanceStore) *Reports {
	return &Reports{attendance: as}
}

// Daily returns every record for one date, ordered by registration time.
func (r *Reports) Daily(ctx context.Context, date string) ([]store.AttendanceRecord, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return r.attendance.ListByDate(ctx, date)
}

// UserRange returns one user's records between two dates, inclusive,
// newest first.
func (r *Reports) UserRange(ctx context.Context, userID, fromDate, toDate string) ([]store.AttendanceRecord, error) {
	for _, d := range []string{fromDate, toDate} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", d, err)
		}
	}
	if fromDate > toDate {
		return nil, fmt.Errorf("invalid range: %s after %s", fromDate, toDate)
	}
	return r.attendance.ListByUser(ctx, userID, fromDate, toDate)
}

// MonthlyDates returns the dates a user attended within one calendar
// month, for the calendar view.
func (r *Reports) MonthlyDates(ctx context.Context, userID string, year int, month time.Month) ([]string, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	recs, err := r.attendance.ListByUser(ctx, userID,
		first.Format("2006-01-02"), last.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}

	dates := make([]string, 0, len(recs))
	for _, rec := range recs {
		dates = append(dates, rec.Date)
	}
	return dates, nil
}

// AttendancePercentage computes attendance as a rounded 0-100 integer.
// Zero total days is defined as 0, not a division error.
func AttendancePercentage(attendedDays, totalDays int) int {
	if totalDays == 0 {
		return 0
	}
	return int(math.Round(float64(attendedDays) / float64(totalDays) * 100))
}
