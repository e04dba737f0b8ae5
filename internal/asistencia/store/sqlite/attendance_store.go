package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/asistencia-qr/server/internal/db"

	"github.com/asistencia-qr/server/internal/asistencia/store"
)

type AttendanceStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAttendanceStore(db *sql.DB, writer *dbpkg.Worker) *AttendanceStore {
	return &AttendanceStore{db: db, writer: writer}
}

func (s *AttendanceStore) HasRecord(ctx context.Context, userID, date string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
SELECT 1 FROM attendance WHERE user_id = ? AND date = ?;
`, userID, date).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("HasRecord %s/%s: %w", userID, date, err)
	}
	return true, nil
}

// CreateIfAbsent inserts with OR IGNORE and checks the affected row
// count inside the write transaction.  Zero rows means the composite
// primary key already existed, which is exactly the lost-race signal
// the one-per-day invariant needs.
func (s *AttendanceStore) CreateIfAbsent(ctx context.Context, rec store.AttendanceRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	tsMs := rec.Timestamp.UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO attendance(user_id, date, timestamp_ms, qr_code)
VALUES (?, ?, ?, ?);
`, rec.UserID, rec.Date, tsMs, rec.QRCode)
		if err != nil {
			return fmt.Errorf("CreateIfAbsent insert: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("CreateIfAbsent rows affected: %w", err)
		}
		if n == 0 {
			return store.ErrDuplicate
		}
		return nil
	})
}

func (s *AttendanceStore) ListByUser(ctx context.Context, userID, fromDate, toDate string) ([]store.AttendanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT user_id, date, timestamp_ms, qr_code
FROM attendance
WHERE user_id = ? AND date >= ? AND date <= ?
ORDER BY date DESC;
`, userID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("ListByUser query: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (s *AttendanceStore) ListByDate(ctx context.Context, date string) ([]store.AttendanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT user_id, date, timestamp_ms, qr_code
FROM attendance
WHERE date = ?
ORDER BY timestamp_ms ASC;
`, date)
	if err != nil {
		return nil, fmt.Errorf("ListByDate query: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]store.AttendanceRecord, error) {
	var out []store.AttendanceRecord
	for rows.Next() {
		var (
			rec  store.AttendanceRecord
			tsMs int64
		)
		if err := rows.Scan(&rec.UserID, &rec.Date, &tsMs, &rec.QRCode); err != nil {
			return nil, fmt.Errorf("scan attendance row: %w", err)
		}
		rec.Timestamp = time.UnixMilli(tsMs).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance rows: %w", err)
	}
	return out, nil
}
