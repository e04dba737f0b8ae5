package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/asistencia-qr/server/internal/db"

	"github.com/asistencia-qr/server/internal/asistencia/store"
)

type QRStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewQRStore(db *sql.DB, writer *dbpkg.Worker) *QRStore {
	return &QRStore{db: db, writer: writer}
}

func (s *QRStore) GetDailyQR(ctx context.Context, date string) (*store.DailyQRRecord, error) {
	var (
		rec       store.DailyQRRecord
		issuedMs  int64
		expiresMs int64
	)

	err := s.db.QueryRowContext(ctx, `
SELECT date, issue_id, code, issued_by, issued_at_ms, expires_at_ms
FROM daily_qr WHERE date = ?;
`, date).Scan(&rec.Date, &rec.IssueID, &rec.Code, &rec.IssuedBy, &issuedMs, &expiresMs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetDailyQR %s: %w", date, err)
	}

	rec.IssuedAt = time.UnixMilli(issuedMs).UTC()
	rec.ExpiresAt = time.UnixMilli(expiresMs).UTC()
	return &rec, nil
}

func (s *QRStore) PutDailyQR(ctx context.Context, rec store.DailyQRRecord) error {
	if rec.IssuedAt.IsZero() {
		rec.IssuedAt = time.Now().UTC()
	}

	issuedMs := rec.IssuedAt.UTC().UnixMilli()
	expiresMs := rec.ExpiresAt.UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		// Overwrite in place: the date is the natural key, so a
		// regeneration replaces the live code for that day.
		if _, err := tx.ExecContext(ctx, `
INSERT INTO daily_qr(date, issue_id, code, issued_by, issued_at_ms, expires_at_ms)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(date) DO UPDATE SET
  issue_id = excluded.issue_id,
  code = excluded.code,
  issued_by = excluded.issued_by,
  issued_at_ms = excluded.issued_at_ms,
  expires_at_ms = excluded.expires_at_ms;
`, rec.Date, rec.IssueID, rec.Code, rec.IssuedBy, issuedMs, expiresMs); err != nil {
			return fmt.Errorf("PutDailyQR upsert: %w", err)
		}
		return nil
	})
}

func (s *QRStore) PruneOlderThan(ctx context.Context, cutoffDate string) (int64, error) {
	var deleted int64

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM daily_qr WHERE date < ?;`, cutoffDate)
		if err != nil {
			return fmt.Errorf("PruneOlderThan delete: %w", err)
		}
		deleted, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("PruneOlderThan rows affected: %w", err)
		}
		return nil
	})

	return deleted, err
}
