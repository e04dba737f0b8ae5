package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/asistencia-qr/server/internal/db"
)

type ProfileStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewProfileStore(db *sql.DB, writer *dbpkg.Worker) *ProfileStore {
	return &ProfileStore{db: db, writer: writer}
}

func (s *ProfileStore) GetEmployeeType(ctx context.Context, userID string) (string, error) {
	var et string
	err := s.db.QueryRowContext(ctx, `
SELECT employee_type FROM employee_profiles WHERE user_id = ?;
`, userID).Scan(&et)
	if err == sql.ErrNoRows {
		// Unset: callers treat "" as remote.
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("GetEmployeeType %s: %w", userID, err)
	}
	return et, nil
}

func (s *ProfileStore) SetEmployeeType(ctx context.Context, userID, employeeType string) error {
	nowMs := time.Now().UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO employee_profiles(user_id, employee_type, updated_at_ms)
VALUES (?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
  employee_type = excluded.employee_type,
  updated_at_ms = excluded.updated_at_ms;
`, userID, employeeType, nowMs); err != nil {
			return fmt.Errorf("SetEmployeeType %s: %w", userID, err)
		}
		return nil
	})
}
