package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type SeedDevOptions struct {
	// Optional: extra user ids to pre-create as onsite employees in dev.
	OnsiteUsers []string
}

// SeedDev inserts a small set of employee profiles so a fresh dev
// database has both branches of the geofence rule represented.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	now := time.Now().UTC().UnixMilli()

	seed := []struct {
		userID string
		etype  string
	}{
		{"dev-onsite", "onsite"},
		{"dev-remote", "remote"},
	}

	for _, s := range seed {
		if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO employee_profiles(user_id, employee_type, updated_at_ms)
VALUES (?, ?, ?);`, s.userID, s.etype, now); err != nil {
			return fmt.Errorf("seed profile %s: %w", s.userID, err)
		}
	}

	for _, uid := range opt.OnsiteUsers {
		if uid == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, `
INSERT INTO employee_profiles(user_id, employee_type, updated_at_ms)
VALUES (?, 'onsite', ?)
ON CONFLICT(user_id) DO UPDATE SET
  employee_type = 'onsite',
  updated_at_ms = excluded.updated_at_ms;
`, uid, now); err != nil {
			return fmt.Errorf("seed onsite profile %s: %w", uid, err)
		}
	}

	return nil
}
