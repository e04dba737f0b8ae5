package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/asistencia-qr/server/internal/db"

	"github.com/asistencia-qr/server/internal/asistencia/store"
)

type ConfigStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewConfigStore(db *sql.DB, writer *dbpkg.Worker) *ConfigStore {
	return &ConfigStore{db: db, writer: writer}
}

func (s *ConfigStore) GetGeofence(ctx context.Context) (*store.GeofenceRecord, error) {
	var (
		rec   store.GeofenceRecord
		updMs int64
	)

	err := s.db.QueryRowContext(ctx, `
SELECT lat, lng, radius_m, updated_at_ms FROM system_config WHERE id = 'main';
`).Scan(&rec.Lat, &rec.Lng, &rec.RadiusMeters, &updMs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetGeofence: %w", err)
	}

	rec.UpdatedAt = time.UnixMilli(updMs).UTC()
	return &rec, nil
}

func (s *ConfigStore) SetGeofence(ctx context.Context, rec store.GeofenceRecord) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	updMs := rec.UpdatedAt.UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO system_config(id, lat, lng, radius_m, updated_at_ms)
VALUES ('main', ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  lat = excluded.lat,
  lng = excluded.lng,
  radius_m = excluded.radius_m,
  updated_at_ms = excluded.updated_at_ms;
`, rec.Lat, rec.Lng, rec.RadiusMeters, updMs); err != nil {
			return fmt.Errorf("SetGeofence upsert: %w", err)
		}
		return nil
	})
}
