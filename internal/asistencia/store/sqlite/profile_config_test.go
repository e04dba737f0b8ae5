package sqlite_test

import (
	"context"
	"testing"

	"github.com/asistencia-qr/server/internal/asistencia/store"
	"github.com/asistencia-qr/server/internal/asistencia/store/sqlite"
)

func TestEmployeeType_UnsetIsEmpty(t *testing.T) {
	conn := openTestDB(t)
	s := sqlite.NewProfileStore(conn, newTestWriter(t, conn))

	et, err := s.GetEmployeeType(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetEmployeeType: %v", err)
	}
	if et != "" {
		t.Errorf("expected empty type for unset profile, got %q", et)
	}
}

func TestEmployeeType_SetAndUpdate(t *testing.T) {
	conn := openTestDB(t)
	s := sqlite.NewProfileStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	if err := s.SetEmployeeType(ctx, "u1", "onsite"); err != nil {
		t.Fatalf("SetEmployeeType: %v", err)
	}
	et, err := s.GetEmployeeType(ctx, "u1")
	if err != nil {
		t.Fatalf("GetEmployeeType: %v", err)
	}
	if et != "onsite" {
		t.Errorf("expected onsite, got %q", et)
	}

	if err := s.SetEmployeeType(ctx, "u1", "remote"); err != nil {
		t.Fatalf("update: %v", err)
	}
	et, err = s.GetEmployeeType(ctx, "u1")
	if err != nil {
		t.Fatalf("GetEmployeeType after update: %v", err)
	}
	if et != "remote" {
		t.Errorf("expected remote after update, got %q", et)
	}
}

func TestGeofence_UnsetIsNil(t *testing.T) {
	conn := openTestDB(t)
	s := sqlite.NewConfigStore(conn, newTestWriter(t, conn))

	fence, err := s.GetGeofence(context.Background())
	if err != nil {
		t.Fatalf("GetGeofence: %v", err)
	}
	if fence != nil {
		t.Errorf("expected nil for unset config, got %+v", fence)
	}
}

func TestGeofence_SetAndOverwrite(t *testing.T) {
	conn := openTestDB(t)
	s := sqlite.NewConfigStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	if err := s.SetGeofence(ctx, store.GeofenceRecord{Lat: -0.1807, Lng: -78.4678, RadiusMeters: 100}); err != nil {
		t.Fatalf("SetGeofence: %v", err)
	}
	fence, err := s.GetGeofence(ctx)
	if err != nil {
		t.Fatalf("GetGeofence: %v", err)
	}
	if fence == nil || fence.RadiusMeters != 100 {
		t.Fatalf("expected radius 100, got %+v", fence)
	}

	if err := s.SetGeofence(ctx, store.GeofenceRecord{Lat: -0.18, Lng: -78.46, RadiusMeters: 250}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	fence, err = s.GetGeofence(ctx)
	if err != nil {
		t.Fatalf("GetGeofence after overwrite: %v", err)
	}
	if fence.RadiusMeters != 250 {
		t.Errorf("expected radius 250 after overwrite, got %f", fence.RadiusMeters)
	}

	// Singleton: exactly one row regardless of how many writes.
	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM system_config;`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected singleton row, got %d", n)
	}
}
