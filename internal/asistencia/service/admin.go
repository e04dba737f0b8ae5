package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/asistencia-qr/server/internal/asistencia/geofence"
	"github.com/asistencia-qr/server/internal/asistencia/store"
	"github.com/asistencia-qr/server/internal/asistencia/types"
)

var ErrInvalidEmployeeType = errors.New("employee_type must be onsite or remote")

// Admin wraps the administrator-only mutations: employee classification
// and the system geofence.  Both are read-mostly and hot-reloadable;
// the eligibility engine picks changes up on the next scan.
type Admin struct {
	profiles  store.ProfileStore
	sysConfig store.ConfigStore

	defaultFence geofence.Fence
}

func NewAdmin(ps store.ProfileStore, cs store.ConfigStore, defaultFence geofence.Fence) *Admin {
	return &Admin{profiles: ps, sysConfig: cs, defaultFence: defaultFence}
}

func (a *Admin) SetEmployeeType(ctx context.Context, userID string, et types.EmployeeType) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrInvalidUserID
	}
	if !et.Valid() {
		return ErrInvalidEmployeeType
	}
	return a.profiles.SetEmployeeType(ctx, userID, string(et))
}

// GeofenceStatus is the effective fence plus whether it came from the
// admin-configured record or the built-in default.
type GeofenceStatus struct {
	Fence      geofence.Fence `json:"fence"`
	Configured bool           `json:"configured"`
}

// Geofence returns the fence the engine would use right now.
func (a *Admin) Geofence(ctx context.Context) (GeofenceStatus, error) {
	rec, err := a.sysConfig.GetGeofence(ctx)
	if err != nil {
		return GeofenceStatus{}, fmt.Errorf("get geofence: %w", err)
	}
	if rec == nil {
		return GeofenceStatus{Fence: a.defaultFence, Configured: false}, nil
	}
	return GeofenceStatus{
		Fence:      geofence.Fence{Lat: rec.Lat, Lng: rec.Lng, RadiusMeters: rec.RadiusMeters},
		Configured: true,
	}, nil
}

func (a *Admin) SetGeofence(ctx context.Context, fence geofence.Fence) error {
	if fence.RadiusMeters <= 0 {
		return errors.New("radius_meters must be positive")
	}
	return a.sysConfig.SetGeofence(ctx, store.GeofenceRecord{
		Lat:          fence.Lat,
		Lng:          fence.Lng,
		RadiusMeters: fence.RadiusMeters,
		UpdatedAt:    time.Now().UTC(),
	})
}
