package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/asistencia-qr/server/internal/asistencia/geofence"
	"github.com/asistencia-qr/server/internal/asistencia/qrcode"
	"github.com/asistencia-qr/server/internal/asistencia/store"
	"github.com/asistencia-qr/server/internal/asistencia/timewindow"
	"github.com/asistencia-qr/server/internal/asistencia/types"
)

var (
	ErrInvalidUserID = errors.New("user_id is required")
	ErrInvalidCode   = errors.New("code is required")
)

// User-facing rejection messages.  Every kind maps to something
// actionable; raw store errors never reach the client.
const (
	msgDuplicate        = "You have already registered attendance today."
	msgNoQR             = "No QR code has been issued for today."
	msgExpired          = "The QR code has expired."
	msgInvalidQR        = "Invalid QR code."
	msgOutOfRange       = "You are outside the allowed area."
	msgPositionRequired = "Your location is required for onsite registration."
	msgPositionDenied   = "Location permission was denied. Enable it in your device settings."
	msgPositionUnavail  = "Your location could not be determined. Check your GPS and retry."
	msgPositionTimeout  = "Timed out waiting for your location. Retry in an open area."
	msgWindowBefore     = "The attendance window has not opened yet."
	msgWindowAfter      = "The attendance window has closed."
	msgGeneric          = "Something went wrong. Please try again."
)

// EngineDeps wires the stores and static configuration into an Engine.
type EngineDeps struct {
	QRStore    store.QRStore
	Attendance store.AttendanceStore
	Profiles   store.ProfileStore
	SysConfig  store.ConfigStore

	Window       timewindow.Window
	Location     *time.Location
	QRSecret     string
	DefaultFence geofence.Fence

	Logger *log.Logger

	// Now overrides the clock; nil means time.Now.  Tests pin it.
	Now func() time.Time
}

// Engine is the single authoritative gate deciding whether a scan
// attempt becomes an attendance record.  Checks run in a fixed order
// and short-circuit on the first rejection; the record is created only
// when every gate passes.
type Engine struct {
	qrStore    store.QRStore
	attendance store.AttendanceStore
	profiles   store.ProfileStore
	sysConfig  store.ConfigStore

	window       timewindow.Window
	loc          *time.Location
	secret       string
	defaultFence geofence.Fence

	logger *log.Logger
	now    func() time.Time
}

func NewEngine(d EngineDeps) *Engine {
	now := d.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{
		qrStore:      d.QRStore,
		attendance:   d.Attendance,
		profiles:     d.Profiles,
		sysConfig:    d.SysConfig,
		window:       d.Window,
		loc:          d.Location,
		secret:       d.QRSecret,
		defaultFence: d.DefaultFence,
		logger:       d.Logger,
		now:          now,
	}
}

// AttemptRegistration evaluates one scan attempt.  Expected rejections
// come back as a ScanResult with Accepted=false; an error is returned
// only for malformed input.  Store faults are logged and mapped to the
// generic rejection so the caller always has something displayable.
func (e *Engine) AttemptRegistration(ctx context.Context, attempt types.ScanAttempt) (types.ScanResult, error) {
	userID := strings.TrimSpace(attempt.UserID)
	code := strings.TrimSpace(attempt.Code)

	if userID == "" {
		return types.ScanResult{}, ErrInvalidUserID
	}
	if code == "" {
		return types.ScanResult{}, ErrInvalidCode
	}

	now := e.now().In(e.loc)
	today := now.Format("2006-01-02")

	// 1. Already registered?  Fast-path read; the commit below is the
	// authoritative enforcement under concurrency.
	registered, err := e.attendance.HasRecord(ctx, userID, today)
	if err != nil {
		return e.fault("has record", err), nil
	}
	if registered {
		return e.reject(today, types.KindDuplicate, msgDuplicate), nil
	}

	// 2. Time window, org-local wall clock.
	switch e.window.Evaluate(now) {
	case timewindow.Before:
		return e.reject(today, types.KindTimeWindow, msgWindowBefore), nil
	case timewindow.After:
		return e.reject(today, types.KindTimeWindow, msgWindowAfter), nil
	}

	// 3. Today's QR must exist and be unexpired.
	daily, err := e.qrStore.GetDailyQR(ctx, today)
	if err != nil {
		return e.fault("get daily qr", err), nil
	}
	if daily == nil {
		return e.reject(today, types.KindNoQR, msgNoQR), nil
	}
	if now.After(daily.ExpiresAt) {
		return e.reject(today, types.KindExpired, msgExpired), nil
	}

	// 4. Candidate must match the stored code.  Comparing against the
	// stored value (not a fresh derivation) is what makes regeneration
	// invalidate the previous code immediately.
	if !qrcode.Equal(code, daily.Code) {
		return e.reject(today, types.KindInvalidQR, msgInvalidQR), nil
	}

	// 5. Onsite employees must be inside the geofence.  Unset profiles
	// default to remote, which skips this gate.
	var distance *float64
	employeeType, err := e.profiles.GetEmployeeType(ctx, userID)
	if err != nil {
		return e.fault("get employee type", err), nil
	}
	if employeeType == string(types.EmployeeOnsite) {
		res, rejected := e.checkGeofence(ctx, attempt, today)
		if rejected {
			return res, nil
		}
		distance = res.DistanceMeters
	}

	// 6. Commit.  CreateIfAbsent closes the race between two concurrent
	// scans that both passed step 1: exactly one insert wins, the loser
	// is a duplicate, never a generic failure.
	rec := store.AttendanceRecord{
		UserID:    userID,
		Date:      today,
		Timestamp: now,
		QRCode:    code,
	}
	if err := e.attendance.CreateIfAbsent(ctx, rec); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return e.reject(today, types.KindDuplicate, msgDuplicate), nil
		}
		return e.fault("create attendance record", err), nil
	}

	scanDecisions.WithLabelValues("accepted").Inc()
	return types.ScanResult{
		Accepted:       true,
		Date:           today,
		Timestamp:      rec.Timestamp,
		DistanceMeters: distance,
	}, nil
}

// checkGeofence runs the conditional step 5.  The second return value
// is true when the attempt is rejected; otherwise the result only
// carries the measured distance.
func (e *Engine) checkGeofence(ctx context.Context, attempt types.ScanAttempt, today string) (types.ScanResult, bool) {
	// Position acquisition failures are distinct kinds on the client;
	// keep them distinguishable in the rejection message.
	if attempt.Position == nil {
		msg := msgPositionRequired
		switch attempt.PositionError {
		case types.PositionPermissionDenied:
			msg = msgPositionDenied
		case types.PositionUnavailable:
			msg = msgPositionUnavail
		case types.PositionTimeout:
			msg = msgPositionTimeout
		}
		return e.reject(today, types.KindOutOfRange, msg), true
	}

	fence, err := e.geofenceConfig(ctx)
	if err != nil {
		return e.fault("get geofence config", err), true
	}

	res := geofence.Check(attempt.Position.Point(), fence)
	if !res.Valid {
		out := e.reject(today, types.KindOutOfRange, msgOutOfRange)
		out.DistanceMeters = &res.DistanceMeters
		return out, true
	}

	return types.ScanResult{DistanceMeters: &res.DistanceMeters}, false
}

// geofenceConfig returns the admin-configured fence, falling back to
// the built-in default when none was ever set.
func (e *Engine) geofenceConfig(ctx context.Context) (geofence.Fence, error) {
	rec, err := e.sysConfig.GetGeofence(ctx)
	if err != nil {
		return geofence.Fence{}, err
	}
	if rec == nil {
		return e.defaultFence, nil
	}
	return geofence.Fence{Lat: rec.Lat, Lng: rec.Lng, RadiusMeters: rec.RadiusMeters}, nil
}

// RegistrationStatus reports whether the user could register right now
// and how far away the window boundary is.  It performs no writes.
func (e *Engine) RegistrationStatus(ctx context.Context, userID string) (types.RegistrationStatus, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return types.RegistrationStatus{}, ErrInvalidUserID
	}

	now := e.now().In(e.loc)
	today := now.Format("2006-01-02")

	registered, err := e.attendance.HasRecord(ctx, userID, today)
	if err != nil {
		return types.RegistrationStatus{}, err
	}

	status := e.window.Evaluate(now)
	return types.RegistrationStatus{
		Date:              today,
		AlreadyRegistered: registered,
		CanRegister:       !registered && status == timewindow.Active,
		WindowStatus:      string(status),
		Window:            e.window.String(),
		Boundary:          e.window.UntilBoundary(now),
	}, nil
}

func (e *Engine) reject(date string, kind types.RejectionKind, msg string) types.ScanResult {
	scanDecisions.WithLabelValues(string(kind)).Inc()
	return types.ScanResult{
		Accepted: false,
		Date:     date,
		Kind:     kind,
		Message:  msg,
	}
}

// fault maps an infrastructure failure to the generic rejection.  The
// underlying error is logged here; nothing store-specific escapes to
// the client.
func (e *Engine) fault(op string, err error) types.ScanResult {
	if e.logger != nil {
		e.logger.Printf("attendance: %s: %v", op, err)
	}
	scanDecisions.WithLabelValues(string(types.KindGeneric)).Inc()
	return types.ScanResult{
		Accepted: false,
		Kind:     types.KindGeneric,
		Message:  msgGeneric,
	}
}
