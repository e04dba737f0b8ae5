package types

import (
	"time"

	"github.com/asistencia-qr/server/internal/asistencia/timewindow"
)

// EmployeeType classifies whether a user must pass the geofence check.
type EmployeeType string

const (
	EmployeeOnsite EmployeeType = "onsite"
	EmployeeRemote EmployeeType = "remote"
)

// Valid reports whether t is one of the two known classifications.
func (t EmployeeType) Valid() bool {
	return t == EmployeeOnsite || t == EmployeeRemote
}

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Position is a device-reported GPS fix.
type Position struct {
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	AccuracyMeters float64 `json:"accuracy,omitempty"`
}

func (p Position) Point() GeoPoint {
	return GeoPoint{Lat: p.Lat, Lng: p.Lng}
}

// PositionErrorKind identifies why the client could not supply a
// position.  Denied is actionable via device settings; the other two are
// retryable, so they are never collapsed into one another.
type PositionErrorKind string

const (
	PositionPermissionDenied PositionErrorKind = "permission_denied"
	PositionUnavailable      PositionErrorKind = "position_unavailable"
	PositionTimeout          PositionErrorKind = "timeout"
)

// ScanAttempt is one user's attempt to register attendance by scanning
// the daily QR code.
type ScanAttempt struct {
	UserID string `json:"user_id"`
	// Code is the candidate string decoded from the scanned QR symbol.
	Code string `json:"code"`
	// Position is the device GPS fix, when the client obtained one.
	Position *Position `json:"position,omitempty"`
	// PositionError is set when the client tried and failed to obtain a
	// position.  Only consulted for onsite employees.
	PositionError PositionErrorKind `json:"position_error,omitempty"`
}

// RejectionKind is the closed set of reasons a scan attempt is refused.
type RejectionKind string

const (
	KindDuplicate  RejectionKind = "duplicate"
	KindNoQR       RejectionKind = "no_qr"
	KindExpired    RejectionKind = "expired"
	KindInvalidQR  RejectionKind = "invalid_qr"
	KindOutOfRange RejectionKind = "out_of_range"
	KindTimeWindow RejectionKind = "time_window"
	KindGeneric    RejectionKind = "generic"
)

// ScanResult is the single authoritative decision for a scan attempt.
// Accepted=true means an attendance record was created; otherwise Kind
// and Message explain the rejection.
type ScanResult struct {
	Accepted  bool          `json:"accepted"`
	Date      string        `json:"date,omitempty"`
	Timestamp time.Time     `json:"timestamp,omitzero"`
	Kind      RejectionKind `json:"kind,omitempty"`
	Message   string        `json:"message,omitempty"`
	// DistanceMeters is set when a geofence evaluation happened,
	// accepted or not.
	DistanceMeters *float64 `json:"distance_meters,omitempty"`
}

// RegistrationStatus tells a client whether a scan could succeed right
// now, without performing one.
type RegistrationStatus struct {
	Date              string              `json:"date"`
	AlreadyRegistered bool                `json:"already_registered"`
	CanRegister       bool                `json:"can_register"`
	WindowStatus      string              `json:"window_status"` // before | active | after
	Window            string              `json:"window"`        // display form, e.g. "07:00-09:30"
	Boundary          timewindow.Boundary `json:"boundary"`
}

// QRIssue is the admin-facing result of generating or regenerating the
// daily QR code.
type QRIssue struct {
	IssueID   string    `json:"issue_id"`
	Date      string    `json:"date"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	// IsNew is false when an idempotent generate call returned an
	// existing live code unchanged.
	IsNew bool `json:"is_new"`
}
