// Package store defines the persistence interfaces for the attendance
// core, with paired implementations under memory/ (tests, dev) and
// sqlite/ (production).
package store

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicate is returned by CreateIfAbsent when a record already
// exists for the (userID, date) key.  It is the storage-level signal
// that enforces the one-registration-per-day invariant under
// concurrency; callers map it to a duplicate rejection, never to a
// generic failure.
var ErrDuplicate = errors.New("attendance record already exists for user and date")

// DailyQRRecord is the stored QR code for one calendar day.  At most
// one live record exists per date; regeneration overwrites in place.
type DailyQRRecord struct {
	Date      string    `json:"date"`      // YYYY-MM-DD, org-local; the natural key
	IssueID   string    `json:"issue_id"`  // UUID of the most recent issue
	Code      string    `json:"code"`      // truncated hex code
	IssuedBy  string    `json:"issued_by"` // admin user id
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"` // 23:59:59 org-local of Date
}

// AttendanceRecord is one successful registration.  Identity is the
// composite (UserID, Date); records are immutable once created.
type AttendanceRecord struct {
	UserID    string    `json:"user_id"`
	Date      string    `json:"date"` // YYYY-MM-DD, org-local
	Timestamp time.Time `json:"timestamp"`
	QRCode    string    `json:"qr_code"` // code value matched at registration time
}

// GeofenceRecord is the admin-configured fence.  Absence means the
// built-in default applies.
type GeofenceRecord struct {
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	RadiusMeters float64   `json:"radius_meters"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// QRStore persists the one-per-date daily QR codes.
type QRStore interface {
	// GetDailyQR returns the record for date, or nil if none exists.
	GetDailyQR(ctx context.Context, date string) (*DailyQRRecord, error)
	// PutDailyQR creates or overwrites the record for rec.Date.
	PutDailyQR(ctx context.Context, rec DailyQRRecord) error
	// PruneOlderThan deletes records whose date sorts strictly before
	// cutoffDate (ISO ordering doubles as chronological ordering).
	PruneOlderThan(ctx context.Context, cutoffDate string) (int64, error)
}

// AttendanceStore persists registrations.
type AttendanceStore interface {
	// HasRecord reports whether (userID, date) is already registered.
	// This is only the fast-path check; CreateIfAbsent is the real
	// enforcement point.
	HasRecord(ctx context.Context, userID, date string) (bool, error)
	// CreateIfAbsent atomically inserts rec, returning ErrDuplicate if
	// a record for (rec.UserID, rec.Date) already exists.
	CreateIfAbsent(ctx context.Context, rec AttendanceRecord) error
	// ListByUser returns a user's records with fromDate <= date <= toDate,
	// newest date first.
	ListByUser(ctx context.Context, userID, fromDate, toDate string) ([]AttendanceRecord, error)
	// ListByDate returns all records for a date, ordered by timestamp.
	ListByDate(ctx context.Context, date string) ([]AttendanceRecord, error)
}

// ProfileStore holds employee classifications.  A missing profile
// means remote: the geofence requirement is skipped.
type ProfileStore interface {
	// GetEmployeeType returns the stored type, or "" when unset.
	GetEmployeeType(ctx context.Context, userID string) (string, error)
	SetEmployeeType(ctx context.Context, userID, employeeType string) error
}

// ConfigStore holds the singleton system configuration.
type ConfigStore interface {
	// GetGeofence returns the configured fence, or nil if never set.
	GetGeofence(ctx context.Context) (*GeofenceRecord, error)
	SetGeofence(ctx context.Context, rec GeofenceRecord) error
}
