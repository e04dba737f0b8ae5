package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultQRSecret is the fallback used when no secret is configured.
// Deployments must override it; startup logs a warning when it is in use.
const DefaultQRSecret = "default_secret_change_this"

type Config struct {
	HTTPAddr string

	// DB
	Env    string // "dev" | "prod"
	DBPath string // e.g. "./data/asistencia.db"

	// QR derivation
	QRSecret string

	// Auth
	JWTSecret string

	// Organization timezone for all window and day-boundary math.
	// The viewer's locale is never consulted.
	Timezone string // IANA name, e.g. "America/Guayaquil"

	// Attendance registration window, org-local wall clock.
	WindowStartHour   int
	WindowStartMinute int
	WindowEndHour     int
	WindowEndMinute   int

	// Default geofence, used until an admin configures one.
	GeofenceLat     float64
	GeofenceLng     float64
	GeofenceRadiusM float64

	// Client GPS acquisition hints, surfaced through the status endpoint.
	GPSTimeout time.Duration
	GPSMaxAge  time.Duration

	// Daily QR retention
	QRRetentionDays    int // 0 = keep forever
	PruneIntervalHours int // how often the pruner runs (default 6)
}

func FromEnv() Config {
	addr := getenvDefault("ASISTENCIA_HTTP_ADDR", ":8080")

	env := strings.ToLower(getenvDefault("ASISTENCIA_ENV", "dev"))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	dbPath := getenvDefault("ASISTENCIA_DB_PATH", "./data/asistencia.db")

	secret := strings.TrimSpace(os.Getenv("ASISTENCIA_QR_SECRET"))
	if secret == "" {
		secret = DefaultQRSecret
	}

	jwtSecret := strings.TrimSpace(os.Getenv("ASISTENCIA_JWT_SECRET"))

	tz := getenvDefault("ASISTENCIA_TIMEZONE", "America/Guayaquil")

	return Config{
		HTTPAddr: addr,
		Env:      env,
		DBPath:   dbPath,

		QRSecret:  secret,
		JWTSecret: jwtSecret,
		Timezone:  tz,

		WindowStartHour:   getenvInt("ASISTENCIA_WINDOW_START_HOUR", 7),
		WindowStartMinute: getenvInt("ASISTENCIA_WINDOW_START_MINUTE", 0),
		WindowEndHour:     getenvInt("ASISTENCIA_WINDOW_END_HOUR", 9),
		WindowEndMinute:   getenvInt("ASISTENCIA_WINDOW_END_MINUTE", 30),

		// Defaults point at the reference site (Quito).
		GeofenceLat:     getenvFloat("ASISTENCIA_GEOFENCE_LAT", -0.1807),
		GeofenceLng:     getenvFloat("ASISTENCIA_GEOFENCE_LNG", -78.4678),
		GeofenceRadiusM: getenvFloat("ASISTENCIA_GEOFENCE_RADIUS_M", 100),

		GPSTimeout: time.Duration(getenvInt("ASISTENCIA_GPS_TIMEOUT_MS", 10000)) * time.Millisecond,
		GPSMaxAge:  time.Duration(getenvInt("ASISTENCIA_GPS_MAX_AGE_MS", 30000)) * time.Millisecond,

		QRRetentionDays:    getenvInt("ASISTENCIA_QR_RETENTION_DAYS", 0),
		PruneIntervalHours: getenvInt("ASISTENCIA_PRUNE_INTERVAL_HOURS", 6),
	}
}

// UsingDefaultQRSecret reports whether the flagged weak fallback secret
// is in effect.
func (c Config) UsingDefaultQRSecret() bool {
	return c.QRSecret == DefaultQRSecret
}

// Location resolves the configured org timezone.  If tzdata is not
// available it falls back to a fixed UTC-5 zone, matching the reference
// deployment, rather than silently drifting to the host's locale.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.FixedZone("UTC-5", -5*60*60)
	}
	return loc
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getenvFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
