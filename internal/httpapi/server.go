package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/asistencia-qr/server/internal/asistencia/geofence"
	"github.com/asistencia-qr/server/internal/asistencia/service"
	"github.com/asistencia-qr/server/internal/asistencia/types"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type Dependencies struct {
	Logger    *log.Logger
	Addr      string
	Engine    *service.Engine
	QRManager *service.QRManager
	Reports   *service.Reports
	Admin     *service.Admin
	JWTSecret string

	// GPS acquisition hints handed to clients via the status endpoint.
	GPSTimeout time.Duration
	GPSMaxAge  time.Duration
}

type Server struct {
	httpServer *http.Server
	logger     *log.Logger
	mux        *http.ServeMux
	engine     *service.Engine
	qrManager  *service.QRManager
	reports    *service.Reports
	admin      *service.Admin
	gpsTimeout time.Duration
	gpsMaxAge  time.Duration
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:     d.Logger,
		mux:        mux,
		engine:     d.Engine,
		qrManager:  d.QRManager,
		reports:    d.Reports,
		admin:      d.Admin,
		gpsTimeout: d.GPSTimeout,
		gpsMaxAge:  d.GPSMaxAge,
	}

	auth := NewAuthenticator(d.JWTSecret)

	mux.HandleFunc("POST /v1/attendance/scan", auth.RequireUser(s.handleScan))
	mux.HandleFunc("GET /v1/attendance/status", auth.RequireUser(s.handleStatus))
	mux.HandleFunc("GET /v1/attendance/me", auth.RequireUser(s.handleMyAttendance))

	mux.HandleFunc("POST /v1/qr/generate", auth.RequireAdmin(s.handleQRGenerate))
	mux.HandleFunc("POST /v1/qr/regenerate", auth.RequireAdmin(s.handleQRRegenerate))
	mux.HandleFunc("GET /v1/qr/today", auth.RequireAdmin(s.handleQRToday))
	mux.HandleFunc("GET /v1/qr/today/image", auth.RequireAdmin(s.handleQRImage))

	mux.HandleFunc("GET /v1/reports/daily", auth.RequireAdmin(s.handleDailyReport))
	mux.HandleFunc("PUT /v1/admin/employees/{userID}/type", auth.RequireAdmin(s.handleSetEmployeeType))
	mux.HandleFunc("GET /v1/admin/config/geofence", auth.RequireAdmin(s.handleGetGeofence))
	mux.HandleFunc("PUT /v1/admin/config/geofence", auth.RequireAdmin(s.handlePutGeofence))

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	handler := metricsMiddleware(loggingMiddleware(d.Logger, mux))

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ── Attendance ───────────────────────────────────────────────────────────────

type scanRequest struct {
	Code          string       `json:"code" validate:"required"`
	Position      *positionDTO `json:"position"`
	PositionError string       `json:"position_error" validate:"omitempty,oneof=permission_denied position_unavailable timeout"`
}

type positionDTO struct {
	Lat      float64 `json:"lat" validate:"min=-90,max=90"`
	Lng      float64 `json:"lng" validate:"min=-180,max=180"`
	Accuracy float64 `json:"accuracy" validate:"omitempty,min=0"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if !decodeBody(w, r, &req) {
		return
	}

	attempt := types.ScanAttempt{
		UserID:        ClaimsFromContext(r.Context()).Subject,
		Code:          req.Code,
		PositionError: types.PositionErrorKind(req.PositionError),
	}
	if req.Position != nil {
		attempt.Position = &types.Position{
			Lat:            req.Position.Lat,
			Lng:            req.Position.Lng,
			AccuracyMeters: req.Position.Accuracy,
		}
	}

	result, err := s.engine.AttemptRegistration(r.Context(), attempt)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidUserID), errors.Is(err, service.ErrInvalidCode):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		default:
			s.logger.Printf("scan error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		}
		return
	}

	// Rejections are decisions, not transport errors: the client renders
	// kind and message either way.
	writeJSON(w, http.StatusOK, result)
}

// gpsHints tells the client how to acquire a fix before scanning.
type gpsHints struct {
	TimeoutMS int64 `json:"timeout_ms"`
	MaxAgeMS  int64 `json:"max_age_ms"`
}

type statusResponse struct {
	types.RegistrationStatus
	GPS gpsHints `json:"gps"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.engine.RegistrationStatus(r.Context(), ClaimsFromContext(r.Context()).Subject)
	if err != nil {
		s.logger.Printf("status error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		RegistrationStatus: status,
		GPS: gpsHints{
			TimeoutMS: s.gpsTimeout.Milliseconds(),
			MaxAgeMS:  s.gpsMaxAge.Milliseconds(),
		},
	})
}

func (s *Server) handleMyAttendance(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "from and to query parameters are required (YYYY-MM-DD)")
		return
	}

	recs, err := s.reports.UserRange(r.Context(), ClaimsFromContext(r.Context()).Subject, from, to)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": recs})
}

// ── QR administration ────────────────────────────────────────────────────────

func (s *Server) handleQRGenerate(w http.ResponseWriter, r *http.Request) {
	issue, err := s.qrManager.GenerateForToday(r.Context(), ClaimsFromContext(r.Context()).Subject)
	if err != nil {
		s.qrError(w, err)
		return
	}
	status := http.StatusOK
	if issue.IsNew {
		status = http.StatusCreated
	}
	writeJSON(w, status, issue)
}

func (s *Server) handleQRRegenerate(w http.ResponseWriter, r *http.Request) {
	issue, err := s.qrManager.RegenerateForToday(r.Context(), ClaimsFromContext(r.Context()).Subject)
	if err != nil {
		s.qrError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, issue)
}

func (s *Server) handleQRToday(w http.ResponseWriter, r *http.Request) {
	rec, err := s.qrManager.GetToday(r.Context())
	if err != nil {
		s.qrError(w, err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "not_found", "no QR code issued for today")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleQRImage(w http.ResponseWriter, r *http.Request) {
	size := 0
	if raw := r.URL.Query().Get("size"); raw != "" {
		var err error
		size, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "size must be an integer")
			return
		}
	}

	png, err := s.qrManager.ImageForToday(r.Context(), size)
	if err != nil {
		if errors.Is(err, service.ErrNoQRToday) {
			writeError(w, http.StatusNotFound, "not_found", err.Error())
			return
		}
		s.qrError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) qrError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrInvalidAdminID) {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	s.logger.Printf("qr error: %v", err)
	writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
}

// ── Reports and admin config ─────────────────────────────────────────────────

func (s *Server) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "date query parameter is required (YYYY-MM-DD)")
		return
	}

	recs, err := s.reports.Daily(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "records": recs})
}

type employeeTypeRequest struct {
	EmployeeType string `json:"employee_type" validate:"required,oneof=onsite remote"`
}

func (s *Server) handleSetEmployeeType(w http.ResponseWriter, r *http.Request) {
	var req employeeTypeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	userID := r.PathValue("userID")
	err := s.admin.SetEmployeeType(r.Context(), userID, types.EmployeeType(req.EmployeeType))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidUserID), errors.Is(err, service.ErrInvalidEmployeeType):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		default:
			s.logger.Printf("set employee type error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"user_id":       userID,
		"employee_type": req.EmployeeType,
	})
}

type geofenceRequest struct {
	Lat          float64 `json:"lat" validate:"min=-90,max=90"`
	Lng          float64 `json:"lng" validate:"min=-180,max=180"`
	RadiusMeters float64 `json:"radius_meters" validate:"required,gt=0"`
}

func (s *Server) handleGetGeofence(w http.ResponseWriter, r *http.Request) {
	status, err := s.admin.Geofence(r.Context())
	if err != nil {
		s.logger.Printf("get geofence error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handlePutGeofence(w http.ResponseWriter, r *http.Request) {
	var req geofenceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := s.admin.SetGeofence(r.Context(), geofence.Fence{
		Lat:          req.Lat,
		Lng:          req.Lng,
		RadiusMeters: req.RadiusMeters,
	})
	if err != nil {
		s.logger.Printf("set geofence error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	status, err := s.admin.Geofence(r.Context())
	if err != nil {
		s.logger.Printf("get geofence error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeBody decodes and validates a JSON request body.  On failure it
// writes a 400 and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return false
	}
	return true
}
