package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	qr "github.com/skip2/go-qrcode"

	"github.com/asistencia-qr/server/internal/asistencia/qrcode"
	"github.com/asistencia-qr/server/internal/asistencia/store"
	"github.com/asistencia-qr/server/internal/asistencia/timewindow"
	"github.com/asistencia-qr/server/internal/asistencia/types"
)

var (
	ErrInvalidAdminID = errors.New("admin_id is required")
	// ErrNoQRToday is returned by image rendering when nothing has been
	// generated yet.
	ErrNoQRToday = errors.New("no QR code issued for today")
)

// Rendering defaults for the PNG endpoint, matching what the scanner UI
// expects: high error correction, 256px.
const (
	defaultImageSize = 256
	maxImageSize     = 1024
)

// QRManager owns creation, idempotent retrieval and forced regeneration
// of the daily QR code.
//
// Because derivation is a pure function of (date, secret), regeneration
// with an unchanged secret produces the same code value.  True rotation
// would need a per-issue nonce folded into the derivation; the issue id
// recorded on each write preserves the audit trail either way.
type QRManager struct {
	qrStore store.QRStore
	secret  string
	loc     *time.Location
	logger  *log.Logger
	now     func() time.Time
}

// QRManagerDeps wires the store and static configuration into a
// QRManager.
type QRManagerDeps struct {
	QRStore  store.QRStore
	Secret   string
	Location *time.Location
	Logger   *log.Logger

	// Now overrides the clock; nil means time.Now.  Tests pin it.
	Now func() time.Time
}

func NewQRManager(d QRManagerDeps) *QRManager {
	now := d.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &QRManager{
		qrStore: d.QRStore,
		secret:  d.Secret,
		loc:     d.Location,
		logger:  d.Logger,
		now:     now,
	}
}

// GenerateForToday returns today's live QR code, creating it if absent.
// Repeated calls are idempotent: an existing code comes back unchanged
// with IsNew=false, so double-clicking "generate" never rotates it.
func (m *QRManager) GenerateForToday(ctx context.Context, adminID string) (types.QRIssue, error) {
	adminID = strings.TrimSpace(adminID)
	if adminID == "" {
		return types.QRIssue{}, ErrInvalidAdminID
	}

	today := timewindow.DateISO(m.now(), m.loc)

	existing, err := m.qrStore.GetDailyQR(ctx, today)
	if err != nil {
		return types.QRIssue{}, fmt.Errorf("get daily qr: %w", err)
	}
	if existing != nil {
		return types.QRIssue{
			IssueID:   existing.IssueID,
			Date:      existing.Date,
			Code:      existing.Code,
			ExpiresAt: existing.ExpiresAt,
			IsNew:     false,
		}, nil
	}

	return m.issue(ctx, adminID, today)
}

// RegenerateForToday unconditionally re-derives and overwrites today's
// record.  The previous code value stops matching the moment the write
// lands.
func (m *QRManager) RegenerateForToday(ctx context.Context, adminID string) (types.QRIssue, error) {
	adminID = strings.TrimSpace(adminID)
	if adminID == "" {
		return types.QRIssue{}, ErrInvalidAdminID
	}

	today := timewindow.DateISO(m.now(), m.loc)
	return m.issue(ctx, adminID, today)
}

// GetToday is a pure lookup; nil means nothing has been generated.
func (m *QRManager) GetToday(ctx context.Context) (*store.DailyQRRecord, error) {
	today := timewindow.DateISO(m.now(), m.loc)
	return m.qrStore.GetDailyQR(ctx, today)
}

// ImageForToday renders today's code as a PNG QR symbol.  size<=0 uses
// the default; oversized requests are clamped.
func (m *QRManager) ImageForToday(ctx context.Context, size int) ([]byte, error) {
	rec, err := m.GetToday(ctx)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNoQRToday
	}

	if size <= 0 {
		size = defaultImageSize
	}
	if size > maxImageSize {
		size = maxImageSize
	}

	png, err := qr.Encode(rec.Code, qr.High, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr png: %w", err)
	}
	return png, nil
}

func (m *QRManager) issue(ctx context.Context, adminID, date string) (types.QRIssue, error) {
	expires, err := timewindow.EndOfDay(date, m.loc)
	if err != nil {
		return types.QRIssue{}, err
	}

	rec := store.DailyQRRecord{
		Date:      date,
		IssueID:   uuid.NewString(),
		Code:      qrcode.Derive(date, m.secret),
		IssuedBy:  adminID,
		IssuedAt:  m.now(),
		ExpiresAt: expires,
	}

	if err := m.qrStore.PutDailyQR(ctx, rec); err != nil {
		return types.QRIssue{}, fmt.Errorf("put daily qr: %w", err)
	}

	if m.logger != nil {
		m.logger.Printf("qr issued for %s by %s (issue %s)", date, adminID, rec.IssueID)
	}

	return types.QRIssue{
		IssueID:   rec.IssueID,
		Date:      rec.Date,
		Code:      rec.Code,
		ExpiresAt: rec.ExpiresAt,
		IsNew:     true,
	}, nil
}
