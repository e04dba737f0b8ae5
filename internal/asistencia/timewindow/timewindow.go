// Package timewindow decides whether a wall-clock instant falls inside
// the daily attendance-registration window.
//
// All evaluation happens in the organization's fixed timezone; callers
// convert "now" with In(loc) before passing it in, or use the helpers
// that take a *time.Location.  Windows that span midnight are not
// supported; the expected window is an early-morning same-day range.
package timewindow

import (
	"fmt"
	"time"
)

// Status classifies an instant relative to the window.
type Status string

const (
	Before Status = "before"
	Active Status = "active"
	After  Status = "after"
)

const minutesPerDay = 24 * 60

// Window is a same-day wall-clock range with inclusive bounds.
type Window struct {
	StartHour   int
	StartMinute int
	EndHour     int
	EndMinute   int
}

func (w Window) startMinutes() int { return w.StartHour*60 + w.StartMinute }
func (w Window) endMinutes() int   { return w.EndHour*60 + w.EndMinute }

// String renders the window for display, e.g. "07:00-09:30".
func (w Window) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", w.StartHour, w.StartMinute, w.EndHour, w.EndMinute)
}

// Evaluate classifies now against the window.  Both bounds are
// inclusive: an instant exactly at start or end is Active.  Only the
// hour and minute of now are consulted, so the caller must already have
// converted now to org-local time.
func (w Window) Evaluate(now time.Time) Status {
	cur := now.Hour()*60 + now.Minute()
	switch {
	case cur < w.startMinutes():
		return Before
	case cur > w.endMinutes():
		return After
	default:
		return Active
	}
}

// Boundary describes how far now is from the window's nearest relevant
// edge, in whole minutes.
type Boundary struct {
	// Minutes until the window closes (open), opens (before), or opens
	// tomorrow (after).
	Minutes        int  `json:"minutes"`
	IsWindowOpen   bool `json:"is_window_open"`
	IsBeforeWindow bool `json:"is_before_window"`
	IsAfterWindow  bool `json:"is_after_window"`
}

// UntilBoundary computes the time-to-open/close for now, org-local.
// After the window closes the countdown targets the next day's start.
func (w Window) UntilBoundary(now time.Time) Boundary {
	cur := now.Hour()*60 + now.Minute()
	start := w.startMinutes()
	end := w.endMinutes()

	switch {
	case cur >= start && cur <= end:
		return Boundary{Minutes: end - cur, IsWindowOpen: true}
	case cur < start:
		return Boundary{Minutes: start - cur, IsBeforeWindow: true}
	default:
		return Boundary{Minutes: (minutesPerDay - cur) + start, IsAfterWindow: true}
	}
}

// OrgNow converts the system instant into org-local wall-clock time.
func OrgNow(now time.Time, loc *time.Location) time.Time {
	return now.In(loc)
}

// DateISO formats an org-local instant as the ISO calendar date the
// stores key on.
func DateISO(now time.Time, loc *time.Location) string {
	return now.In(loc).Format("2006-01-02")
}

// EndOfDay returns 23:59:59 org-local for an ISO date.  Daily QR codes
// expire at this instant.
func EndOfDay(date string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, loc), nil
}
