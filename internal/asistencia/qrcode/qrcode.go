// Package qrcode derives and verifies the daily attendance code.
//
// The code is a pure function of (date, secret): SHA-256 over a
// delimited payload, truncated to a 12-character hex prefix.  Truncation
// keeps the rendered QR symbol small (roughly 15x15 modules instead of
// 30x30); 48 bits is plenty for codes scoped to one day and one
// organization, but it is not a cryptographic guarantee.
package qrcode

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// salt versions the derivation so a future scheme change invalidates
// every previously issued code.
const salt = "attendance_qr_v1"

// CodeLength is the number of hex characters in a derived code.
const CodeLength = 12

// Derive returns the attendance code for an ISO date (YYYY-MM-DD) and
// secret.  The "|" delimiter keeps field boundaries unambiguous.
func Derive(date, secret string) string {
	payload := date + "|" + secret + "|" + salt
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])[:CodeLength]
}

// Verify reports whether candidate is the code for (date, secret).
// The comparison is constant-time.
func Verify(candidate, date, secret string) bool {
	return Equal(candidate, Derive(date, secret))
}

// Equal compares two code strings in constant time.  Length is public
// information (all codes are CodeLength chars), so the early length
// check leaks nothing useful.
func Equal(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
