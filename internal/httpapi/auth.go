package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey avoids collisions with other context values.
type contextKey string

const claimsContextKey contextKey = "auth_claims"

// Role names carried in the token.  Tokens are issued by the identity
// provider; this server only verifies them.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// AuthClaims is the verified token payload.  Subject is the user id
// every attendance record is keyed by.
type AuthClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
}

// Authenticator verifies HS256 bearer tokens against a shared secret.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// authenticate parses and validates the Authorization header.  It
// returns the verified claims or writes a 401 and returns nil.
func (a *Authenticator) authenticate(w http.ResponseWriter, r *http.Request) *AuthClaims {
	header := r.Header.Get("Authorization")
	if header == "" {
		writeError(w, http.StatusUnauthorized, "missing_token", "Authorization header is required")
		return nil
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		writeError(w, http.StatusUnauthorized, "invalid_token", "expected Bearer <token>")
		return nil
	}

	claims := &AuthClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid or expired token")
		return nil
	}
	if claims.Subject == "" {
		writeError(w, http.StatusUnauthorized, "invalid_token", "token has no subject")
		return nil
	}

	return claims
}

// RequireUser admits any authenticated subject, user or admin.
func (a *Authenticator) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := a.authenticate(w, r)
		if claims == nil {
			return
		}
		next(w, r.WithContext(withClaims(r.Context(), claims)))
	}
}

// RequireAdmin admits only subjects carrying the admin role.
func (a *Authenticator) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := a.authenticate(w, r)
		if claims == nil {
			return
		}
		if claims.Role != RoleAdmin {
			writeError(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		next(w, r.WithContext(withClaims(r.Context(), claims)))
	}
}

func withClaims(ctx context.Context, c *AuthClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, c)
}

// ClaimsFromContext returns the verified claims, or nil outside an
// authenticated request.
func ClaimsFromContext(ctx context.Context) *AuthClaims {
	c, _ := ctx.Value(claimsContextKey).(*AuthClaims)
	return c
}
