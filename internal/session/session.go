// internal/session/session.go
//
// Signed admin-session cookie.
//
// Context
//   The back office has exactly one account, so there is no server-side
//   session table.  After a successful login the server hands out a
//   *stateless* cookie holding an HS256 JWT (golang-jwt):
//
//   •  claims – admin id, username, issued-at, and expiry.
//   •  key    – `session.secret`.
//
//   Verification pins the algorithm to HS256, then checks the expiry.
//   Nothing is stored in process, so sessions survive restarts and work
//   behind several instances sharing the secret.
//
// Workflow
//   •  Issue(w, r, id, name) → sets the cookie after credential checks.
//   •  Read(r)               → Claims or ErrNoSession / ErrInvalid.
//   •  Clear(w, r)           → expires the cookie.
//
//------------------------------------------------------------------------------

package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoSession = errors.New("session: no session cookie")
	ErrInvalid   = errors.New("session: invalid or expired")
)

// Claims is the signed cookie payload.
type Claims struct {
	AdminID  int64  `json:"uid"`
	Username string `json:"usr"`
	jwt.RegisteredClaims
}

// Manager issues and verifies session cookies.  Safe for concurrent use.
type Manager struct {
	secret []byte
	ttl    time.Duration
	name   string
	secure bool
	now    func() time.Time
}

// New returns a Manager.  secure forces the Secure cookie flag even when
// the request arrived over plain HTTP (TLS terminated upstream).
func New(secret string, ttl time.Duration, cookieName string, secure bool) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		name:   cookieName,
		secure: secure,
		now:    time.Now,
	}
}

// Issue signs fresh claims for the admin and sets the cookie.
func (m *Manager) Issue(w http.ResponseWriter, r *http.Request, adminID int64, username string) (Claims, error) {
	exp := m.now().Add(m.ttl)
	c := Claims{
		AdminID:  adminID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(m.now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := m.Sign(c)
	if err != nil {
		return Claims{}, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	})
	return c, nil
}

// Clear expires the session cookie.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the verified claims carried by r.
func (m *Manager) Read(r *http.Request) (Claims, error) {
	ck, err := r.Cookie(m.name)
	if err != nil || ck.Value == "" {
		return Claims{}, ErrNoSession
	}
	return m.Verify(ck.Value)
}

// Sign encodes c as an HS256 JWT.
func (m *Manager) Sign(c Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, &c).SignedString(m.secret)
}

// Verify checks tok's signature and expiry.  Only HS256 is accepted.
func (m *Manager) Verify(tok string) (Claims, error) {
	var c Claims
	_, err := jwt.ParseWithClaims(tok, &c, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.AdminID == 0 {
		return Claims{}, ErrInvalid
	}
	return c, nil
}
