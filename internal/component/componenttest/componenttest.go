// Package componenttest builds a throwaway Env and request helpers for
// component tests.
package componenttest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/yanizio/streamsite/internal/activity"
	"github.com/yanizio/streamsite/internal/auth"
	"github.com/yanizio/streamsite/internal/backup"
	"github.com/yanizio/streamsite/internal/component"
	"github.com/yanizio/streamsite/internal/notify"
	"github.com/yanizio/streamsite/internal/session"
	"github.com/yanizio/streamsite/internal/store/memory"
)

// Password is the plain-text admin password behind NewEnv's credentials.
const Password = "correct horse"

// NewEnv returns an Env over a fresh memory store, a backup manager rooted
// in t.TempDir(), and an admin named "admin".
func NewEnv(t *testing.T) *component.Env {
	t.Helper()
	log := zaptest.NewLogger(t)
	st := memory.New()

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	rec := activity.New(st, notify.Nop{}, log)
	t.Cleanup(rec.Wait)

	return &component.Env{
		Store:       st,
		Backups:     backup.NewManager(st, t.TempDir(), 3, log),
		Sessions:    session.New("componenttest-secret-0123456789abcdef", time.Hour, "sid", false),
		Activity:    rec,
		Credentials: auth.NewCredentials(1, "admin", string(hash)),
		Log:         log,
	}
}

// Handler initialises c against env and wraps its routes the way main
// does: session loading in front of the component router.
func Handler(t *testing.T, env *component.Env, c component.Component) http.Handler {
	t.Helper()
	if in, ok := c.(component.Initializer); ok {
		if err := in.Init(env); err != nil {
			t.Fatalf("Init: %v", err)
		}
	}
	return auth.LoadSession(env.Sessions)(c.Routes())
}

// AdminCookie issues a session cookie for the test admin.
func AdminCookie(t *testing.T, env *component.Env) *http.Cookie {
	t.Helper()
	rr := httptest.NewRecorder()
	a := env.Credentials.Admin
	if _, err := env.Sessions.Issue(rr, httptest.NewRequest(http.MethodPost, "/", nil), a.ID, a.Username); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return rr.Result().Cookies()[0]
}

// Do sends one request.  body is JSON-encoded unless nil; cookie may be nil.
func Do(t *testing.T, h http.Handler, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// Decode unmarshals a recorder body into dst.
func Decode(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
}
