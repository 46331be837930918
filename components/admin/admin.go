// components/admin/admin.go
//
// Admin component – back-office sign-in.
//
// Routes (mounted at /api/admin)
// ------------------------------
//   POST /login     check credentials, issue the session cookie
//   POST /logout    clear the cookie (admin)
//   GET  /session   {"authenticated": bool, "username": "..."}
//
// Workflow
// --------
//   1. Credentials.Check runs bcrypt even for unknown usernames.
//   2. session.Manager.Issue writes an HMAC-signed cookie.
//   3. The login is recorded with the new admin attached to the context,
//      so the activity row carries their id.
//
//------------------------------------------------------------------------------

package admin

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/streamsite/internal/auth"
	"github.com/yanizio/streamsite/internal/component"
	"github.com/yanizio/streamsite/internal/content"
)

var _ component.Component = (*Component)(nil)

// Component handles login, logout, and session checks.
type Component struct {
	env *component.Env
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "admin" }

// Init captures the shared Env.
func (c *Component) Init(env *component.Env) error {
	if env.Credentials == nil || env.Sessions == nil {
		return fmt.Errorf("admin: credentials and sessions are required")
	}
	c.env = env
	return nil
}

// Routes builds the router mounted at “/api/admin”.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(c.env.Gate().Guard)
	r.Post("/login", c.login)
	r.With(auth.RequireAdmin).Post("/logout", c.logout)
	r.Get("/session", c.session)
	return r
}

func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (c *Component) login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := component.DecodeInto(r, &in); err != nil {
		component.Invalid(w, "Invalid login data", err)
		return
	}
	a, ok := c.env.Credentials.Check(in.Username, in.Password)
	if !ok {
		c.env.Log.Info("login rejected")
		component.Message(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if _, err := c.env.Sessions.Issue(w, r, a.ID, a.Username); err != nil {
		component.StoreFailure(w, c.env.Log, "issue session", err, "", "Internal server error")
		return
	}
	ctx := auth.WithAdmin(r.Context(), a)
	c.env.Record(ctx, "Login", fmt.Sprintf("Admin %s logged in", a.Username), content.CategoryAuth)
	component.Message(w, http.StatusOK, "Authentication successful")
}

func (c *Component) logout(w http.ResponseWriter, r *http.Request) {
	a, _ := auth.AdminFrom(r.Context())
	c.env.Sessions.Clear(w, r)
	c.env.Record(r.Context(), "Logout", fmt.Sprintf("Admin %s logged out", a.Username), content.CategoryAuth)
	component.Message(w, http.StatusOK, "Logout successful")
}

type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

func (c *Component) session(w http.ResponseWriter, r *http.Request) {
	a, ok := auth.AdminFrom(r.Context())
	component.WriteJSON(w, http.StatusOK, sessionResponse{Authenticated: ok, Username: a.Username})
}
