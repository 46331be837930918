// components/logs/logs.go
//
// Logs component – the admin activity feed.
//
// Routes (mounted at /api/logs, admin only)
// -----------------------------------------
//   GET  /   every entry, newest first
//   POST /   append a client-side entry (e.g. "Viewed Dashboard")
//
// Client entries are stored under the caller's admin id but are not echoed
// to Discord; only server-side actions are.
//
//------------------------------------------------------------------------------

package logs

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/streamsite/internal/auth"
	"github.com/yanizio/streamsite/internal/component"
	"github.com/yanizio/streamsite/internal/content"
)

var _ component.Component = (*Component)(nil)

// Component serves the activity log.
type Component struct {
	env *component.Env
}

func (c *Component) Name() string { return "logs" }

func (c *Component) Init(env *component.Env) error {
	c.env = env
	return nil
}

func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(c.env.Gate().Guard)
	r.Use(auth.RequireAdmin)
	r.Get("/", c.list)
	r.Post("/", c.create)
	return r
}

func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) list(w http.ResponseWriter, r *http.Request) {
	rows, err := c.env.Store.ListLogs(r.Context())
	if err != nil {
		component.StoreFailure(w, c.env.Log, "list logs", err, "", "Failed to get logs")
		return
	}
	component.WriteJSON(w, http.StatusOK, rows)
}

type createRequest struct {
	Action   string `json:"action"   validate:"required"`
	Details  string `json:"details"`
	Category string `json:"category" validate:"required"`
}

func (c *Component) create(w http.ResponseWriter, r *http.Request) {
	var in createRequest
	if err := component.DecodeInto(r, &in); err != nil {
		component.Invalid(w, "Invalid log data", err)
		return
	}
	entry, err := c.env.Store.CreateLog(r.Context(), content.ActivityLogData{
		Action:   in.Action,
		Details:  in.Details,
		AdminID:  auth.AdminID(r.Context()),
		Category: in.Category,
	})
	if err != nil {
		component.StoreFailure(w, c.env.Log, "create log", err, "", "Failed to create log")
		return
	}
	component.WriteJSON(w, http.StatusCreated, entry)
}
