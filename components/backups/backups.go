// components/backups/backups.go
//
// Backups component – manual snapshot and restore triggers.
//
// Routes (mounted at /api/backups, admin only)
// --------------------------------------------
//   GET  /                  snapshots on disk, oldest first
//   POST /                  write a snapshot now, then prune
//   POST /latest/restore    restore the newest snapshot
//   POST /{name}/restore    restore backup_<ms>.json
//
// Notes
// -----
//   • These routes are NOT behind the backup Gate.  Manager takes the Gate
//     exclusively itself; a shared hold here would deadlock.
//   • The follow-up activity entry is written under a shared hold so it
//     cannot land inside a scheduled cycle.
//
//------------------------------------------------------------------------------

package backups

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/streamsite/internal/auth"
	"github.com/yanizio/streamsite/internal/backup"
	"github.com/yanizio/streamsite/internal/component"
	"github.com/yanizio/streamsite/internal/content"
)

var _ component.Component = (*Component)(nil)

// Component exposes the backup Manager to admins.
type Component struct {
	env *component.Env
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "backups" }

// Init captures the shared Env.
func (c *Component) Init(env *component.Env) error {
	if env.Backups == nil {
		return errors.New("backups: manager is required")
	}
	c.env = env
	return nil
}

// Routes builds the router mounted at “/api/backups”.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireAdmin)
	r.Get("/", c.list)
	r.Post("/", c.create)
	r.Post("/latest/restore", c.restoreLatest)
	r.Post("/{name}/restore", c.restoreNamed)
	return r
}

func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) list(w http.ResponseWriter, r *http.Request) {
	infos, err := c.env.Backups.List()
	if err != nil {
		c.env.Log.Error("list backups", zap.Error(err))
		component.Message(w, http.StatusInternalServerError, "Failed to list backups")
		return
	}
	if infos == nil {
		infos = []backup.Info{}
	}
	component.WriteJSON(w, http.StatusOK, infos)
}

func (c *Component) create(w http.ResponseWriter, r *http.Request) {
	info, err := c.env.Backups.CreateSnapshot(r.Context())
	if err != nil {
		c.env.Log.Error("create backup", zap.Error(err))
		component.Message(w, http.StatusInternalServerError, "Failed to create backup")
		return
	}
	c.env.Backups.Prune(r.Context())
	c.record(r, "Create Backup", "Created backup "+info.Name)
	component.WriteJSON(w, http.StatusCreated, info)
}

func (c *Component) restoreLatest(w http.ResponseWriter, r *http.Request) {
	info, err := c.env.Backups.RestoreLatest(r.Context())
	if err != nil {
		c.restoreFailed(w, err)
		return
	}
	c.record(r, "Restore Backup", "Restored backup "+info.Name)
	component.WriteJSON(w, http.StatusOK, info)
}

func (c *Component) restoreNamed(w http.ResponseWriter, r *http.Request) {
	info, err := c.env.Backups.RestoreNamed(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		c.restoreFailed(w, err)
		return
	}
	c.record(r, "Restore Backup", "Restored backup "+info.Name)
	component.WriteJSON(w, http.StatusOK, info)
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

func (c *Component) restoreFailed(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, backup.ErrInvalidName):
		component.Message(w, http.StatusBadRequest, "Invalid backup name")
	case errors.Is(err, backup.ErrNoSnapshots):
		component.Message(w, http.StatusNotFound, "No backups found")
	case errors.Is(err, backup.ErrSnapshotNotFound):
		component.Message(w, http.StatusNotFound, "Backup not found")
	default:
		c.env.Log.Error("restore backup", zap.Error(err))
		component.Message(w, http.StatusInternalServerError, "Failed to restore backup")
	}
}

func (c *Component) record(r *http.Request, action, details string) {
	_ = c.env.Gate().Shared(func() error {
		c.env.Record(r.Context(), action, details, content.CategorySystem)
		return nil
	})
}
