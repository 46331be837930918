// components/themes/themes.go
//
// Themes component – visual presets and the active-theme switch.
//
// Routes (mounted at /api/themes)
// -------------------------------
//   GET    /               list in insertion order
//   GET    /active         the active theme, 404 when none
//   GET    /{id}           one theme
//   POST   /               create                       (admin)
//   PUT    /{id}           partial update               (admin)
//   DELETE /{id}           delete, 400 for the active one (admin)
//   POST   /{id}/activate  make it the active theme     (admin)
//
//------------------------------------------------------------------------------

package themes

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/streamsite/internal/auth"
	"github.com/yanizio/streamsite/internal/component"
	"github.com/yanizio/streamsite/internal/content"
)

var _ component.Component = (*Component)(nil)

// Component serves theme CRUD.
type Component struct {
	env *component.Env
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "themes" }

// Init captures the shared Env.
func (c *Component) Init(env *component.Env) error {
	c.env = env
	return nil
}

// Routes builds the router mounted at “/api/themes”.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(c.env.Gate().Guard)

	r.Get("/", c.list)
	r.Get("/active", c.active)
	r.Get("/{id}", c.get)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Post("/", c.create)
		r.Put("/{id}", c.update)
		r.Delete("/{id}", c.remove)
		r.Post("/{id}/activate", c.activate)
	})
	return r
}

func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) list(w http.ResponseWriter, r *http.Request) {
	rows, err := c.env.Store.ListThemes(r.Context())
	if err != nil {
		component.StoreFailure(w, c.env.Log, "list themes", err, "", "Failed to get themes")
		return
	}
	component.WriteJSON(w, http.StatusOK, rows)
}

func (c *Component) active(w http.ResponseWriter, r *http.Request) {
	t, err := c.env.Store.ActiveTheme(r.Context())
	if err != nil {
		component.StoreFailure(w, c.env.Log, "active theme", err,
			"No active theme found", "Failed to get active theme")
		return
	}
	component.WriteJSON(w, http.StatusOK, t)
}

func (c *Component) get(w http.ResponseWriter, r *http.Request) {
	id, ok := component.IDParam(w, r)
	if !ok {
		return
	}
	t, err := c.env.Store.GetTheme(r.Context(), id)
	if err != nil {
		component.StoreFailure(w, c.env.Log, "get theme", err, "Theme not found", "Failed to get theme")
		return
	}
	component.WriteJSON(w, http.StatusOK, t)
}

func (c *Component) create(w http.ResponseWriter, r *http.Request) {
	var in content.ThemeData
	if err := component.DecodeInto(r, &in); err != nil {
		component.Invalid(w, "Invalid theme data", err)
		return
	}
	t, err := c.env.Store.CreateTheme(r.Context(), in)
	if err != nil {
		component.StoreFailure(w, c.env.Log, "create theme", err, "", "Failed to create theme")
		return
	}
	c.env.Record(r.Context(), "Create Theme", fmt.Sprintf("Created theme %q", t.Name), content.CategoryTheme)
	component.WriteJSON(w, http.StatusCreated, t)
}

func (c *Component) update(w http.ResponseWriter, r *http.Request) {
	id, ok := component.IDParam(w, r)
	if !ok {
		return
	}
	cur, err := c.env.Store.GetTheme(r.Context(), id)
	if err != nil {
		component.StoreFailure(w, c.env.Log, "get theme", err, "Theme not found", "Failed to update theme")
		return
	}
	in := cur.ThemeData
	if err := component.DecodeInto(r, &in); err != nil {
		component.Invalid(w, "Invalid theme data", err)
		return
	}
	t, err := c.env.Store.UpdateTheme(r.Context(), id, in)
	if err != nil {
		component.StoreFailure(w, c.env.Log, "update theme", err, "Theme not found", "Failed to update theme")
		return
	}
	c.env.Record(r.Context(), "Update Theme", fmt.Sprintf("Updated theme %q", t.Name), content.CategoryTheme)
	component.WriteJSON(w, http.StatusOK, t)
}

func (c *Component) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := component.IDParam(w, r)
	if !ok {
		return
	}
	t, err := c.env.Store.GetTheme(r.Context(), id)
	if err != nil {
		component.StoreFailure(w, c.env.Log, "get theme", err, "Theme not found", "Failed to delete theme")
		return
	}
	if t.IsActive {
		component.Message(w, http.StatusBadRequest, "Cannot delete the active theme")
		return
	}
	if err := c.env.Store.DeleteTheme(r.Context(), id); err != nil {
		component.StoreFailure(w, c.env.Log, "delete theme", err,
			"Theme not found or cannot be deleted", "Failed to delete theme")
		return
	}
	c.env.Record(r.Context(), "Delete Theme", fmt.Sprintf("Deleted theme %q", t.Name), content.CategoryTheme)
	component.Message(w, http.StatusOK, "Theme deleted successfully")
}

func (c *Component) activate(w http.ResponseWriter, r *http.Request) {
	id, ok := component.IDParam(w, r)
	if !ok {
		return
	}
	t, err := c.env.Store.GetTheme(r.Context(), id)
	if err == nil {
		err = c.env.Store.SetActiveTheme(r.Context(), id)
	}
	if err != nil {
		component.StoreFailure(w, c.env.Log, "activate theme", err, "Theme not found", "Failed to set active theme")
		return
	}
	c.env.Record(r.Context(), "Activate Theme", fmt.Sprintf("Set theme %q as active", t.Name), content.CategoryTheme)
	component.Message(w, http.StatusOK, "Theme set as active")
}
