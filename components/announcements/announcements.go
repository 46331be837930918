// components/announcements/announcements.go
//
// Announcements component – news posts on the home page.
//
// Routes (mounted at /api/announcements)
// --------------------------------------
//   GET    /                 list, newest first
//   GET    /featured         the featured post, 404 when none
//   GET    /{id}             one post
//   POST   /                 create                 (admin)
//   PUT    /{id}             partial update         (admin)
//   DELETE /{id}             delete                 (admin)
//   POST   /{id}/feature     make it the featured post (admin)
//
//------------------------------------------------------------------------------

package announcements

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/streamsite/internal/auth"
	"github.com/yanizio/streamsite/internal/component"
	"github.com/yanizio/streamsite/internal/content"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component serves announcement CRUD.
type Component struct {
	env *component.Env
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "announcements" }

// Init captures the shared Env.
func (c *Component) Init(env *component.Env) error {
	c.env = env
	return nil
}

// Routes builds the router mounted at “/api/announcements”.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(c.env.Gate().Guard)

	r.Get("/", c.list)
	r.Get("/featured", c.featured)
	r.Get("/{id}", c.get)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Post("/", c.create)
		r.Put("/{id}", c.update)
		r.Delete("/{id}", c.remove)
		r.Post("/{id}/feature", c.feature)
	})
	return r
}

// Register component at program start.
func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) list(w http.ResponseWriter, r *http.Request) {
	rows, err := c.env.Store.ListAnnouncements(r.Context())
	if err != nil {
		component.StoreFailure(w, c.env.Log, "list announcements", err, "", "Failed to get announcements")
		return
	}
	component.WriteJSON(w, http.StatusOK, rows)
}

func (c *Component) featured(w http.ResponseWriter, r *http.Request) {
	a, err := c.env.Store.FeaturedAnnouncement(r.Context())
	if err != nil {
		component.StoreFailure(w, c.env.Log, "featured announcement", err,
			"No featured announcement found", "Failed to get featured announcement")
		return
	}
	component.WriteJSON(w, http.StatusOK, a)
}

func (c *Component) get(w http.ResponseWriter, r *http.Request) {
	id, ok := component.IDParam(w, r)
	if !ok {
		return
	}
	a, err := c.env.Store.GetAnnouncement(r.Context(), id)
	if err != nil {
		component.StoreFailure(w, c.env.Log, "get announcement", err,
			"Announcement not found", "Failed to get announcement")
		return
	}
	component.WriteJSON(w, http.StatusOK, a)
}

func (c *Component) create(w http.ResponseWriter, r *http.Request) {
	var in content.AnnouncementData
	if err := component.DecodeInto(r, &in); err != nil {
		component.Invalid(w, "Invalid announcement data", err)
		return
	}
	a, err := c.env.Store.CreateAnnouncement(r.Context(), in)
	if err != nil {
		component.StoreFailure(w, c.env.Log, "create announcement", err, "", "Failed to create announcement")
		return
	}
	c.env.Record(r.Context(), "Create Announcement",
		fmt.Sprintf("Created announcement %q", a.Title), content.CategoryAnnouncement)
	component.WriteJSON(w, http.StatusCreated, a)
}

func (c *Component) update(w http.ResponseWriter, r *http.Request) {
	id, ok := component.IDParam(w, r)
	if !ok {
		return
	}
	cur, err := c.env.Store.GetAnnouncement(r.Context(), id)
	if err != nil {
		component.StoreFailure(w, c.env.Log, "get announcement", err,
			"Announcement not found", "Failed to update announcement")
		return
	}
	in := cur.AnnouncementData
	if err := component.DecodeInto(r, &in); err != nil {
		component.Invalid(w, "Invalid announcement data", err)
		return
	}
	a, err := c.env.Store.UpdateAnnouncement(r.Context(), id, in)
	if err != nil {
		component.StoreFailure(w, c.env.Log, "update announcement", err,
			"Announcement not found", "Failed to update announcement")
		return
	}
	c.env.Record(r.Context(), "Update Announcement",
		fmt.Sprintf("Updated announcement %q", a.Title), content.CategoryAnnouncement)
	component.WriteJSON(w, http.StatusOK, a)
}

func (c *Component) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := component.IDParam(w, r)
	if !ok {
		return
	}
	a, err := c.env.Store.GetAnnouncement(r.Context(), id)
	if err == nil {
		err = c.env.Store.DeleteAnnouncement(r.Context(), id)
	}
	if err != nil {
		component.StoreFailure(w, c.env.Log, "delete announcement", err,
			"Announcement not found", "Failed to delete announcement")
		return
	}
	c.env.Record(r.Context(), "Delete Announcement",
		fmt.Sprintf("Deleted announcement %q", a.Title), content.CategoryAnnouncement)
	component.Message(w, http.StatusOK, "Announcement deleted successfully")
}

func (c *Component) feature(w http.ResponseWriter, r *http.Request) {
	id, ok := component.IDParam(w, r)
	if !ok {
		return
	}
	a, err := c.env.Store.GetAnnouncement(r.Context(), id)
	if err == nil {
		err = c.env.Store.SetFeaturedAnnouncement(r.Context(), id)
	}
	if err != nil {
		component.StoreFailure(w, c.env.Log, "feature announcement", err,
			"Announcement not found", "Failed to set featured announcement")
		return
	}
	c.env.Record(r.Context(), "Feature Announcement",
		fmt.Sprintf("Set announcement %q as featured", a.Title), content.CategoryAnnouncement)
	component.Message(w, http.StatusOK, "Announcement set as featured")
}
