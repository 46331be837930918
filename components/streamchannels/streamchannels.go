// components/streamchannels/streamchannels.go
//
// Stream-channels component – the Twitch channels listed on the site.
//
// Routes (mounted at /api/stream-channels)
// ----------------------------------------
//   GET    /        list in insertion order
//   GET    /{id}    one channel
//   POST   /        create          (admin)
//   PUT    /{id}    partial update  (admin)
//   DELETE /{id}    delete          (admin)
//
// Setting isMain on a create or update clears it on every other channel;
// the store enforces that.
//
//------------------------------------------------------------------------------

package streamchannels

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/streamsite/internal/auth"
	"github.com/yanizio/streamsite/internal/component"
	"github.com/yanizio/streamsite/internal/content"
)

var _ component.Component = (*Component)(nil)

// Component serves stream-channel CRUD.
type Component struct {
	env *component.Env
}

/*────────────────── component.Component methods ───────────────────────────*/

func (c *Component) Name() string { return "stream-channels" }

func (c *Component) Init(env *component.Env) error {
	c.env = env
	return nil
}

func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(c.env.Gate().Guard)

	r.Get("/", c.list)
	r.Get("/{id}", c.get)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Post("/", c.create)
		r.Put("/{id}", c.update)
		r.Delete("/{id}", c.remove)
	})
	return r
}

func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) list(w http.ResponseWriter, r *http.Request) {
	rows, err := c.env.Store.ListStreamChannels(r.Context())
	if err != nil {
		component.StoreFailure(w, c.env.Log, "list stream channels", err, "", "Failed to get stream channels")
		return
	}
	component.WriteJSON(w, http.StatusOK, rows)
}

func (c *Component) get(w http.ResponseWriter, r *http.Request) {
	id, ok := component.IDParam(w, r)
	if !ok {
		return
	}
	ch, err := c.env.Store.GetStreamChannel(r.Context(), id)
	if err != nil {
		component.StoreFailure(w, c.env.Log, "get stream channel", err,
			"Stream channel not found", "Failed to get stream channel")
		return
	}
	component.WriteJSON(w, http.StatusOK, ch)
}

func (c *Component) create(w http.ResponseWriter, r *http.Request) {
	var in content.StreamChannelData
	if err := component.DecodeInto(r, &in); err != nil {
		component.Invalid(w, "Invalid stream channel data", err)
		return
	}
	ch, err := c.env.Store.CreateStreamChannel(r.Context(), in)
	if err != nil {
		component.StoreFailure(w, c.env.Log, "create stream channel", err, "", "Failed to create stream channel")
		return
	}
	c.env.Record(r.Context(), "Create Stream Channel",
		fmt.Sprintf("Created stream channel %q", ch.DisplayName), content.CategoryStream)
	component.WriteJSON(w, http.StatusCreated, ch)
}

func (c *Component) update(w http.ResponseWriter, r *http.Request) {
	id, ok := component.IDParam(w, r)
	if !ok {
		return
	}
	cur, err := c.env.Store.GetStreamChannel(r.Context(), id)
	if err != nil {
		component.StoreFailure(w, c.env.Log, "get stream channel", err,
			"Stream channel not found", "Failed to update stream channel")
		return
	}
	in := cur.StreamChannelData
	if err := component.DecodeInto(r, &in); err != nil {
		component.Invalid(w, "Invalid stream channel data", err)
		return
	}
	ch, err := c.env.Store.UpdateStreamChannel(r.Context(), id, in)
	if err != nil {
		component.StoreFailure(w, c.env.Log, "update stream channel", err,
			"Stream channel not found", "Failed to update stream channel")
		return
	}
	c.env.Record(r.Context(), "Update Stream Channel",
		fmt.Sprintf("Updated stream channel %q", ch.DisplayName), content.CategoryStream)
	component.WriteJSON(w, http.StatusOK, ch)
}

func (c *Component) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := component.IDParam(w, r)
	if !ok {
		return
	}
	ch, err := c.env.Store.GetStreamChannel(r.Context(), id)
	if err == nil {
		err = c.env.Store.DeleteStreamChannel(r.Context(), id)
	}
	if err != nil {
		component.StoreFailure(w, c.env.Log, "delete stream channel", err,
			"Stream channel not found", "Failed to delete stream channel")
		return
	}
	c.env.Record(r.Context(), "Delete Stream Channel",
		fmt.Sprintf("Deleted stream channel %q", ch.DisplayName), content.CategoryStream)
	component.Message(w, http.StatusOK, "Stream channel deleted successfully")
}
