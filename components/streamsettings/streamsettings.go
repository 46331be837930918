// components/streamsettings/streamsettings.go
//
// Stream-settings component – the singleton that drives the hero embed.
//
// Routes (mounted at /api/stream-settings)
// ----------------------------------------
//   GET  /   current settings, JSON null when never set
//   PUT  /   partial upsert (admin)
//
//------------------------------------------------------------------------------

package streamsettings

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/streamsite/internal/auth"
	"github.com/yanizio/streamsite/internal/component"
	"github.com/yanizio/streamsite/internal/content"
)

var _ component.Component = (*Component)(nil)

// Component serves the stream-settings singleton.
type Component struct {
	env *component.Env
}

func (c *Component) Name() string { return "stream-settings" }

func (c *Component) Init(env *component.Env) error {
	c.env = env
	return nil
}

func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(c.env.Gate().Guard)
	r.Get("/", c.get)
	r.With(auth.RequireAdmin).Put("/", c.put)
	return r
}

func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) get(w http.ResponseWriter, r *http.Request) {
	s, err := c.env.Store.GetStreamSettings(r.Context())
	if err != nil {
		component.StoreFailure(w, c.env.Log, "get stream settings", err, "", "Failed to get stream settings")
		return
	}
	component.WriteJSON(w, http.StatusOK, s)
}

func (c *Component) put(w http.ResponseWriter, r *http.Request) {
	cur, err := c.env.Store.GetStreamSettings(r.Context())
	if err != nil {
		component.StoreFailure(w, c.env.Log, "get stream settings", err, "", "Failed to update stream settings")
		return
	}
	in := content.StreamSettingData{OfflineBehavior: content.DefaultOfflineBehavior}
	if cur != nil {
		in = cur.StreamSettingData
	}
	if err := component.DecodeInto(r, &in); err != nil {
		component.Invalid(w, "Invalid stream settings data", err)
		return
	}
	s, err := c.env.Store.PutStreamSettings(r.Context(), in)
	if err != nil {
		component.StoreFailure(w, c.env.Log, "put stream settings", err, "", "Failed to update stream settings")
		return
	}
	c.env.Record(r.Context(), "Update Stream Settings",
		"Updated stream settings with featured channel: "+s.FeaturedChannel, content.CategoryStream)
	component.WriteJSON(w, http.StatusOK, s)
}
