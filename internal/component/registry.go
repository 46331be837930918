// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() in an init() function.  At boot, Mount hands every
// component the shared Env through Init and mounts its Routes() at
// “/api/<name>”.

package component

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Initializer is optional.  If a Component implements it, Mount calls
// Init(env) once before asking for its routes.
type Initializer interface {
	Init(*Env) error
}

// Component contract.
//
// Routes() mounts the component's JSON endpoints, e.g:
//
//	r := chi.NewRouter()
//	r.Get("/", c.list)
//	r.With(auth.RequireAdmin).Post("/", c.create)
//	return r
type Component interface {
	Name() string
	Routes() chi.Router
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is invoked from component init() functions.
func Register(c Component) {
	mu.Lock()
	registry[c.Name()] = c
	mu.Unlock()
}

// All returns every registered component sorted by name.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Mount initialises every registered component and attaches its router
// under /api/<name>.
func Mount(r chi.Router, env *Env) error {
	for _, c := range All() {
		if in, ok := c.(Initializer); ok {
			if err := in.Init(env); err != nil {
				return fmt.Errorf("component %s: init: %w", c.Name(), err)
			}
		}
		r.Mount("/api/"+c.Name(), c.Routes())
		env.logger().Debug("component mounted", zap.String("name", c.Name()))
	}
	return nil
}
