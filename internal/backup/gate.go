// internal/backup/gate.go
//
// Gate is the lock between snapshot/restore work and the content API.
// Manager takes it exclusively; Guard wraps content routes in a shared
// hold.  The backups component itself is never guarded.
package backup

import (
	"net/http"
	"sync"
)

// Gate serialises snapshot and restore work against content requests.
// Snapshots and restores hold it exclusively; API requests share it.
//
// Handlers behind Guard must never call into Manager, or they would wait
// on themselves.
type Gate struct {
	mu sync.RWMutex
}

// Exclusive runs fn with every content request held off.
func (g *Gate) Exclusive(fn func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn()
}

// Shared runs fn alongside other shared holders.
func (g *Gate) Shared(fn func() error) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return fn()
}

// Guard is chi-compatible middleware that holds the shared side for the
// duration of the request.
func (g *Gate) Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.mu.RLock()
		defer g.mu.RUnlock()
		next.ServeHTTP(w, r)
	})
}
