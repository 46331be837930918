// Package middleware holds small, composable HTTP wrappers.
package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ForceHTTPS returns middleware that, when enabled, issues a 308 Permanent
// Redirect to the HTTPS version of the same URL for plain-HTTP requests.
// Loopback hosts and requests a proxy already marked as HTTPS
// (X-Forwarded-Proto) pass through unchanged.
func ForceHTTPS(enabled bool) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		if !enabled {
			return h
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS != nil || isLoopback(r.Host) ||
				strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
				h.ServeHTTP(w, r)
				return
			}
			target := "https://" + r.Host + r.URL.RequestURI()
			http.Redirect(w, r, target, http.StatusPermanentRedirect)
		})
	}
}

// isLoopback reports whether host (with optional :port) is a dev host.
func isLoopback(host string) bool {
	h := stripPort(host)
	if h == "localhost" {
		return true
	}
	ip := net.ParseIP(h)
	return ip != nil && ip.IsLoopback()
}

// stripPort removes the :port suffix from Host when present.
func stripPort(h string) string {
	if host, _, err := net.SplitHostPort(h); err == nil {
		return strings.Trim(host, "[]")
	}
	return h
}
