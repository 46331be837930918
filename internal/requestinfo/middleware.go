// internal/requestinfo/middleware.go
//
// HTTP middleware that enriches each request with *RequestInfo.
//
/*
Context
--------
This handler sits high in the chain, right after security headers and
metrics.  For every request it:

  1. Parses the User-Agent header and Accept-Language list.
  2. Extracts the left-most client IP from X-Forwarded-For or X-Real-IP,
     falling back to `r.RemoteAddr`.
  3. Performs a GeoLite2 lookup when a database is configured.
  4. Stores a `*RequestInfo` value in `request.Context` under an
     unexported key, so admin handlers can describe the client in activity
     notifications without reparsing.

Instrumentation
---------------
At debug level each invocation logs client IP, country, browser, device,
bot flag, and path.

Notes
-----
  • All look-ups are read-only, so the middleware is safe under heavy
    concurrency.
*/
package requestinfo

import (
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

/*──────────────────────────── middleware ───────────────────────────────────*/

// Enrich wraps an http.Handler, attaches *RequestInfo, and forwards.
func (res *Resolver) Enrich(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := &RequestInfo{
			UA:        parseUA(r.UserAgent(), r.Header.Get("Accept-Language")),
			Geo:       res.lookupGeo(clientIP(r)),
			Path:      r.URL.Path,
			Timestamp: time.Now().UTC(),
		}

		zap.S().Debugw("request info",
			"ip", info.Geo.IP,
			"country", info.Geo.CountryISO,
			"browser", info.UA.Browser,
			"device", info.UA.Device,
			"bot", info.UA.IsBot,
			"path", info.Path,
		)

		next.ServeHTTP(w, r.WithContext(WithInfo(r.Context(), info)))
	})
}

/*──────────────────────────── client IP helper ─────────────────────────────*/

// clientIP extracts the left-most address from X-Forwarded-For or
// X-Real-IP, falling back to r.RemoteAddr ("ip:port").
func clientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip
			}
		}
	}
	if xrip := r.Header.Get("X-Real-Ip"); xrip != "" {
		if ip := net.ParseIP(strings.TrimSpace(xrip)); ip != nil {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(host)
	}
	return nil
}
