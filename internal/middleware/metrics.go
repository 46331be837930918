package middleware

import (
	"net/http"
	"strconv"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/yanizio/streamsite/internal/metrics"
)

// Metrics counts every response by method and status class (2xx, 4xx, …).
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequestsTotal.
			WithLabelValues(r.Method, strconv.Itoa(status/100)+"xx").
			Inc()
	})
}
