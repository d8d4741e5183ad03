package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/CreativeUnicorns/extprefs"
)

// LoggerMiddleware logs one line per request with the matched route and, for profile
// routes, the profile and preference key. Server errors are logged at warn level.
func LoggerMiddleware(logger extprefs.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			t0 := time.Now()
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				args := []any{
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"latency_ms", float64(time.Since(t0).Microseconds()) / 1000.0,
					"request_id", middleware.GetReqID(r.Context()),
				}
				if rctx := chi.RouteContext(r.Context()); rctx != nil {
					if pattern := rctx.RoutePattern(); pattern != "" {
						args = append(args, "route", pattern)
					}
					if profile := rctx.URLParam("profile"); profile != "" {
						args = append(args, "profile", profile)
					}
					if key := rctx.URLParam("key"); key != "" {
						args = append(args, "key", key)
					}
				}

				if status >= http.StatusInternalServerError {
					logger.Warn("Request failed", args...)
					return
				}
				logger.Info("Served request", args...)
			}()
			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}
