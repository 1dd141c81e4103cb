package logger

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/narwhalmedia/ottcore/pkg/interfaces"
)

// HTTPMiddleware logs each request and stores a request-scoped logger in the context.
func HTTPMiddleware(log interfaces.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLog := log.WithContext(r.Context())
			ctx := WithContext(r.Context(), reqLog)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			fields := []interfaces.Field{
				interfaces.String("method", r.Method),
				interfaces.String("route", route),
				interfaces.Int("status", status),
				interfaces.Any("duration_ms", time.Since(start).Milliseconds()),
			}

			switch {
			case status >= http.StatusInternalServerError:
				reqLog.Error("HTTP request failed", fields...)
			case status >= http.StatusBadRequest:
				reqLog.Warn("HTTP request rejected", fields...)
			default:
				reqLog.Info("HTTP request completed", fields...)
			}
		})
	}
}
