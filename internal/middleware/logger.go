// AngelaMos | 2026
// logger.go

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

const logFieldsKey contextKey = "log_fields"

// logFields is shared between Logger and inner middleware that learn about
// the caller after routing.
type logFields struct {
	userID string
}

func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			fields := &logFields{}

			next.ServeHTTP(ww, r.WithContext(
				context.WithValue(r.Context(), logFieldsKey, fields),
			))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", GetRequestID(r.Context()),
			}
			if fields.userID != "" {
				attrs = append(attrs, "user_id", fields.userID)
			}

			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}

			logger.Log(r.Context(), level, "http request", attrs...)
		})
	}
}

func recordUser(ctx context.Context, userID string) {
	if fields, ok := ctx.Value(logFieldsKey).(*logFields); ok {
		fields.userID = userID
	}
}
