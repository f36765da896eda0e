package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"salespulse/internal/infrastructure"
)

// AuditLog wraps endpoints that destroy data. It logs the caller before the
// handler runs and the outcome after, so an aborted clear still leaves a
// record of who asked for it.
func AuditLog(logger *slog.Logger) func(next http.Handler) http.Handler {
	audit := infrastructure.WithComponent(logger, "audit")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()
			caller := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", GetRealIP(r)),
				slog.String("user_agent", r.UserAgent()),
			}
			audit.InfoContext(ctx, "destructive request received", caller...)

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			if status >= http.StatusBadRequest {
				level = slog.LevelWarn
			}
			audit.Log(ctx, level, "destructive request finished", append(caller,
				slog.Int("status", status),
				slog.Duration("duration", time.Since(start)))...)
		})
	}
}
