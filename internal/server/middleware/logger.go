package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// NewRequestLogger logs every request admitted past the metadata stage,
// before authentication runs. Upgraded websocket requests are logged once
// on arrival; the connection's own logger takes over after that.
func NewRequestLogger(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := "unknown"
			if reqMeta, ok := ReqMetadataFrom(r.Context()); ok {
				ip = reqMeta.IP
			}

			start := time.Now()
			logger.Info("HTTP request admitted",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("ip", ip),
			)

			next.ServeHTTP(w, r)

			logger.Debug("HTTP request handled",
				slog.String("path", r.URL.Path),
				slog.Duration("elapsed", time.Since(start)),
			)
		})
	}
}
