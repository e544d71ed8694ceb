package middleware

import (
	"log/slog"
	"net/http"

	"github.com/SteffMet/Surge-sub001/pkg/config"
)

type ConnectionCounter func(participantID string) (int, error)
type ConnectionCycler func(participantID string)

// NewConnectionLimiter caps how many live connections a single participant may
// hold. It must run after auth, which resolves the identity it keys on.
func NewConnectionLimiter(
	logger *slog.Logger,
	counter ConnectionCounter,
	cycler ConnectionCycler,
	cfg config.ConnectionLimitConfig,
) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.MaxPerUser <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			reqMeta, ok := ReqMetadataFrom(r.Context())
			if !ok {
				logger.Error("Connection limiter could not find request metadata in context. Check middleware order.")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			if reqMeta.Identity.ParticipantID == "" {
				logger.Warn("Connection limiter could not determine participant from metadata; blocking request for safety.")
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			count, err := counter(reqMeta.Identity.ParticipantID)
			if err != nil {
				logger.Error("Connection limiter failed to get connection count", slog.Any("error", err))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			if count < cfg.MaxPerUser {
				next.ServeHTTP(w, r)
				return
			}

			logger.Warn("Participant connection limit reached",
				slog.String("participantID", reqMeta.Identity.ParticipantID),
				slog.Int("count", count),
			)
			switch cfg.Mode {
			case "reject":
				http.Error(w, "Too Many Active Connections", http.StatusTooManyRequests)
			case "cycle":
				cycler(reqMeta.Identity.ParticipantID)
				next.ServeHTTP(w, r)
			default:
				logger.Error("Invalid connection limit mode configured", slog.String("mode", cfg.Mode))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		})
	}
}
