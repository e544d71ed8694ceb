package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/SteffMet/Surge-sub001/pkg/session"
)

// AppClaims defines our custom JWT claims structure. The subject carries the
// participant ID; Active mirrors the account state at token issue time so a
// deactivated account is turned away at the handshake.
type AppClaims struct {
	DisplayName string `json:"name,omitempty"`
	Active      *bool  `json:"active,omitempty"`
	jwt.RegisteredClaims
}

// NewAuthMiddleware verifies the handshake credential and stamps the resolved
// identity into the request metadata. Any failure here is an
// AuthenticationFailed as far as the client is concerned: 401, no upgrade.
func NewAuthMiddleware(logger *slog.Logger, jwtSecret string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// couldn't extract metadata from request so something went wrong with previous middlewares
			reqMeta, ok := ReqMetadataFrom(r.Context())
			if !ok {
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			tokenString := bearerToken(r)
			if tokenString == "" {
				if cookie, err := r.Cookie("session-token"); err == nil {
					tokenString = cookie.Value
				}
			}
			if tokenString == "" {
				logger.Warn("Handshake without credential", slog.String("ip", reqMeta.IP))
				http.Error(w, "Missing token", http.StatusUnauthorized)
				return
			}

			// Parse and validate the JWT token with HMAC signing. Expiry and
			// not-before are enforced by the parser.
			token, err := jwt.ParseWithClaims(tokenString, &AppClaims{}, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				logger.Warn("Invalid token presented", slog.String("ip", reqMeta.IP), slog.Any("error", err))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(*AppClaims)
			if !ok {
				logger.Error("Failed to parse custom JWT claims", slog.String("ip", reqMeta.IP))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if claims.Subject == "" {
				logger.Warn("Valid token missing 'sub' claim", slog.String("ip", reqMeta.IP))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if claims.Active != nil && !*claims.Active {
				logger.Warn("Token for inactive account rejected",
					slog.String("ip", reqMeta.IP),
					slog.String("participantID", claims.Subject),
				)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			reqMeta.Identity = session.Identity{
				ParticipantID: claims.Subject,
				DisplayName:   claims.DisplayName,
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
