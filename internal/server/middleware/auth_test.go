package middleware_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SteffMet/Surge-sub001/internal/server/middleware"
	"github.com/SteffMet/Surge-sub001/pkg/session"
)

const testSecret = "test-secret"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func signToken(t *testing.T, claims middleware.AppClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

// authStack wires metadata + auth the way the server does, capturing the
// identity the inner handler observes.
func authStack(captured *session.Identity) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if meta, ok := middleware.ReqMetadataFrom(r.Context()); ok {
			*captured = meta.Identity
		}
		w.WriteHeader(http.StatusOK)
	})
	return middleware.Chain(inner,
		middleware.RequestMetadataMiddleware(),
		middleware.NewAuthMiddleware(testLogger(), testSecret),
	)
}

func TestAuthAcceptsValidBearerToken(t *testing.T) {
	var identity session.Identity
	handler := authStack(&identity)

	token := signToken(t, middleware.AppClaims{
		DisplayName: "Alice",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", identity.ParticipantID)
	assert.Equal(t, "Alice", identity.DisplayName)
}

func TestAuthAcceptsSessionCookie(t *testing.T) {
	var identity session.Identity
	handler := authStack(&identity)

	token := signToken(t, middleware.AppClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "bob",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.AddCookie(&http.Cookie{Name: "session-token", Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bob", identity.ParticipantID)
}

func TestAuthRejections(t *testing.T) {
	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name:  "missing token",
			token: func(t *testing.T) string { return "" },
		},
		{
			name:  "garbage token",
			token: func(t *testing.T) string { return "not-a-jwt" },
		},
		{
			name: "expired token",
			token: func(t *testing.T) string {
				return signToken(t, middleware.AppClaims{
					RegisteredClaims: jwt.RegisteredClaims{
						Subject:   "alice",
						ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
					},
				})
			},
		},
		{
			name: "missing subject",
			token: func(t *testing.T) string {
				return signToken(t, middleware.AppClaims{
					RegisteredClaims: jwt.RegisteredClaims{
						ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
					},
				})
			},
		},
		{
			name: "inactive account",
			token: func(t *testing.T) string {
				inactive := false
				return signToken(t, middleware.AppClaims{
					Active: &inactive,
					RegisteredClaims: jwt.RegisteredClaims{
						Subject:   "alice",
						ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
					},
				})
			},
		},
		{
			name: "wrong signing key",
			token: func(t *testing.T) string {
				token := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.AppClaims{
					RegisteredClaims: jwt.RegisteredClaims{
						Subject:   "alice",
						ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
					},
				})
				signed, err := token.SignedString([]byte("some-other-secret"))
				require.NoError(t, err)
				return signed
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var identity session.Identity
			handler := authStack(&identity)

			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if token := tt.token(t); token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Empty(t, identity.ParticipantID)
		})
	}
}
