package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SteffMet/Surge-sub001/internal/server/middleware"
	"github.com/SteffMet/Surge-sub001/pkg/config"
	"github.com/SteffMet/Surge-sub001/pkg/session"
)

// limiterStack builds metadata → identity stamp → limiter, with a canned
// identity standing in for the auth middleware.
func limiterStack(identity session.Identity, counter middleware.ConnectionCounter, cycler middleware.ConnectionCycler, cfg config.ConnectionLimitConfig) (http.Handler, *bool) {
	reached := new(bool)
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*reached = true
		w.WriteHeader(http.StatusOK)
	})
	stampIdentity := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if meta, ok := middleware.ReqMetadataFrom(r.Context()); ok {
				meta.Identity = identity
			}
			next.ServeHTTP(w, r)
		})
	}
	return middleware.Chain(inner,
		middleware.RequestMetadataMiddleware(),
		stampIdentity,
		middleware.NewConnectionLimiter(testLogger(), counter, cycler, cfg),
	), reached
}

func TestLimiterDisabledWhenMaxIsZero(t *testing.T) {
	handler, reached := limiterStack(
		session.Identity{ParticipantID: "alice"},
		func(string) (int, error) { return 99, nil },
		func(string) {},
		config.ConnectionLimitConfig{MaxPerUser: 0},
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, *reached)
}

func TestLimiterRejectsOverLimit(t *testing.T) {
	handler, reached := limiterStack(
		session.Identity{ParticipantID: "alice"},
		func(string) (int, error) { return 2, nil },
		func(string) {},
		config.ConnectionLimitConfig{MaxPerUser: 2, Mode: "reject"},
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, *reached)
}

func TestLimiterCyclesOldestConnection(t *testing.T) {
	cycled := ""
	handler, reached := limiterStack(
		session.Identity{ParticipantID: "alice"},
		func(string) (int, error) { return 2, nil },
		func(participantID string) { cycled = participantID },
		config.ConnectionLimitConfig{MaxPerUser: 2, Mode: "cycle"},
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, *reached)
	assert.Equal(t, "alice", cycled)
}

func TestLimiterBlocksAnonymousRequests(t *testing.T) {
	handler, reached := limiterStack(
		session.Identity{},
		func(string) (int, error) { return 0, nil },
		func(string) {},
		config.ConnectionLimitConfig{MaxPerUser: 1, Mode: "reject"},
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, *reached)
}
