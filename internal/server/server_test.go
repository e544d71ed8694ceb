package server_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SteffMet/Surge-sub001/internal/server"
	"github.com/SteffMet/Surge-sub001/pkg/config"
	"github.com/SteffMet/Surge-sub001/pkg/provider"
	"github.com/SteffMet/Surge-sub001/pkg/session"
)

type fakeConn struct {
	id uuid.UUID
}

func (c *fakeConn) ID() uuid.UUID { return c.id }

func (c *fakeConn) Send(message []byte) {}

func newTestApp(t *testing.T) *server.App {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	cfg := &config.Config{
		Server: config.ServerConfig{
			Address: ":0",
			Auth:    config.AuthConfig{JWTSecret: "test-secret"},
		},
		Transport: config.TransportConfig{ReadTimeout: time.Minute},
		Save:      config.SaveConfig{Timeout: time.Second},
	}
	return server.NewApp(logger, context.Background(), cfg, server.Providers{
		Access:    provider.NewStaticAccess(),
		Documents: provider.NewStaticDocuments(),
		Store:     provider.NewMemoryStore(),
		Directory: provider.NewStaticDirectory(),
	})
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(t)

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRoomStatusUnknownRoom(t *testing.T) {
	app := newTestApp(t)

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rooms/nope/status", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoomStatusReportsParticipantsAndLocks(t *testing.T) {
	app := newTestApp(t)
	coord := app.Coordinator()

	conn := &fakeConn{id: uuid.New()}
	require.NoError(t, coord.Register(conn, session.Identity{ParticipantID: "alice", DisplayName: "Alice"}))
	_, err := coord.Join(context.Background(), conn.ID(), "doc1", "ws1")
	require.NoError(t, err)
	_, err = coord.RequestLock(conn.ID(), "intro")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rooms/doc1/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var status struct {
		DocumentID       string                    `json:"documentId"`
		ParticipantCount int                       `json:"participantCount"`
		Participants     []session.ParticipantInfo `json:"participants"`
		Locks            []session.LockInfo        `json:"locks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "doc1", status.DocumentID)
	assert.Equal(t, 1, status.ParticipantCount)
	require.Len(t, status.Locks, 1)
	assert.Equal(t, "intro", status.Locks[0].SectionID)
}

func TestWebsocketEndpointRequiresAuth(t *testing.T) {
	app := newTestApp(t)

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
