package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/SteffMet/Surge-sub001/internal/router"
	"github.com/SteffMet/Surge-sub001/internal/server/middleware"
	"github.com/SteffMet/Surge-sub001/pkg/config"
	"github.com/SteffMet/Surge-sub001/pkg/provider"
	"github.com/SteffMet/Surge-sub001/pkg/session"
	"github.com/SteffMet/Surge-sub001/pkg/session/coordinator"
	"github.com/SteffMet/Surge-sub001/pkg/transport"
)

// Providers bundles the external collaborators injected into the app.
type Providers struct {
	Access    provider.AccessChecker
	Documents provider.DocumentChecker
	Store     provider.DocumentStore
	Directory provider.UserDirectory
}

type App struct {
	logger      *slog.Logger
	coord       *coordinator.Coordinator
	eventRouter *router.EventRouter
	wg          sync.WaitGroup
	http        *http.Server
	config      *config.Config

	ctx context.Context
}

func NewApp(logger *slog.Logger, rootCtx context.Context, cfg *config.Config, providers Providers) *App {
	coord := coordinator.New(logger, providers.Access, providers.Documents, providers.Store, providers.Directory)
	eventRouter := router.NewEventRouter(logger, coord, cfg.Save.Timeout)

	app := &App{
		logger:      logger,
		coord:       coord,
		eventRouter: eventRouter,
		config:      cfg,
		ctx:         rootCtx,
	}

	// Create a cycler function that closes over the coordinator and logger.
	connCycler := func(participantID string) {
		oldest, found := coord.OldestParticipantConnection(participantID)
		if !found {
			return
		}
		logger.Info("Cycling connection: closing oldest", slog.String("participantID", participantID), slog.String("connID", oldest.ID().String()))
		if closer, ok := oldest.(interface{ Close(error) }); ok {
			closer.Close(errors.New("connection cycled by new connection"))
		}
	}

	r := mux.NewRouter()
	r.Handle("/ws",
		middleware.Chain(http.HandlerFunc(app.upgradeHandler),
			middleware.RequestMetadataMiddleware(),
			middleware.NewRequestLogger(logger),
			middleware.NewAuthMiddleware(logger, cfg.Server.Auth.JWTSecret),
			middleware.NewConnectionLimiter(
				logger,
				coord.CountParticipantConnections,
				connCycler,
				cfg.Server.ConnectionLimit,
			),
		),
	)
	r.HandleFunc("/rooms/{documentID}/status", app.roomStatusHandler).Methods(http.MethodGet)
	r.HandleFunc("/healthz", app.healthHandler).Methods(http.MethodGet)

	app.http = &http.Server{Addr: cfg.Server.Address, Handler: r, BaseContext: func(l net.Listener) context.Context {
		return app.ctx
	}}

	return app
}

// Coordinator exposes the app's coordinator for embedding setups.
func (a *App) Coordinator() *coordinator.Coordinator {
	return a.coord
}

// Handler exposes the app's HTTP handler for embedding and tests.
func (a *App) Handler() http.Handler {
	return a.http.Handler
}

func (a *App) Run() error {
	go func() {
		a.logger.Info("Server starting", slog.String("addr", a.http.Addr))
		if err := a.http.ListenAndServe(); err != http.ErrServerClosed {
			a.logger.Error("HTTP server failed", slog.Any("error", err))
		}
	}()

	<-a.ctx.Done()
	return a.Shutdown()
}

// upgradeHandler is the gateway: by the time it runs, the credential has been
// verified and the identity resolved. It admits the connection, wires the
// dispatch and reaper hooks, and blocks until the connection terminates.
func (a *App) upgradeHandler(w http.ResponseWriter, r *http.Request) {
	reqMeta, _ := middleware.ReqMetadataFrom(r.Context())
	connLogger := a.logger.With(
		slog.String("remoteAddr", reqMeta.IP),
		slog.String("participantID", reqMeta.Identity.ParticipantID),
	)

	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		a.logger.Error("Failed to accept websocket connection", slog.Any("error", err))
		return
	}

	conn := transport.NewConnection(
		r.Context(),
		&a.wg,
		wsConn,
		transport.ConnectionConfig{ReadTimeout: a.config.Transport.ReadTimeout},
		nil,
		nil,
		a.logger,
	)
	if err := a.coord.Register(conn, reqMeta.Identity); err != nil {
		connLogger.Error("Failed to register connection state", slog.Any("error", err))
		wsConn.Close(websocket.StatusInternalError, "registration failed")
		return
	}

	conn.SetOnMessageHandler(a.eventRouter.HandleMessage)
	// The reaper: transport closure funnels into Disconnect, which runs the
	// same cleanup as an explicit leave and drops the connection entirely.
	conn.SetOnCloseHandler(func(id uuid.UUID, err error) {
		connLogger.Info("Reaping connection after closure", slog.String("connID", id.String()))
		if dErr := a.coord.Disconnect(id); dErr != nil {
			connLogger.Error("Failed to reap connection state", slog.Any("error", dErr))
		}
	})

	connLogger.Info("Participant connection fully established", slog.String("connID", conn.ID().String()))
	conn.Run()
	<-conn.Done()
}

type roomStatusResponse struct {
	DocumentID       string                    `json:"documentId"`
	ParticipantCount int                       `json:"participantCount"`
	Participants     []session.ParticipantInfo `json:"participants"`
	Locks            []session.LockInfo        `json:"locks"`
}

// roomStatusHandler serves the monitoring surface over plain HTTP.
func (a *App) roomStatusHandler(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["documentID"]

	snap, err := a.coord.RoomStatus(documentID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		a.logger.Error("Room status lookup failed", slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(roomStatusResponse{
		DocumentID:       snap.DocumentID,
		ParticipantCount: len(snap.Participants),
		Participants:     snap.Participants,
		Locks:            snap.Locks,
	}); err != nil {
		a.logger.Error("Failed to encode room status", slog.Any("error", err))
	}
}

func (a *App) healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Shutdown runs the graceful shutdown sequence.
func (a *App) Shutdown() error {
	a.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.http.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// close all active WebSocket connections.
	a.logger.Info("Closing all active connections...")
	for _, conn := range a.coord.Connections() {
		if closer, ok := conn.(interface{ Close(error) }); ok {
			closer.Close(errors.New("graceful shutdown"))
		}
	}

	// wait for all connection goroutines to finish their cleanup.
	a.wg.Wait()
	a.logger.Info("Server shut down gracefully.")
	return nil
}
