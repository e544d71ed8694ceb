// Package coordinator holds the single authoritative in-memory state of all
// collaborative editing sessions: the connection table, the rooms, and the
// advisory section locks. All state is ephemeral; participants rebuild it by
// rejoining after a restart.
package coordinator

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SteffMet/Surge-sub001/pkg/provider"
	"github.com/SteffMet/Surge-sub001/pkg/session"
)

// Coordinator owns all session, room and lock state. It is safe for
// concurrent use. The registry mutex guards the connection and room tables;
// each room carries its own mutex so one room's load never serializes
// another's.
//
// Lock ordering: registry mutex before room mutex, never the reverse. Room
// broadcasts run under the room mutex alone, so fan-out in one room never
// blocks registration or traffic in another.
type Coordinator struct {
	logger    *slog.Logger
	access    provider.AccessChecker
	docs      provider.DocumentChecker
	store     provider.DocumentStore
	directory provider.UserDirectory

	mu    sync.RWMutex
	conns map[uuid.UUID]*trackedConn
	rooms map[string]*room
}

// trackedConn is a live, authenticated connection. Its room pointer is
// guarded by the Coordinator's registry mutex.
type trackedConn struct {
	id        uuid.UUID
	conn      session.Conn
	identity  session.Identity
	createdAt time.Time
	room      *room // nil until the connection joins a document
}

type room struct {
	documentID string

	// mu serializes every state transition of this room: membership,
	// presence, locks, sequence assignment and broadcast snapshots.
	mu           sync.Mutex
	participants map[uuid.UUID]*session.Participant
	locks        map[string]*session.Lock // keyed by sectionID; the room is the document half of the composite key
	closed       bool                     // set when the room is reaped; a racing join must retry with a fresh room
}

func New(logger *slog.Logger, access provider.AccessChecker, docs provider.DocumentChecker, store provider.DocumentStore, directory provider.UserDirectory) *Coordinator {
	return &Coordinator{
		logger:    logger.With(slog.String("component", "coordinator")),
		access:    access,
		docs:      docs,
		store:     store,
		directory: directory,
		conns:     make(map[uuid.UUID]*trackedConn),
		rooms:     make(map[string]*room),
	}
}

// Register adds an authenticated connection to the connection table. No room
// membership is created here.
func (c *Coordinator) Register(conn session.Conn, identity session.Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	connID := conn.ID()
	if _, exists := c.conns[connID]; exists {
		return fmt.Errorf("connection %s is already registered", connID)
	}
	c.conns[connID] = &trackedConn{
		id:        connID,
		conn:      conn,
		identity:  identity,
		createdAt: time.Now(),
	}
	c.logger.Debug("Connection registered", slog.String("connID", connID.String()), slog.String("participantID", identity.ParticipantID))
	return nil
}

// CountParticipantConnections reports how many live connections a participant
// currently holds across all documents.
func (c *Coordinator) CountParticipantConnections(participantID string) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	count := 0
	for _, tc := range c.conns {
		if tc.identity.ParticipantID == participantID {
			count++
		}
	}
	return count, nil
}

// OldestParticipantConnection returns the longest-lived connection of a
// participant, used by the connection limiter's cycle mode.
func (c *Coordinator) OldestParticipantConnection(participantID string) (session.Conn, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var oldest *trackedConn
	for _, tc := range c.conns {
		if tc.identity.ParticipantID != participantID {
			continue
		}
		if oldest == nil || tc.createdAt.Before(oldest.createdAt) {
			oldest = tc
		}
	}
	if oldest == nil {
		return nil, false
	}
	return oldest.conn, true
}

// Connections returns the send handles of every tracked connection. Used for
// graceful shutdown.
func (c *Coordinator) Connections() []session.Conn {
	c.mu.RLock()
	defer c.mu.RUnlock()

	conns := make([]session.Conn, 0, len(c.conns))
	for _, tc := range c.conns {
		conns = append(conns, tc.conn)
	}
	return conns
}

// RoomStatus returns a point-in-time snapshot of a room for the monitoring
// surface.
func (c *Coordinator) RoomStatus(documentID string) (session.RoomSnapshot, error) {
	c.mu.RLock()
	r, ok := c.rooms[documentID]
	c.mu.RUnlock()
	if !ok {
		return session.RoomSnapshot{}, fmt.Errorf("room %q: %w", documentID, session.ErrNotFound)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// A room with no members only exists in the window between creation and
	// the first membership insert; treat it as absent.
	if len(r.participants) == 0 {
		return session.RoomSnapshot{}, fmt.Errorf("room %q: %w", documentID, session.ErrNotFound)
	}
	return r.snapshot(), nil
}

// lookup resolves a connection and its current room. A nil room means the
// connection has not joined a document.
func (c *Coordinator) lookup(connID uuid.UUID) (*trackedConn, *room, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tc, ok := c.conns[connID]
	if !ok {
		return nil, nil, false
	}
	return tc, tc.room, true
}

// snapshot copies the room's membership and lock state. Callers must hold the
// room mutex.
func (r *room) snapshot() session.RoomSnapshot {
	snap := session.RoomSnapshot{
		DocumentID:   r.documentID,
		Participants: make([]session.ParticipantInfo, 0, len(r.participants)),
		Locks:        make([]session.LockInfo, 0, len(r.locks)),
	}
	for _, p := range r.participants {
		snap.Participants = append(snap.Participants, p.Info())
	}
	for _, l := range r.locks {
		snap.Locks = append(snap.Locks, l.Info())
	}
	return snap
}
