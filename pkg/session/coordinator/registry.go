package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SteffMet/Surge-sub001/pkg/session"
)

// Join attaches a connection to the room for documentID, creating the room on
// first join. Workspace access and document existence are checked against the
// external collaborators before any state changes. The returned snapshot
// reflects the room as seen by the joiner, including the joiner itself.
func (c *Coordinator) Join(ctx context.Context, connID uuid.UUID, documentID, workspaceID string) (session.RoomSnapshot, error) {
	tc, _, ok := c.lookup(connID)
	if !ok {
		return session.RoomSnapshot{}, fmt.Errorf("join: unknown connection %s", connID)
	}

	allowed, err := c.access.CanAccess(ctx, tc.identity.ParticipantID, workspaceID)
	if err != nil {
		return session.RoomSnapshot{}, fmt.Errorf("workspace access check failed: %w", err)
	}
	if !allowed {
		return session.RoomSnapshot{}, fmt.Errorf("workspace %q: %w", workspaceID, session.ErrAccessDenied)
	}

	exists, err := c.docs.Exists(ctx, documentID)
	if err != nil {
		return session.RoomSnapshot{}, fmt.Errorf("document existence check failed: %w", err)
	}
	if !exists {
		return session.RoomSnapshot{}, fmt.Errorf("document %q: %w", documentID, session.ErrNotFound)
	}

	// One active document per connection: joining a new document implicitly
	// leaves the previous one, with identical lock/presence cleanup.
	c.mu.Lock()
	tc, ok = c.conns[connID]
	if !ok {
		c.mu.Unlock()
		return session.RoomSnapshot{}, fmt.Errorf("join: connection %s closed during authorization", connID)
	}
	prev := tc.room
	tc.room = nil
	c.mu.Unlock()

	if prev != nil {
		if c.departRoom(prev, connID) {
			c.reapRoom(prev)
		}
	}

	for {
		c.mu.Lock()
		tc, ok = c.conns[connID]
		if !ok {
			c.mu.Unlock()
			return session.RoomSnapshot{}, fmt.Errorf("join: connection %s closed during join", connID)
		}
		r, found := c.rooms[documentID]
		if !found {
			r = &room{
				documentID:   documentID,
				participants: make(map[uuid.UUID]*session.Participant),
				locks:        make(map[string]*session.Lock),
			}
			c.rooms[documentID] = r
			c.logger.Debug("Room created", slog.String("documentID", documentID))
		}
		tc.room = r
		c.mu.Unlock()

		r.mu.Lock()
		if r.closed {
			// The last member left between the table read and taking the
			// room mutex; the room was reaped. Start over with a fresh one.
			r.mu.Unlock()
			continue
		}
		p := &session.Participant{
			ConnID:         connID,
			Identity:       tc.identity,
			DocumentID:     documentID,
			WorkspaceID:    workspaceID,
			Status:         session.StatusActive,
			LastActivityAt: time.Now(),
			Conn:           tc.conn,
		}
		r.participants[connID] = p
		snap := r.snapshot()
		r.broadcast(c.logger, session.EventParticipantJoined, session.ParticipantJoinedPayload{
			DocumentID:  documentID,
			Participant: p.Info(),
		}, connID)
		r.mu.Unlock()

		// A disconnect can slip in between attaching the room pointer and
		// inserting membership; its cleanup would find no membership to
		// remove, so undo the insert here.
		c.mu.RLock()
		cur, still := c.conns[connID]
		attached := still && cur.room == r
		c.mu.RUnlock()
		if !attached {
			if c.departRoom(r, connID) {
				c.reapRoom(r)
			}
			return session.RoomSnapshot{}, fmt.Errorf("join: connection %s closed during join", connID)
		}

		c.logger.Info("Participant joined room",
			slog.String("connID", connID.String()),
			slog.String("participantID", tc.identity.ParticipantID),
			slog.String("documentID", documentID),
		)
		return snap, nil
	}
}

// Leave detaches a connection from its room, releasing every lock it holds
// there. Calling Leave on a connection with no active room is a no-op.
func (c *Coordinator) Leave(connID uuid.UUID) error {
	c.mu.Lock()
	tc, ok := c.conns[connID]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	r := tc.room
	tc.room = nil
	c.mu.Unlock()

	if r == nil {
		return nil
	}
	if c.departRoom(r, connID) {
		c.reapRoom(r)
	}
	return nil
}

// Disconnect is the reaper entry point: it runs the same cleanup as Leave and
// then drops the connection from the table. Both paths can race on abrupt
// network loss, so repeated invocation is safe.
func (c *Coordinator) Disconnect(connID uuid.UUID) error {
	c.mu.Lock()
	tc, ok := c.conns[connID]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	r := tc.room
	tc.room = nil
	delete(c.conns, connID)
	c.logger.Debug("Connection deregistered", slog.String("connID", connID.String()))
	c.mu.Unlock()

	if r == nil {
		return nil
	}
	if c.departRoom(r, connID) {
		c.reapRoom(r)
	}
	return nil
}

// departRoom removes a connection's membership from r: lock liberation and
// the participant-left broadcast, all under the room mutex only. It reports
// whether the room emptied out. Must be called without the registry mutex so
// one room's departure never stalls traffic in other rooms.
func (c *Coordinator) departRoom(r *room, connID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[connID]
	if !ok {
		// Membership already cleaned up; nothing to do.
		return false
	}
	delete(r.participants, connID)

	// A lock must never outlive its owning connection.
	c.releaseLocksOf(r, connID)

	r.broadcast(c.logger, session.EventParticipantLeft, session.ParticipantLeftPayload{
		DocumentID:    r.documentID,
		ConnectionID:  connID.String(),
		ParticipantID: p.Identity.ParticipantID,
		DisplayName:   p.Identity.DisplayName,
	}, connID)

	c.logger.Info("Participant left room",
		slog.String("connID", connID.String()),
		slog.String("documentID", r.documentID),
	)
	return len(r.participants) == 0
}

// reapRoom removes r from the room table if it is still registered and still
// empty. The closed flag makes a join that raced the teardown retry against a
// fresh room instead of resurrecting this one.
func (c *Coordinator) reapRoom(r *room) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rooms[r.documentID] != r {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.participants) != 0 || r.closed {
		return
	}
	r.closed = true
	delete(c.rooms, r.documentID)
	c.logger.Debug("Removed empty room", slog.String("documentID", r.documentID))
}
