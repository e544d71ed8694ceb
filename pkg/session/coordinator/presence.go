package coordinator

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SteffMet/Surge-sub001/pkg/session"
)

// CursorMove overwrites the participant's cursor and relays it to the rest of
// the room. No history is kept and the origin never receives its own echo.
func (c *Coordinator) CursorMove(connID uuid.UUID, position int, selection string) error {
	return c.withParticipant(connID, func(r *room, p *session.Participant) {
		p.Cursor = &session.Cursor{Position: position, Selection: selection}
		p.Status = session.StatusActive
		p.LastActivityAt = time.Now()

		r.broadcast(c.logger, session.EventCursorMoved, session.CursorMovedPayload{
			ConnectionID:  connID.String(),
			ParticipantID: p.Identity.ParticipantID,
			Cursor:        *p.Cursor,
		}, connID)
	})
}

// Typing marks the participant as typing in a section and notifies peers.
func (c *Coordinator) Typing(connID uuid.UUID, sectionID string) error {
	return c.withParticipant(connID, func(r *room, p *session.Participant) {
		p.Status = session.StatusTyping
		p.TypingSection = sectionID
		p.LastActivityAt = time.Now()

		r.broadcast(c.logger, session.EventUserTyping, session.TypingPayload{
			ConnectionID:  connID.String(),
			ParticipantID: p.Identity.ParticipantID,
			DisplayName:   p.Identity.DisplayName,
			SectionID:     sectionID,
		}, connID)
	})
}

// Idle marks the participant idle and notifies peers.
func (c *Coordinator) Idle(connID uuid.UUID) error {
	return c.withParticipant(connID, func(r *room, p *session.Participant) {
		p.Status = session.StatusIdle
		p.TypingSection = ""
		p.LastActivityAt = time.Now()

		r.broadcast(c.logger, session.EventUserIdle, session.TypingPayload{
			ConnectionID:  connID.String(),
			ParticipantID: p.Identity.ParticipantID,
			DisplayName:   p.Identity.DisplayName,
		}, connID)
	})
}

// withParticipant runs fn under the room mutex for the connection's current
// participant. The room membership is re-checked under the lock so presence
// updates racing a departure degrade to a clean error.
func (c *Coordinator) withParticipant(connID uuid.UUID, fn func(r *room, p *session.Participant)) error {
	_, r, ok := c.lookup(connID)
	if !ok || r == nil {
		return fmt.Errorf("connection %s: %w", connID, session.ErrNoActiveRoom)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[connID]
	if !ok {
		return fmt.Errorf("connection %s: %w", connID, session.ErrNoActiveRoom)
	}
	fn(r, p)
	return nil
}
