package coordinator

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SteffMet/Surge-sub001/pkg/session"
)

// RequestLock arbitrates an advisory lock over one section of the caller's
// current document. Grants are broadcast as section-locked; a denial is a
// normal negative result carrying the holder's identity, never an error.
// Requesting a section already held by the caller re-confirms idempotently.
func (c *Coordinator) RequestLock(connID uuid.UUID, sectionID string) (session.LockResult, error) {
	_, r, ok := c.lookup(connID)
	if !ok || r == nil {
		return session.LockResult{}, fmt.Errorf("request-lock: %w", session.ErrNoActiveRoom)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[connID]
	if !ok {
		return session.LockResult{}, fmt.Errorf("request-lock: %w", session.ErrNoActiveRoom)
	}

	if held, exists := r.locks[sectionID]; exists {
		if held.Owner == connID {
			return session.LockResult{Granted: true, HeldBy: held.OwnerID}, nil
		}
		c.logger.Debug("Lock denied",
			slog.String("documentID", r.documentID),
			slog.String("sectionID", sectionID),
			slog.String("heldBy", held.OwnerID.ParticipantID),
		)
		return session.LockResult{Granted: false, HeldBy: held.OwnerID}, nil
	}

	lock := &session.Lock{
		DocumentID: r.documentID,
		SectionID:  sectionID,
		Owner:      connID,
		OwnerID:    p.Identity,
		AcquiredAt: time.Now(),
	}
	r.locks[sectionID] = lock

	r.broadcast(c.logger, session.EventSectionLocked, session.SectionLockPayload{
		DocumentID:    r.documentID,
		SectionID:     sectionID,
		ParticipantID: p.Identity.ParticipantID,
		DisplayName:   p.Identity.DisplayName,
	}, connID)

	c.logger.Info("Section locked",
		slog.String("documentID", r.documentID),
		slog.String("sectionID", sectionID),
		slog.String("participantID", p.Identity.ParticipantID),
	)
	return session.LockResult{Granted: true, HeldBy: p.Identity}, nil
}

// ReleaseLock releases a section only if the caller is its current holder.
// Releasing a section the caller does not hold is a no-op, not an error.
func (c *Coordinator) ReleaseLock(connID uuid.UUID, sectionID string) error {
	_, r, ok := c.lookup(connID)
	if !ok || r == nil {
		// Treated as an internal inconsistency: log and carry on.
		c.logger.Debug("Release for connection with no active room", slog.String("connID", connID.String()))
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	held, exists := r.locks[sectionID]
	if !exists || held.Owner != connID {
		return nil
	}

	delete(r.locks, sectionID)
	r.broadcast(c.logger, session.EventSectionUnlocked, session.SectionLockPayload{
		DocumentID:    r.documentID,
		SectionID:     sectionID,
		ParticipantID: held.OwnerID.ParticipantID,
		DisplayName:   held.OwnerID.DisplayName,
	}, connID)

	c.logger.Info("Section unlocked",
		slog.String("documentID", r.documentID),
		slog.String("sectionID", sectionID),
	)
	return nil
}

// releaseLocksOf frees every lock owned by connID in the room, broadcasting a
// section-unlocked for each. Callers must hold the room mutex. This is the
// cleanup path shared by Leave and Disconnect.
func (c *Coordinator) releaseLocksOf(r *room, connID uuid.UUID) {
	for sectionID, held := range r.locks {
		if held.Owner != connID {
			continue
		}
		delete(r.locks, sectionID)
		r.broadcast(c.logger, session.EventSectionUnlocked, session.SectionLockPayload{
			DocumentID:    r.documentID,
			SectionID:     sectionID,
			ParticipantID: held.OwnerID.ParticipantID,
			DisplayName:   held.OwnerID.DisplayName,
		}, connID)
		c.logger.Debug("Lock released on departure",
			slog.String("documentID", r.documentID),
			slog.String("sectionID", sectionID),
		)
	}
}
