package session

import (
	"time"

	"github.com/google/uuid"
)

// Status of a participant within its room.
type Status string

const (
	StatusActive Status = "active"
	StatusTyping Status = "typing"
	StatusIdle   Status = "idle"
)

// Identity is the verified account behind a connection, resolved by the
// external identity collaborator during the handshake.
type Identity struct {
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
}

// Cursor is the last reported cursor state of a participant. Only the latest
// value is retained.
type Cursor struct {
	Position  int    `json:"position"`
	Selection string `json:"selection,omitempty"`
}

// Conn is the outbound half of a live connection. Send must be safe for
// concurrent use and must never block; delivery is best-effort.
type Conn interface {
	ID() uuid.UUID
	Send(message []byte)
}

// Participant is the live representation of one connection editing one
// document. A connection maps to at most one Participant at a time.
type Participant struct {
	ConnID         uuid.UUID
	Identity       Identity
	DocumentID     string
	WorkspaceID    string
	Cursor         *Cursor // nil until the first cursor-move
	Status         Status
	TypingSection  string // section last reported via user-typing
	LastActivityAt time.Time
	Conn           Conn

	// NextSeq is the per-connection change sequence counter, mutated only
	// under the owning room's lock.
	NextSeq uint64
}

// Lock is an advisory exclusivity marker over one document section.
type Lock struct {
	DocumentID string
	SectionID  string
	Owner      uuid.UUID
	OwnerID    Identity
	AcquiredAt time.Time
}

// LockResult is the synchronous outcome of a lock request. A denial is a
// normal negative result, not an error.
type LockResult struct {
	Granted bool
	// HeldBy identifies the current holder when the request was denied, or
	// the requester itself on a grant.
	HeldBy Identity
}

// ParticipantInfo is the wire-safe projection of a Participant used in
// snapshots, broadcasts and the monitoring surface.
type ParticipantInfo struct {
	ConnectionID  string  `json:"connectionId"`
	ParticipantID string  `json:"participantId"`
	DisplayName   string  `json:"displayName"`
	Status        Status  `json:"status"`
	Cursor        *Cursor `json:"cursor,omitempty"`
}

// LockInfo is the wire-safe projection of a Lock.
type LockInfo struct {
	SectionID     string    `json:"sectionId"`
	ParticipantID string    `json:"participantId"`
	DisplayName   string    `json:"displayName"`
	AcquiredAt    time.Time `json:"acquiredAt"`
}

// RoomSnapshot is returned to a joiner and by the monitoring surface. It is a
// point-in-time copy; it never aliases live coordinator state.
type RoomSnapshot struct {
	DocumentID   string            `json:"documentId"`
	Participants []ParticipantInfo `json:"participants"`
	Locks        []LockInfo        `json:"locks"`
}

// Info builds the wire projection of a participant.
func (p *Participant) Info() ParticipantInfo {
	info := ParticipantInfo{
		ConnectionID:  p.ConnID.String(),
		ParticipantID: p.Identity.ParticipantID,
		DisplayName:   p.Identity.DisplayName,
		Status:        p.Status,
	}
	if p.Cursor != nil {
		c := *p.Cursor
		info.Cursor = &c
	}
	return info
}

// Info builds the wire projection of a lock.
func (l *Lock) Info() LockInfo {
	return LockInfo{
		SectionID:     l.SectionID,
		ParticipantID: l.OwnerID.ParticipantID,
		DisplayName:   l.OwnerID.DisplayName,
		AcquiredAt:    l.AcquiredAt,
	}
}
