package session

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is the framing of every message in both directions.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode marshals an outbound envelope.
func Encode(event string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", event, err)
	}
	msg, err := json.Marshal(Envelope{Event: event, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s envelope: %w", event, err)
	}
	return msg, nil
}

// Broadcast payloads. Every payload that originates from a peer carries the
// source connection and identity so clients can attribute it.

type ParticipantJoinedPayload struct {
	DocumentID  string          `json:"documentId"`
	Participant ParticipantInfo `json:"participant"`
}

type ParticipantLeftPayload struct {
	DocumentID    string `json:"documentId"`
	ConnectionID  string `json:"connectionId"`
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
}

type CursorMovedPayload struct {
	ConnectionID  string `json:"connectionId"`
	ParticipantID string `json:"participantId"`
	Cursor        Cursor `json:"cursor"`
}

type TypingPayload struct {
	ConnectionID  string `json:"connectionId"`
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	SectionID     string `json:"sectionId,omitempty"`
}

type DocumentChangedPayload struct {
	DocumentID     string          `json:"documentId"`
	SectionID      string          `json:"sectionId"`
	ConnectionID   string          `json:"connectionId"`
	ParticipantID  string          `json:"participantId"`
	SequenceNumber uint64          `json:"sequenceNumber"`
	Version        int             `json:"version,omitempty"`
	Payload        json.RawMessage `json:"payload"`
	EmittedAt      time.Time       `json:"emittedAt"`
}

type SectionLockPayload struct {
	DocumentID    string `json:"documentId"`
	SectionID     string `json:"sectionId"`
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
}

type LockDeniedPayload struct {
	SectionID string   `json:"sectionId"`
	LockedBy  Identity `json:"lockedBy"`
}

type DocumentSavedPayload struct {
	DocumentID    string `json:"documentId"`
	ParticipantID string `json:"participantId"`
	Version       int    `json:"version"`
	SavedAt       string `json:"savedAt"`
}

type MentionedPayload struct {
	FromParticipantID string `json:"fromParticipantId"`
	FromDisplayName   string `json:"fromDisplayName"`
	DocumentID        string `json:"documentId"`
	CommentID         string `json:"commentId,omitempty"`
	Content           string `json:"content,omitempty"`
}

type ReviewRequestedPayload struct {
	FromParticipantID string `json:"fromParticipantId"`
	FromDisplayName   string `json:"fromDisplayName"`
	DocumentID        string `json:"documentId"`
	Message           string `json:"message,omitempty"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
