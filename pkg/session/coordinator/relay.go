package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SteffMet/Surge-sub001/pkg/provider"
	"github.com/SteffMet/Surge-sub001/pkg/session"
)

// DocumentChange stamps the delta with the connection's next sequence number
// and relays it to room peers. Receivers detect gaps from the per-source
// monotonic sequence; this coordinator performs no merge or conflict
// resolution.
func (c *Coordinator) DocumentChange(connID uuid.UUID, sectionID string, payload json.RawMessage, version int) (uint64, error) {
	var seq uint64
	err := c.withParticipant(connID, func(r *room, p *session.Participant) {
		p.NextSeq++
		seq = p.NextSeq
		p.LastActivityAt = time.Now()

		r.broadcast(c.logger, session.EventDocumentChanged, session.DocumentChangedPayload{
			DocumentID:     r.documentID,
			SectionID:      sectionID,
			ConnectionID:   connID.String(),
			ParticipantID:  p.Identity.ParticipantID,
			SequenceNumber: seq,
			Version:        version,
			Payload:        payload,
			EmittedAt:      time.Now(),
		}, connID)
	})
	if err != nil {
		return 0, fmt.Errorf("document-change: %w", err)
	}
	return seq, nil
}

// SaveDocument delegates persistence to the external store. The store call is
// the only externally-latent operation here and runs without any coordinator
// mutex held, so a slow save never stalls presence or lock processing. On
// success the whole room, sender included, is told the document was saved; on
// failure only the sender learns about it.
func (c *Coordinator) SaveDocument(ctx context.Context, connID uuid.UUID, content, title string, metadata map[string]any) (provider.SaveResult, error) {
	tc, r, ok := c.lookup(connID)
	if !ok || r == nil {
		return provider.SaveResult{}, fmt.Errorf("save-document: %w", session.ErrNoActiveRoom)
	}

	res, err := c.store.Save(ctx, provider.SaveRequest{
		DocumentID:    r.documentID,
		ParticipantID: tc.identity.ParticipantID,
		Content:       content,
		Title:         title,
		Metadata:      metadata,
	})
	if err != nil {
		c.logger.Warn("Delegated save failed",
			slog.String("documentID", r.documentID),
			slog.String("participantID", tc.identity.ParticipantID),
			slog.Any("error", err),
		)
		return provider.SaveResult{}, fmt.Errorf("%w: %w", session.ErrPersistenceFailure, err)
	}

	r.mu.Lock()
	r.broadcastAll(c.logger, session.EventDocumentSaved, session.DocumentSavedPayload{
		DocumentID:    res.DocumentID,
		ParticipantID: tc.identity.ParticipantID,
		Version:       res.Version,
		SavedAt:       res.SavedAt,
	})
	r.mu.Unlock()

	c.logger.Info("Document saved",
		slog.String("documentID", res.DocumentID),
		slog.Int("version", res.Version),
	)
	return res, nil
}

// Mention delivers a point-to-point notification to every live connection of
// the named user, across all documents. An unknown or offline target is
// silently dropped; durable notification delivery belongs to an external
// collaborator.
func (c *Coordinator) Mention(ctx context.Context, connID uuid.UUID, targetUsername, commentID, content string) error {
	tc, r, ok := c.lookup(connID)
	if !ok {
		return fmt.Errorf("mention: unknown connection %s", connID)
	}

	targetID, err := c.directory.ResolveUsername(ctx, targetUsername)
	if err != nil {
		c.logger.Debug("Mention target not resolvable, dropping",
			slog.String("username", targetUsername),
			slog.Any("error", err),
		)
		return nil
	}

	documentID := ""
	if r != nil {
		documentID = r.documentID
	}
	c.deliverToParticipant(targetID, session.EventMentioned, session.MentionedPayload{
		FromParticipantID: tc.identity.ParticipantID,
		FromDisplayName:   tc.identity.DisplayName,
		DocumentID:        documentID,
		CommentID:         commentID,
		Content:           content,
	})
	return nil
}

// RequestReview notifies each connected reviewer directly. Offline reviewers
// are skipped without error.
func (c *Coordinator) RequestReview(connID uuid.UUID, reviewerIDs []string, message string) error {
	tc, r, ok := c.lookup(connID)
	if !ok {
		return fmt.Errorf("request-review: unknown connection %s", connID)
	}

	documentID := ""
	if r != nil {
		documentID = r.documentID
	}
	payload := session.ReviewRequestedPayload{
		FromParticipantID: tc.identity.ParticipantID,
		FromDisplayName:   tc.identity.DisplayName,
		DocumentID:        documentID,
		Message:           message,
	}
	for _, reviewerID := range reviewerIDs {
		c.deliverToParticipant(reviewerID, session.EventReviewRequested, payload)
	}
	return nil
}

// deliverToParticipant sends an event to every live connection of a
// participant, regardless of which document each connection has open.
func (c *Coordinator) deliverToParticipant(participantID, event string, payload any) {
	msg, err := session.Encode(event, payload)
	if err != nil {
		c.logger.Error("Failed to encode targeted event", slog.String("event", event), slog.Any("error", err))
		return
	}

	c.mu.RLock()
	targets := make([]session.Conn, 0, 2)
	for _, tc := range c.conns {
		if tc.identity.ParticipantID == participantID {
			targets = append(targets, tc.conn)
		}
	}
	c.mu.RUnlock()

	if len(targets) == 0 {
		c.logger.Debug("Targeted event dropped, participant offline",
			slog.String("event", event),
			slog.String("participantID", participantID),
		)
		return
	}
	for _, conn := range targets {
		conn.Send(msg)
	}
}
