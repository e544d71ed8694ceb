// Package router turns inbound wire messages into coordinator operations.
// Each connection's messages arrive serially from its read pump, so per-source
// ordering is preserved end to end without extra queueing here.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/SteffMet/Surge-sub001/pkg/session"
	"github.com/SteffMet/Surge-sub001/pkg/session/coordinator"
)

// Inbound event names.
const (
	evJoinDocument   = "join-document"
	evLeaveDocument  = "leave-document"
	evCursorMove     = "cursor-move"
	evUserTyping     = "user-typing"
	evUserIdle       = "user-idle"
	evDocumentChange = "document-change"
	evRequestLock    = "request-lock"
	evReleaseLock    = "release-lock"
	evSaveDocument   = "save-document"
	evMentionUser    = "mention-user"
	evRequestReview  = "request-review"
)

type EventRouter struct {
	logger      *slog.Logger
	coord       *coordinator.Coordinator
	saveTimeout time.Duration
}

func NewEventRouter(logger *slog.Logger, coord *coordinator.Coordinator, saveTimeout time.Duration) *EventRouter {
	return &EventRouter{
		logger:      logger.With(slog.String("component", "event_router")),
		coord:       coord,
		saveTimeout: saveTimeout,
	}
}

// HandleMessage is the per-connection entry point wired into the transport's
// read pump. A malformed or failing event is answered on the origin connection
// only; peers never observe anything but successful state transitions.
func (r *EventRouter) HandleMessage(ctx context.Context, connID uuid.UUID, msg []byte) {
	if !gjson.ValidBytes(msg) {
		r.replyError(connID, "bad-request", "message is not valid JSON")
		return
	}
	event := gjson.GetBytes(msg, "event").String()
	if event == "" {
		r.replyError(connID, "bad-request", "missing event name")
		return
	}
	payload := []byte(gjson.GetBytes(msg, "payload").Raw)

	r.logger.Debug("Dispatching event", slog.String("event", event), slog.String("connID", connID.String()))

	var err error
	switch event {
	case evJoinDocument:
		err = r.handleJoin(ctx, connID, payload)
	case evLeaveDocument:
		err = r.coord.Leave(connID)
	case evCursorMove:
		err = r.handleCursorMove(connID, payload)
	case evUserTyping:
		err = r.handleTyping(connID, payload)
	case evUserIdle:
		err = r.coord.Idle(connID)
	case evDocumentChange:
		err = r.handleChange(connID, payload)
	case evRequestLock:
		err = r.handleRequestLock(connID, payload)
	case evReleaseLock:
		err = r.handleReleaseLock(connID, payload)
	case evSaveDocument:
		err = r.handleSave(ctx, connID, payload)
	case evMentionUser:
		err = r.handleMention(ctx, connID, payload)
	case evRequestReview:
		err = r.handleReview(connID, payload)
	default:
		r.logger.Warn("Received unknown event", slog.String("event", event), slog.String("connID", connID.String()))
		r.replyError(connID, "unknown-event", "unsupported event: "+event)
		return
	}

	if err != nil {
		r.logger.Warn("Event handling failed",
			slog.String("event", event),
			slog.String("connID", connID.String()),
			slog.Any("error", err),
		)
		r.replyError(connID, errorCode(err), err.Error())
	}
}

func (r *EventRouter) handleJoin(ctx context.Context, connID uuid.UUID, payload []byte) error {
	var p joinDocumentPayload
	if err := decode(payload, &p); err != nil {
		return err
	}
	if p.DocumentID == "" {
		return errBadRequest("documentId is required")
	}

	snap, err := r.coord.Join(ctx, connID, p.DocumentID, p.WorkspaceID)
	if err != nil {
		return err
	}
	r.coord.SendTo(connID, session.EventDocumentJoined, snap)
	return nil
}

func (r *EventRouter) handleCursorMove(connID uuid.UUID, payload []byte) error {
	var p cursorMovePayload
	if err := decode(payload, &p); err != nil {
		return err
	}
	return r.coord.CursorMove(connID, p.Position, p.Selection)
}

func (r *EventRouter) handleTyping(connID uuid.UUID, payload []byte) error {
	var p userTypingPayload
	if err := decode(payload, &p); err != nil {
		return err
	}
	return r.coord.Typing(connID, p.SectionID)
}

func (r *EventRouter) handleChange(connID uuid.UUID, payload []byte) error {
	var p documentChangePayload
	if err := decode(payload, &p); err != nil {
		return err
	}
	if p.SectionID == "" {
		return errBadRequest("sectionId is required")
	}
	_, err := r.coord.DocumentChange(connID, p.SectionID, p.Payload, p.Version)
	return err
}

func (r *EventRouter) handleRequestLock(connID uuid.UUID, payload []byte) error {
	var p sectionLockPayload
	if err := decode(payload, &p); err != nil {
		return err
	}
	if p.SectionID == "" {
		return errBadRequest("sectionId is required")
	}

	result, err := r.coord.RequestLock(connID, p.SectionID)
	if err != nil {
		return err
	}
	if result.Granted {
		r.coord.SendTo(connID, session.EventLockGranted, sectionLockPayload{SectionID: p.SectionID})
	} else {
		r.coord.SendTo(connID, session.EventLockDenied, session.LockDeniedPayload{
			SectionID: p.SectionID,
			LockedBy:  result.HeldBy,
		})
	}
	return nil
}

func (r *EventRouter) handleReleaseLock(connID uuid.UUID, payload []byte) error {
	var p sectionLockPayload
	if err := decode(payload, &p); err != nil {
		return err
	}
	if err := r.coord.ReleaseLock(connID, p.SectionID); err != nil {
		return err
	}
	r.coord.SendTo(connID, session.EventLockReleased, sectionLockPayload{SectionID: p.SectionID})
	return nil
}

func (r *EventRouter) handleSave(ctx context.Context, connID uuid.UUID, payload []byte) error {
	var p saveDocumentPayload
	if err := decode(payload, &p); err != nil {
		return err
	}

	saveCtx, cancel := context.WithTimeout(ctx, r.saveTimeout)
	defer cancel()
	// The success broadcast to the whole room happens inside the coordinator;
	// a failure comes back here and reaches the sender only.
	_, err := r.coord.SaveDocument(saveCtx, connID, p.Content, p.Title, p.Metadata)
	return err
}

func (r *EventRouter) handleMention(ctx context.Context, connID uuid.UUID, payload []byte) error {
	var p mentionUserPayload
	if err := decode(payload, &p); err != nil {
		return err
	}
	if p.TargetUsername == "" {
		return errBadRequest("targetUsername is required")
	}
	return r.coord.Mention(ctx, connID, p.TargetUsername, p.CommentID, p.Content)
}

func (r *EventRouter) handleReview(connID uuid.UUID, payload []byte) error {
	var p requestReviewPayload
	if err := decode(payload, &p); err != nil {
		return err
	}
	if len(p.ReviewerIDs) == 0 {
		return errBadRequest("reviewerIds is required")
	}
	return r.coord.RequestReview(connID, p.ReviewerIDs, p.Message)
}

func (r *EventRouter) replyError(connID uuid.UUID, code, message string) {
	r.coord.SendTo(connID, session.EventError, session.ErrorPayload{Code: code, Message: message})
}

func decode(payload []byte, into any) error {
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, into); err != nil {
		return errBadRequest("malformed payload: " + err.Error())
	}
	return nil
}

// badRequestError marks client-side validation failures so they map onto the
// bad-request error code.
type badRequestError struct{ msg string }

func (e badRequestError) Error() string { return e.msg }

func errBadRequest(msg string) error { return badRequestError{msg: msg} }

func errorCode(err error) string {
	var br badRequestError
	switch {
	case errors.As(err, &br):
		return "bad-request"
	case errors.Is(err, session.ErrAccessDenied):
		return "access-denied"
	case errors.Is(err, session.ErrNotFound):
		return "not-found"
	case errors.Is(err, session.ErrPersistenceFailure):
		return "persistence-failure"
	case errors.Is(err, session.ErrNoActiveRoom):
		return "no-active-room"
	default:
		return "internal-error"
	}
}
