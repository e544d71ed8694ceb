package coordinator

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/SteffMet/Surge-sub001/pkg/session"
)

// broadcast fans an event out to every current room member except the origin.
// Delivery is best-effort and at-most-once per recipient: sends go through the
// non-blocking transport buffer and are dropped when a peer cannot keep up.
// Callers must hold the room mutex so the recipient set is a consistent
// snapshot of the membership at the time of the triggering event.
func (r *room) broadcast(logger *slog.Logger, event string, payload any, origin uuid.UUID) {
	r.fanOut(logger, event, payload, &origin)
}

// broadcastAll delivers to the whole room, origin included. Used for
// document-saved.
func (r *room) broadcastAll(logger *slog.Logger, event string, payload any) {
	r.fanOut(logger, event, payload, nil)
}

func (r *room) fanOut(logger *slog.Logger, event string, payload any, exclude *uuid.UUID) {
	msg, err := session.Encode(event, payload)
	if err != nil {
		logger.Error("Failed to encode broadcast", slog.String("event", event), slog.Any("error", err))
		return
	}
	for connID, p := range r.participants {
		if exclude != nil && connID == *exclude {
			continue
		}
		p.Conn.Send(msg)
	}
	logger.Debug("Broadcast delivered",
		slog.String("event", event),
		slog.String("documentID", r.documentID),
		slog.Int("recipients", len(r.participants)),
	)
}
