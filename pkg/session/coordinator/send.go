package coordinator

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/SteffMet/Surge-sub001/pkg/session"
)

// SendTo delivers an event to a single tracked connection, typically a direct
// response to something it asked for. An unknown connection is a logged no-op.
func (c *Coordinator) SendTo(connID uuid.UUID, event string, payload any) {
	c.mu.RLock()
	tc, ok := c.conns[connID]
	c.mu.RUnlock()
	if !ok {
		c.logger.Debug("SendTo for unknown connection", slog.String("connID", connID.String()), slog.String("event", event))
		return
	}

	msg, err := session.Encode(event, payload)
	if err != nil {
		c.logger.Error("Failed to encode direct event", slog.String("event", event), slog.Any("error", err))
		return
	}
	tc.conn.Send(msg)
}
