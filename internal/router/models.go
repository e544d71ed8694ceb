package router

import "encoding/json"

// Inbound payloads of the wire contract. The envelope {event, payload} is
// shared with the outbound side via the session package.

type joinDocumentPayload struct {
	DocumentID  string `json:"documentId"`
	WorkspaceID string `json:"workspaceId"`
}

type cursorMovePayload struct {
	Position  int    `json:"position"`
	Selection string `json:"selection"`
}

type userTypingPayload struct {
	SectionID string `json:"sectionId"`
}

type documentChangePayload struct {
	SectionID string          `json:"sectionId"`
	Payload   json.RawMessage `json:"payload"`
	Version   int             `json:"version"`
}

type sectionLockPayload struct {
	SectionID string `json:"sectionId"`
}

type saveDocumentPayload struct {
	Content  string         `json:"content"`
	Title    string         `json:"title"`
	Metadata map[string]any `json:"metadata"`
}

type mentionUserPayload struct {
	TargetUsername string `json:"targetUsername"`
	CommentID      string `json:"commentId"`
	Content        string `json:"content"`
}

type requestReviewPayload struct {
	ReviewerIDs []string `json:"reviewerIds"`
	Message     string   `json:"message"`
}
