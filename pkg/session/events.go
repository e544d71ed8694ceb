package session

// Outbound event names of the wire contract.
const (
	EventDocumentJoined    = "document-joined"
	EventParticipantJoined = "participant-joined"
	EventParticipantLeft   = "participant-left"
	EventCursorMoved       = "cursor-moved"
	EventUserTyping        = "user-typing"
	EventUserIdle          = "user-idle"
	EventDocumentChanged   = "document-changed"
	EventLockGranted       = "lock-granted"
	EventLockDenied        = "lock-denied"
	EventLockReleased      = "lock-released"
	EventSectionLocked     = "section-locked"
	EventSectionUnlocked   = "section-unlocked"
	EventDocumentSaved     = "document-saved"
	EventMentioned         = "mentioned"
	EventReviewRequested   = "review-requested"
	EventError             = "error"
)
