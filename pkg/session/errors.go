package session

import "errors"

var (
	// ErrAuthenticationFailed is returned by the gateway when the presented
	// credential is missing, invalid, expired, or belongs to an inactive
	// account.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrAccessDenied is returned by Join when the workspace-access
	// collaborator rejects the participant.
	ErrAccessDenied = errors.New("access denied")

	// ErrNotFound is returned by Join when the document does not exist, and
	// by the monitoring surface for unknown rooms.
	ErrNotFound = errors.New("not found")

	// ErrPersistenceFailure wraps a failed delegated save. It is surfaced to
	// the saving connection only and never broadcast.
	ErrPersistenceFailure = errors.New("persistence failure")

	// ErrNoActiveRoom is returned by operations that require the connection
	// to have joined a document first.
	ErrNoActiveRoom = errors.New("connection has no active room")
)
