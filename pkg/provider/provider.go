// Package provider defines the seams to the collaborators this coordinator
// depends on but does not implement: workspace authorization, document
// existence, document persistence, and user-directory lookup. Deployments
// inject their own implementations; the Static* types in this package back
// development setups and tests.
package provider

import "context"

// AccessChecker answers whether a participant may open documents in a
// workspace.
type AccessChecker interface {
	CanAccess(ctx context.Context, participantID, workspaceID string) (bool, error)
}

// DocumentChecker answers whether a document exists.
type DocumentChecker interface {
	Exists(ctx context.Context, documentID string) (bool, error)
}

// SaveRequest is the hand-off to the external persistence store. Versioning
// and durability are the store's concern, not this coordinator's.
type SaveRequest struct {
	DocumentID    string
	ParticipantID string
	Content       string
	Title         string
	Metadata      map[string]any
}

// SaveResult reports the store's view of the document after a save.
type SaveResult struct {
	DocumentID string
	Version    int
	SavedAt    string
}

// DocumentStore persists document content. Save is the only externally-latent
// call the coordinator makes; it must honor ctx cancellation.
type DocumentStore interface {
	Save(ctx context.Context, req SaveRequest) (SaveResult, error)
}

// UserDirectory resolves a username to a participant identity. Connection
// status is the coordinator's own knowledge; the directory only maps names.
type UserDirectory interface {
	ResolveUsername(ctx context.Context, username string) (participantID string, err error)
}
