package provider

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrUnknownUsername is returned by StaticDirectory for names it has no
// mapping for.
var ErrUnknownUsername = errors.New("unknown username")

// StaticAccess allows every participant into every workspace unless a deny
// list entry matches. Suitable for development and tests.
type StaticAccess struct {
	mu     sync.RWMutex
	denied map[string]struct{} // "participantID/workspaceID"
}

func NewStaticAccess() *StaticAccess {
	return &StaticAccess{denied: make(map[string]struct{})}
}

func (a *StaticAccess) Deny(participantID, workspaceID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.denied[participantID+"/"+workspaceID] = struct{}{}
}

func (a *StaticAccess) CanAccess(_ context.Context, participantID, workspaceID string) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, denied := a.denied[participantID+"/"+workspaceID]
	return !denied, nil
}

// StaticDocuments reports every document as existing unless it was registered
// as missing.
type StaticDocuments struct {
	mu      sync.RWMutex
	missing map[string]struct{}
}

func NewStaticDocuments() *StaticDocuments {
	return &StaticDocuments{missing: make(map[string]struct{})}
}

func (d *StaticDocuments) MarkMissing(documentID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.missing[documentID] = struct{}{}
}

func (d *StaticDocuments) Exists(_ context.Context, documentID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, missing := d.missing[documentID]
	return !missing, nil
}

// MemoryStore accepts saves into memory, bumping a per-document version. It
// stands in for the real persistence collaborator.
type MemoryStore struct {
	mu       sync.Mutex
	versions map[string]int
	FailWith error // when set, every Save fails with this error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{versions: make(map[string]int)}
}

func (s *MemoryStore) Save(ctx context.Context, req SaveRequest) (SaveResult, error) {
	if err := ctx.Err(); err != nil {
		return SaveResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return SaveResult{}, s.FailWith
	}
	s.versions[req.DocumentID]++
	return SaveResult{
		DocumentID: req.DocumentID,
		Version:    s.versions[req.DocumentID],
		SavedAt:    time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// StaticDirectory maps usernames to participant IDs from a fixed table.
type StaticDirectory struct {
	mu    sync.RWMutex
	users map[string]string
}

func NewStaticDirectory() *StaticDirectory {
	return &StaticDirectory{users: make(map[string]string)}
}

func (d *StaticDirectory) Register(username, participantID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[username] = participantID
}

func (d *StaticDirectory) ResolveUsername(_ context.Context, username string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.users[username]
	if !ok {
		return "", ErrUnknownUsername
	}
	return id, nil
}
