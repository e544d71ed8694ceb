package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticAccessDenyList(t *testing.T) {
	access := NewStaticAccess()

	ok, err := access.CanAccess(context.Background(), "alice", "ws1")
	require.NoError(t, err)
	assert.True(t, ok)

	access.Deny("alice", "ws1")
	ok, err = access.CanAccess(context.Background(), "alice", "ws1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Other workspaces unaffected.
	ok, _ = access.CanAccess(context.Background(), "alice", "ws2")
	assert.True(t, ok)
}

func TestStaticDocumentsMissing(t *testing.T) {
	docs := NewStaticDocuments()

	exists, err := docs.Exists(context.Background(), "doc1")
	require.NoError(t, err)
	assert.True(t, exists)

	docs.MarkMissing("doc1")
	exists, _ = docs.Exists(context.Background(), "doc1")
	assert.False(t, exists)
}

func TestMemoryStoreVersionsPerDocument(t *testing.T) {
	store := NewMemoryStore()

	res, err := store.Save(context.Background(), SaveRequest{DocumentID: "doc1"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Version)

	res, err = store.Save(context.Background(), SaveRequest{DocumentID: "doc1"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Version)

	res, err = store.Save(context.Background(), SaveRequest{DocumentID: "doc2"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Version)
}

func TestMemoryStoreFailure(t *testing.T) {
	store := NewMemoryStore()
	store.FailWith = errors.New("boom")

	_, err := store.Save(context.Background(), SaveRequest{DocumentID: "doc1"})
	assert.Error(t, err)
}

func TestStaticDirectoryResolve(t *testing.T) {
	dir := NewStaticDirectory()
	dir.Register("alice", "user-1")

	id, err := dir.ResolveUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)

	_, err = dir.ResolveUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUnknownUsername)
}
