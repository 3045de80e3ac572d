package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synapse/internal/client"
	"synapse/internal/db"
)

func TestOpenFallsBackToCache(t *testing.T) {
	backend := newFakeBackend()
	backend.authoritative("q")
	s, _ := newTestSession(t, backend)
	openC1(t, s)
	assert.False(t, s.Offline())

	backend.getErr = errors.New("dial tcp: connection refused")
	conv, err := s.Open(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, s.Offline())
	assert.Len(t, conv.Messages, 2)

	_, err = s.Open(context.Background(), "never-seen")
	assert.Error(t, err)
}

func TestOpenNotFoundForgetsCachedCopy(t *testing.T) {
	backend := newFakeBackend()
	s, cache := newTestSession(t, backend)
	openC1(t, s)

	delete(backend.convs, "c1")
	_, err := s.Open(context.Background(), "c1")
	require.ErrorIs(t, err, client.ErrNotFound)

	_, err = cache.GetConversation("c1")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestListFallsBackToCache(t *testing.T) {
	backend := newFakeBackend()
	s, _ := newTestSession(t, backend)

	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)

	openC1(t, s)
	backend.listErr = errors.New("timeout")
	list, err = s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "c1", list[0].ID)
	assert.True(t, s.Offline())
}

func TestCreateRenameDelete(t *testing.T) {
	backend := newFakeBackend()
	s, cache := newTestSession(t, backend)
	ctx := context.Background()

	conv, err := s.Create(ctx, "Heat death")
	require.NoError(t, err)
	assert.Equal(t, "c2", conv.ID)
	assert.Equal(t, "Heat death", conv.Title)
	assert.Same(t, conv, s.Conversation())

	renamed, err := s.Rename(ctx, "Thermodynamics")
	require.NoError(t, err)
	assert.Equal(t, "Thermodynamics", renamed.Title)
	assert.Equal(t, "Thermodynamics", backend.convs["c2"].Title)

	cached, err := cache.GetConversation("c2")
	require.NoError(t, err)
	assert.Equal(t, "Thermodynamics", cached.Title)

	require.NoError(t, s.Delete(ctx))
	assert.Nil(t, s.Conversation())
	assert.NotContains(t, backend.convs, "c2")
	_, err = cache.GetConversation("c2")
	assert.ErrorIs(t, err, db.ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx), ErrNoConversation)
	_, err = s.Rename(ctx, "x")
	assert.ErrorIs(t, err, ErrNoConversation)
}
