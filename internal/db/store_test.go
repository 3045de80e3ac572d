// internal/db/store_test.go
package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synapse/internal/council"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	store, err := Open()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleConversation(id string, created time.Time) *council.Conversation {
	return &council.Conversation{
		ID:        id,
		Title:     "Entropy",
		CreatedAt: council.NewTimestamp(created),
		Messages: []council.Message{
			{Role: council.RoleUser, Content: "What is entropy?"},
			{
				Role:   council.RoleAssistant,
				Stage1: []council.StageOneResult{{Role: "scientist", Model: "deepseek/deepseek-chat", Response: "Disorder."}},
				Stage3: &council.StageThreeResult{Model: "mistralai/mistral-nemo", Response: "Entropy is..."},
				Graph: &council.ReasoningGraph{
					Nodes: []council.GraphNode{{ID: "a1", Type: council.NodeInitialAnswer}},
					Edges: []council.GraphEdge{},
				},
			},
		},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveConversation(sampleConversation("c1", created)))

	got, err := store.GetConversation("c1")
	require.NoError(t, err)
	assert.Equal(t, "Entropy", got.Title)
	assert.True(t, created.Equal(got.CreatedAt.Time))
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "What is entropy?", got.Messages[0].Content)
	require.NotNil(t, got.Messages[1].Graph)
	assert.Equal(t, "a1", got.Messages[1].Graph.Nodes[0].ID)
	assert.Equal(t, "Entropy is...", got.Messages[1].Stage3.Response)
}

func TestStoreSaveReplacesMessages(t *testing.T) {
	store := openTestStore(t)
	conv := sampleConversation("c1", time.Now())
	require.NoError(t, store.SaveConversation(conv))

	conv.Title = "Renamed upstream"
	conv.Messages = conv.Messages[:1]
	require.NoError(t, store.SaveConversation(conv))

	got, err := store.GetConversation("c1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed upstream", got.Title)
	assert.Len(t, got.Messages, 1)
}

func TestStoreList(t *testing.T) {
	store := openTestStore(t)
	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(24 * time.Hour)

	require.NoError(t, store.SaveConversation(sampleConversation("old", older)))
	require.NoError(t, store.SaveConversation(&council.Conversation{ID: "new", Title: "Empty", CreatedAt: council.NewTimestamp(newer)}))

	list, err := store.ListConversations()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, 0, list[0].MessageCount)
	assert.Equal(t, "old", list[1].ID)
	assert.Equal(t, 2, list[1].MessageCount)
}

func TestStoreRenameAndDelete(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.SaveConversation(sampleConversation("c1", time.Now())))

	require.NoError(t, store.RenameConversation("c1", "Thermo"))
	got, err := store.GetConversation("c1")
	require.NoError(t, err)
	assert.Equal(t, "Thermo", got.Title)

	require.NoError(t, store.DeleteConversation("c1"))
	_, err = store.GetConversation("c1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.DeleteConversation("c1"), ErrNotFound)
	assert.ErrorIs(t, store.RenameConversation("c1", "x"), ErrNotFound)

	list, err := store.ListConversations()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOpenPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")

	store, err := OpenPath(path)
	require.NoError(t, err)
	defer store.Close()

	assert.FileExists(t, path)
}
