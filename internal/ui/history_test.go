// internal/ui/history_test.go
package ui

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synapse/internal/council"
)

func summaries(n int) []council.ConversationSummary {
	out := make([]council.ConversationSummary, n)
	for i := range out {
		out[i] = council.ConversationSummary{ID: fmt.Sprintf("c%d", i+1), Title: fmt.Sprintf("Topic %d", i+1)}
	}
	return out
}

func TestHistoryNavigation(t *testing.T) {
	h := NewHistoryState()
	assert.Nil(t, h.Selected())

	h.SetConversations(summaries(3))
	require.NotNil(t, h.Selected())
	assert.Equal(t, "c1", h.Selected().ID)

	h.Up()
	assert.Equal(t, "c1", h.Selected().ID)
	h.Down()
	h.Down()
	h.Down()
	assert.Equal(t, "c3", h.Selected().ID)

	h.SetConversations(summaries(2))
	assert.Equal(t, "c1", h.Selected().ID)
}

func TestHistoryScrolls(t *testing.T) {
	h := NewHistoryState()
	h.SetMaxHeight(0)
	assert.Equal(t, 5, h.maxHeight)

	h.SetConversations(summaries(8))
	for i := 0; i < 6; i++ {
		h.Down()
	}
	assert.Equal(t, 2, h.scrollTop)
	out := h.Render(120, 40, false)
	assert.Contains(t, out, "Showing 3-7 of 8")
	assert.NotContains(t, out, "Topic 1 ")
}

func TestHistoryAt(t *testing.T) {
	h := NewHistoryState()
	h.SetConversations(summaries(2))

	c, ok := h.At(2)
	require.True(t, ok)
	assert.Equal(t, "c2", c.ID)

	_, ok = h.At(0)
	assert.False(t, ok)
	_, ok = h.At(3)
	assert.False(t, ok)
}

func TestHistoryRenderEmpty(t *testing.T) {
	h := NewHistoryState()
	out := h.Render(100, 30, true)
	assert.Contains(t, out, "No conversations yet.")
	assert.Contains(t, out, "offline (cached)")
}
