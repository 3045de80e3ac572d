// internal/ui/history.go
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"synapse/internal/council"
)

// HistoryState holds the state of the conversation browser
type HistoryState struct {
	conversations []council.ConversationSummary
	cursor        int
	scrollTop     int
	maxHeight     int
}

// NewHistoryState creates an empty conversation browser
func NewHistoryState() *HistoryState {
	return &HistoryState{maxHeight: 20}
}

// SetConversations replaces the listing and resets the cursor
func (h *HistoryState) SetConversations(list []council.ConversationSummary) {
	h.conversations = list
	h.cursor = 0
	h.scrollTop = 0
}

// Len returns the number of listed conversations
func (h *HistoryState) Len() int {
	return len(h.conversations)
}

// At returns the nth listed conversation (1-based)
func (h *HistoryState) At(n int) (council.ConversationSummary, bool) {
	if n < 1 || n > len(h.conversations) {
		return council.ConversationSummary{}, false
	}
	return h.conversations[n-1], true
}

// Up moves the cursor up
func (h *HistoryState) Up() {
	if h.cursor > 0 {
		h.cursor--
		if h.cursor < h.scrollTop {
			h.scrollTop = h.cursor
		}
	}
}

// Down moves the cursor down
func (h *HistoryState) Down() {
	if h.cursor < len(h.conversations)-1 {
		h.cursor++
		if h.cursor >= h.scrollTop+h.maxHeight {
			h.scrollTop = h.cursor - h.maxHeight + 1
		}
	}
}

// Selected returns the conversation under the cursor, or nil if none
func (h *HistoryState) Selected() *council.ConversationSummary {
	if h.cursor >= 0 && h.cursor < len(h.conversations) {
		return &h.conversations[h.cursor]
	}
	return nil
}

// SetMaxHeight updates the max visible height
func (h *HistoryState) SetMaxHeight(height int) {
	h.maxHeight = max(height-10, 5)
}

// Render renders the conversation browser overlay
func (h *HistoryState) Render(width, height int, offline bool) string {
	var content strings.Builder

	content.WriteString(TitleStyle.Render("CONVERSATIONS"))
	if offline {
		content.WriteString("  " + StatusWarn.Render("offline (cached)"))
	}
	content.WriteString("\n")
	content.WriteString(DimStyle.Render("Select a conversation to open"))
	content.WriteString("\n\n")

	if len(h.conversations) == 0 {
		content.WriteString(DimStyle.Render("No conversations yet."))
		content.WriteString("\n\n")
		content.WriteString(DimStyle.Render("Type /new to start one."))
	} else {
		visibleEnd := min(h.scrollTop+h.maxHeight, len(h.conversations))

		header := fmt.Sprintf("  %-3s  %-32s  %-16s  %s", "#", "Title", "Created", "Messages")
		content.WriteString(DimStyle.Render(header))
		content.WriteString("\n")
		content.WriteString(DimStyle.Render(strings.Repeat("-", 68)))
		content.WriteString("\n")

		for i := h.scrollTop; i < visibleEnd; i++ {
			c := h.conversations[i]

			title := c.Title
			if title == "" {
				title = "New Conversation"
			}
			title = truncate(title, 32)

			created := "-"
			if !c.CreatedAt.IsZero() {
				t := c.CreatedAt.Local()
				created = t.Format("2006-01-02 15:04")
				if time.Since(t) < 24*time.Hour {
					created = t.Format("Today 15:04")
				}
			}

			cursor := "  "
			lineStyle := DimStyle
			if i == h.cursor {
				cursor = "> "
				lineStyle = lipgloss.NewStyle().Foreground(Cyan)
			}

			line := fmt.Sprintf("%-3d  %-32s  %-16s  %d", i+1, title, created, c.MessageCount)
			content.WriteString(cursor)
			content.WriteString(lineStyle.Render(line))
			content.WriteString("\n")
		}

		if len(h.conversations) > h.maxHeight {
			content.WriteString("\n")
			content.WriteString(DimStyle.Render(fmt.Sprintf("Showing %d-%d of %d",
				h.scrollTop+1, visibleEnd, len(h.conversations))))
		}
	}

	content.WriteString("\n\n")
	content.WriteString(DimStyle.Render("Up/Down: Navigate | Enter: Open | Esc: Cancel"))

	return overlay(content.String(), width, height, 2)
}

// overlay centers content in a bordered box over the whole screen
func overlay(content string, width, height, padX int) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Padding(1, padX).
		MaxWidth(max(width-10, 20)).
		MaxHeight(max(height-4, 5))

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, style.Render(content))
}
