// internal/ui/transcript.go
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"synapse/internal/council"
)

var stageNames = [...]string{"", "Answers", "Rankings", "Final"}

// RenderConversation renders every message of conv. Assistant messages show
// a status line for all three stages and the body of the selected stage.
// md may be nil, in which case the final answer is shown as plain text.
func RenderConversation(conv *council.Conversation, stage int, md *Markdown, frame string, width int) string {
	if conv == nil {
		return DimStyle.Render("No conversation open. Type /new or /list.")
	}
	if len(conv.Messages) == 0 {
		return DimStyle.Render("Ask the council a question to begin.")
	}

	var sb strings.Builder
	for _, msg := range conv.Messages {
		if !msg.IsAssistant() {
			sb.WriteString(UserStyle.Render("You:"))
			sb.WriteString("\n")
			writeIndented(&sb, msg.Content, lipgloss.NewStyle())
			sb.WriteString("\n")
			continue
		}

		sb.WriteString(StageStatus(msg, frame))
		sb.WriteString("\n\n")
		switch stage {
		case 1:
			renderStage1(&sb, msg)
		case 2:
			renderStage2(&sb, msg)
		default:
			renderStage3(&sb, msg, md, width)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// StageStatus renders the one-line progress indicator of an assistant message
func StageStatus(msg council.Message, frame string) string {
	present := [...]bool{false, msg.Stage1 != nil, msg.Stage2 != nil, msg.Stage3 != nil}
	loading := [...]bool{false, msg.Loading.Stage1, msg.Loading.Stage2, msg.Loading.Stage3}

	parts := make([]string, 0, 3)
	for n := 1; n <= 3; n++ {
		var indicator string
		switch {
		case present[n]:
			indicator = StatusOK.Render("●")
		case loading[n]:
			indicator = StatusWarn.Render(frame)
		default:
			indicator = DimStyle.Render("○")
		}
		parts = append(parts, fmt.Sprintf("%s %s", indicator, StageStyle(n).Render(fmt.Sprintf("%d %s", n, stageNames[n]))))
	}
	return strings.Join(parts, DimStyle.Render("  ›  "))
}

func renderStage1(sb *strings.Builder, msg council.Message) {
	if msg.Stage1 == nil {
		writePending(sb, msg.Loading.Stage1, 1)
		return
	}
	for _, r := range msg.Stage1 {
		header := fmt.Sprintf("%s (%s)", strings.ToUpper(r.Role), council.ShortModel(r.Model))
		sb.WriteString(RoleStyle(r.Role).Render(header))
		sb.WriteString("\n")
		writeIndented(sb, r.Response, lipgloss.NewStyle())
		sb.WriteString("\n")
	}
}

func renderStage2(sb *strings.Builder, msg council.Message) {
	if msg.Stage2 == nil {
		writePending(sb, msg.Loading.Stage2, 2)
		return
	}
	for _, r := range msg.Stage2 {
		sb.WriteString(StageStyle(2).Render(council.ShortModel(r.Model)))
		if len(r.ParsedRanking) > 0 {
			sb.WriteString(DimStyle.Render("  " + strings.Join(r.ParsedRanking, " > ")))
		}
		sb.WriteString("\n")
		writeIndented(sb, r.Ranking, DimStyle)
		sb.WriteString("\n")
	}

	if msg.Metadata == nil || len(msg.Metadata.AggregateRankings) == 0 {
		return
	}
	sb.WriteString(TitleStyle.Render("Aggregate ranking"))
	sb.WriteString("\n")
	for i, a := range msg.Metadata.AggregateRankings {
		model := a.Model
		if model == "" {
			model = a.Label
		}
		sb.WriteString(fmt.Sprintf("  %d. %-40s %s\n", i+1, model,
			DimStyle.Render(fmt.Sprintf("avg %.2f (%d votes)", a.AverageRank, a.RankingsCount))))
	}
}

func renderStage3(sb *strings.Builder, msg council.Message, md *Markdown, width int) {
	if msg.Stage3 == nil {
		writePending(sb, msg.Loading.Stage3, 3)
		return
	}
	sb.WriteString(StageStyle(3).Render("Chairman: " + council.ShortModel(msg.Stage3.Model)))
	sb.WriteString("\n")
	if md == nil {
		writeIndented(sb, msg.Stage3.Response, lipgloss.NewStyle())
		return
	}
	sb.WriteString(md.Render(msg.Stage3.Response, width-4))
	sb.WriteString("\n")
}

func writePending(sb *strings.Builder, loading bool, stage int) {
	if loading {
		sb.WriteString(DimStyle.Render(fmt.Sprintf("  Waiting for stage %d...", stage)))
	} else {
		sb.WriteString(DimStyle.Render(fmt.Sprintf("  Stage %d unavailable.", stage)))
	}
	sb.WriteString("\n")
}

func writeIndented(sb *strings.Builder, content string, style lipgloss.Style) {
	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		sb.WriteString("  ")
		sb.WriteString(style.Render(line))
		sb.WriteString("\n")
	}
}

// TranscriptView wraps the rendered conversation in a scrollable viewport
type TranscriptView struct {
	Viewport viewport.Model
}

func NewTranscriptView(width, height int) *TranscriptView {
	vp := viewport.New(width, height)
	vp.Style = lipgloss.NewStyle()
	vp.MouseWheelEnabled = true
	return &TranscriptView{Viewport: vp}
}

// SetContent replaces the transcript; follow keeps the view pinned to the end
func (v *TranscriptView) SetContent(content string, follow bool) {
	v.Viewport.SetContent(content)
	if follow {
		v.Viewport.GotoBottom()
	}
}
