// internal/export/markdown.go
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"synapse/internal/council"
)

// ExportConversation renders a conversation as markdown: each user prompt
// followed by the three council stages, the aggregate ranking and the
// reasoning graph's edges
func ExportConversation(conv *council.Conversation) string {
	var sb strings.Builder

	title := conv.Title
	if title == "" {
		title = "Conversation"
	}
	sb.WriteString("# ")
	sb.WriteString(title)
	sb.WriteString("\n\n")

	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("**Conversation ID:** `%s`\n\n", conv.ID))
	if !conv.CreatedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("**Created:** %s\n\n", conv.CreatedAt.UTC().Format("2006-01-02 15:04:05")))
	}
	if models := participants(conv); len(models) > 0 {
		sb.WriteString("**Council:** ")
		sb.WriteString(strings.Join(models, ", "))
		sb.WriteString("\n\n")
	}
	sb.WriteString("---\n\n")

	for i, msg := range conv.Messages {
		if msg.IsAssistant() {
			writeAssistant(&sb, msg)
		} else {
			sb.WriteString("## Question\n\n")
			writeQuote(&sb, msg.Content)
			sb.WriteString("\n")
		}
		if i < len(conv.Messages)-1 && msg.IsAssistant() {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from Synapse on %s*\n", time.Now().Format("2006-01-02 15:04:05")))

	return sb.String()
}

func writeAssistant(sb *strings.Builder, msg council.Message) {
	if len(msg.Stage1) > 0 {
		sb.WriteString("## Stage 1: Individual Responses\n\n")
		for _, r := range msg.Stage1 {
			sb.WriteString(fmt.Sprintf("### %s (%s)\n\n", titleCase(r.Role), council.ShortModel(r.Model)))
			writeBody(sb, r.Response)
		}
	}

	if len(msg.Stage2) > 0 {
		sb.WriteString("## Stage 2: Peer Rankings\n\n")
		for _, r := range msg.Stage2 {
			sb.WriteString(fmt.Sprintf("### %s\n\n", council.ShortModel(r.Model)))
			writeBody(sb, r.Ranking)
			if len(r.ParsedRanking) > 0 {
				sb.WriteString(fmt.Sprintf("*Extracted ranking:* %s\n\n", strings.Join(r.ParsedRanking, " > ")))
			}
		}
	}

	if msg.Metadata != nil && len(msg.Metadata.AggregateRankings) > 0 {
		sb.WriteString("### Aggregate Ranking\n\n")
		sb.WriteString("| # | Response | Model | Avg. rank | Votes |\n")
		sb.WriteString("|---|----------|-------|-----------|-------|\n")
		for i, a := range msg.Metadata.AggregateRankings {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %.2f | %d |\n", i+1, a.Label, a.Model, a.AverageRank, a.RankingsCount))
		}
		sb.WriteString("\n")
	}

	if msg.Stage3 != nil {
		sb.WriteString(fmt.Sprintf("## Stage 3: Final Answer (%s)\n\n", council.ShortModel(msg.Stage3.Model)))
		sb.WriteString(strings.TrimSpace(msg.Stage3.Response))
		sb.WriteString("\n\n")
	}

	if g := msg.Graph; g != nil && len(g.Edges) > 0 {
		sb.WriteString("## Reasoning Graph\n\n")
		for _, e := range g.Edges {
			sb.WriteString(fmt.Sprintf("- `%s` %s `%s`\n", nodeName(g, e.From), e.Relation, nodeName(g, e.To)))
		}
		sb.WriteString("\n")
	}
}

// writeBody renders content as a blockquote unless it carries code blocks
func writeBody(sb *strings.Builder, content string) {
	content = strings.TrimSpace(content)
	if containsCodeBlock(content) {
		sb.WriteString(content)
		sb.WriteString("\n\n")
		return
	}
	writeQuote(sb, content)
	sb.WriteString("\n")
}

func writeQuote(sb *strings.Builder, content string) {
	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		sb.WriteString("> ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
}

func nodeName(g *council.ReasoningGraph, id string) string {
	n, ok := g.Node(id)
	if !ok || n.Role == "" {
		return id
	}
	return fmt.Sprintf("%s:%s", id, n.Role)
}

// participants lists the distinct stage 1 models in first-seen order
func participants(conv *council.Conversation) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range conv.Messages {
		for _, r := range m.Stage1 {
			name := council.ShortModel(r.Model)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// WriteConversation exports conv to dir/YYYY-MM-DD-<title>.md
func WriteConversation(conv *council.Conversation, dir string) (string, error) {
	created := conv.CreatedAt.Time
	if created.IsZero() {
		created = time.Now()
	}
	filename := fmt.Sprintf("%s-%s.md", created.Format("2006-01-02"), sanitizeFilename(conv.Title))

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(ExportConversation(conv)), 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return path, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// sanitizeFilename removes/replaces characters unsuitable for filenames
func sanitizeFilename(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "-")

	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-' || r == '_':
			sb.WriteRune(r)
		}
	}

	result := sb.String()
	for strings.Contains(result, "--") {
		result = strings.ReplaceAll(result, "--", "-")
	}
	result = strings.Trim(result, "-")

	if result == "" {
		result = "conversation"
	}
	if len(result) > 50 {
		result = result[:50]
	}
	return result
}

// containsCodeBlock checks if content already has markdown code blocks
func containsCodeBlock(content string) bool {
	return strings.Contains(content, "```")
}
