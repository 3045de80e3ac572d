// internal/ui/graph.go
package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"synapse/internal/council"
	"synapse/internal/layout"
)

// Character-cell geometry of the graph canvas
const (
	cellPitch = 20 // columns per layout pitch
	boxWidth  = 18
	boxHeight = 4
	rowHeight = boxHeight + 1
)

// RenderGraph draws a laid out reasoning graph as text boxes, one row per
// tier, followed by the edge list. pitch is the layout's horizontal pitch and
// is used to map layout x coordinates to columns. Lines are clipped to width.
func RenderGraph(res layout.Result, pitch float64, width int) string {
	if len(res.Nodes) == 0 {
		return DimStyle.Render("No reasoning graph yet.")
	}
	if pitch <= 0 {
		pitch = layout.DefaultOptions().Pitch
	}

	minX := math.Inf(1)
	maxTier := 0
	for _, n := range res.Nodes {
		minX = min(minX, n.Position.X)
		maxTier = max(maxTier, n.Tier)
	}

	cols := make([]int, len(res.Nodes))
	gridW := 0
	for i, n := range res.Nodes {
		cols[i] = int(math.Round((n.Position.X - minX) / pitch * cellPitch))
		gridW = max(gridW, cols[i]+boxWidth)
	}

	grid := make([][]rune, (maxTier+1)*rowHeight-1)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", gridW))
	}
	for i, n := range res.Nodes {
		drawBox(grid, n.Tier*rowHeight, cols[i], n.Label)
	}

	var sb strings.Builder
	for _, line := range grid {
		sb.WriteString(clip(strings.TrimRight(string(line), " "), width))
		sb.WriteString("\n")
	}

	if len(res.Edges) > 0 {
		sb.WriteString("\n")
		for _, e := range res.Edges {
			line := fmt.Sprintf("%s → %s  %s", e.Source, e.Target, DimStyle.Render(e.Label))
			sb.WriteString(clip(line, width))
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func drawBox(grid [][]rune, row, col int, label string) {
	inner := boxWidth - 2
	put := func(r, c int, s string) {
		for i, ch := range []rune(s) {
			if r < len(grid) && c+i < len(grid[r]) {
				grid[r][c+i] = ch
			}
		}
	}

	put(row, col, "┌"+strings.Repeat("─", inner)+"┐")
	lines := strings.SplitN(label, "\n", 2)
	for i := 0; i < 2; i++ {
		text := ""
		if i < len(lines) {
			text = truncate(lines[i], inner)
		}
		pad := inner - len([]rune(text))
		left := pad / 2
		put(row+1+i, col, "│"+strings.Repeat(" ", left)+text+strings.Repeat(" ", pad-left)+"│")
	}
	put(row+3, col, "└"+strings.Repeat("─", inner)+"┘")
}

// RenderMatrix draws a labelled square matrix of values in [0, 1]
func RenderMatrix(title string, m [][]float64, labels []string, hue lipgloss.Color) string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render(title))
	sb.WriteString("\n")
	if len(m) == 0 {
		sb.WriteString(DimStyle.Render("  not available"))
		return sb.String()
	}

	label := func(i int) string {
		if i < len(labels) && labels[i] != "" {
			return labels[i]
		}
		return fmt.Sprintf("R%d", i+1)
	}

	sb.WriteString(strings.Repeat(" ", 6))
	for j := range m[0] {
		sb.WriteString(fmt.Sprintf("%6s", label(j)))
	}
	sb.WriteString("\n")

	strong := lipgloss.NewStyle().Foreground(hue).Bold(true)
	medium := lipgloss.NewStyle().Foreground(hue)
	for i, row := range m {
		sb.WriteString(fmt.Sprintf("%-6s", label(i)))
		for _, v := range row {
			cell := fmt.Sprintf("%6.2f", v)
			switch {
			case v > 0.66:
				cell = strong.Render(cell)
			case v > 0.33:
				cell = medium.Render(cell)
			default:
				cell = DimStyle.Render(cell)
			}
			sb.WriteString(cell)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// RenderMatrices renders the similarity and contradiction matrices of g
func RenderMatrices(g *council.ReasoningGraph) string {
	if g == nil {
		return DimStyle.Render("No reasoning graph yet.")
	}
	labels := g.MatrixLabels()
	return RenderMatrix("Similarity", g.SimilarityMatrix, labels, Green) + "\n\n" +
		RenderMatrix("Contradiction", g.ContradictionMatrix, labels, Red)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func clip(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	if len(r) > width {
		r = r[:width]
	}
	return string(r)
}
