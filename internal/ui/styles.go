// internal/ui/styles.go
package ui

import (
	"hash/fnv"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Palette
	Cyan    = lipgloss.Color("#5EEAD4")
	Green   = lipgloss.Color("#4ADE80")
	Yellow  = lipgloss.Color("#FACC15")
	Orange  = lipgloss.Color("#FB923C")
	Red     = lipgloss.Color("#F87171")
	Magenta = lipgloss.Color("#E879F9")
	SkyBlue = lipgloss.Color("#7DD3FC")
	Dim     = lipgloss.Color("#52525B")
	White   = lipgloss.Color("#FAFAFA")

	// One hue per council stage
	stageColors = [...]lipgloss.Color{White, SkyBlue, Orange, Green}

	// Expert roles cycle through this palette
	rolePalette = []lipgloss.Color{Cyan, Magenta, Orange, Green, SkyBlue, Yellow}

	ActiveBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Cyan)

	TitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	UserStyle   = lipgloss.NewStyle().Bold(true).Foreground(SkyBlue)
	SystemStyle = lipgloss.NewStyle().Foreground(Yellow)
	ErrorStyle  = lipgloss.NewStyle().Bold(true).Foreground(Red)
	DimStyle    = lipgloss.NewStyle().Foreground(Dim)

	StatusOK   = lipgloss.NewStyle().Foreground(Green).Bold(true)
	StatusWarn = lipgloss.NewStyle().Foreground(Orange).Bold(true)

	// Stage tabs in the header
	ActiveTabStyle   = lipgloss.NewStyle().Foreground(Cyan).Bold(true).Underline(true)
	InactiveTabStyle = lipgloss.NewStyle().Foreground(Dim)
)

// StageStyle returns the header style for council stage n (1-3)
func StageStyle(n int) lipgloss.Style {
	if n < 1 || n >= len(stageColors) {
		return lipgloss.NewStyle().Foreground(White)
	}
	return lipgloss.NewStyle().Foreground(stageColors[n]).Bold(true)
}

// RoleStyle returns a stable style for an expert role
func RoleStyle(role string) lipgloss.Style {
	color := White
	if role != "" {
		h := fnv.New32a()
		h.Write([]byte(role))
		color = rolePalette[h.Sum32()%uint32(len(rolePalette))]
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true)
}
