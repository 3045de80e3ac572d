// internal/ui/help.go
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(Yellow).
				MarginTop(1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(Green).
			Bold(true)

	helpCmdStyle = lipgloss.NewStyle().
			Foreground(Magenta)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(White)
)

type helpEntry struct {
	key  string
	desc string
}

var helpKeys = []helpEntry{
	{"Enter", "Ask the council / run a slash command"},
	{"Alt+1 / 2 / 3", "Show answers, rankings or the final answer"},
	{"Ctrl+G", "Toggle the reasoning graph"},
	{"Ctrl+L", "Browse conversations"},
	{"PgUp / PgDn", "Scroll the transcript"},
	{"F1", "Toggle this help overlay"},
	{"Esc", "Close overlay / cancel the running exchange"},
	{"Ctrl+C", "Quit Synapse"},
}

var helpCommands = []helpEntry{
	{"/help", "Show this help overlay"},
	{"/new [title]", "Start a new conversation"},
	{"/rename <title>", "Rename the current conversation"},
	{"/delete", "Delete the current conversation"},
	{"/list", "Browse conversations"},
	{"/open <n>", "Open conversation n from the last listing"},
	{"/stage <1|2|3>", "Show answers, rankings or the final answer"},
	{"/graph", "Toggle the reasoning graph"},
	{"/matrix", "Show similarity and contradiction matrices"},
	{"/export", "Export the conversation to markdown"},
	{"/cancel", "Abandon the running exchange"},
}

var helpStatus = []struct {
	symbol string
	style  lipgloss.Style
	desc   string
}{
	{"●", StatusOK, "Stage result received"},
	{"⣾", StatusWarn, "Stage in progress"},
	{"○", DimStyle, "Stage not started or unavailable"},
}

// HelpContent returns the formatted help overlay
func HelpContent(width, height int) string {
	var content strings.Builder

	content.WriteString(TitleStyle.Render("SYNAPSE HELP"))
	content.WriteString("\n")

	content.WriteString(helpSectionStyle.Render("KEYBINDINGS"))
	content.WriteString("\n\n")
	for _, kb := range helpKeys {
		content.WriteString("  " + helpKeyStyle.Width(16).Render(kb.key) + "  " + helpDescStyle.Render(kb.desc) + "\n")
	}

	content.WriteString(helpSectionStyle.Render("SLASH COMMANDS"))
	content.WriteString("\n\n")
	for _, c := range helpCommands {
		content.WriteString("  " + helpCmdStyle.Width(16).Render(c.key) + "  " + helpDescStyle.Render(c.desc) + "\n")
	}

	content.WriteString(helpSectionStyle.Render("STAGE INDICATORS"))
	content.WriteString("\n\n")
	for _, ind := range helpStatus {
		content.WriteString("  " + ind.style.Width(3).Render(ind.symbol) + "  " + helpDescStyle.Render(ind.desc) + "\n")
	}

	content.WriteString("\n")
	content.WriteString(DimStyle.Render("Every question goes to the council: experts answer, rank each\nother anonymously, and a chairman synthesizes the final answer."))
	content.WriteString("\n\n")
	content.WriteString(DimStyle.Render("Press F1 or Esc to close this help"))

	return overlay(content.String(), width, height, 3)
}
