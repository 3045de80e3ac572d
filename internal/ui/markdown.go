// internal/ui/markdown.go
package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"
)

// Markdown renders answer text for the terminal, caching one renderer per width
type Markdown struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
}

// NewMarkdown creates a renderer using a glamour style ("dark", "notty", ...)
func NewMarkdown(style string) *Markdown {
	if style == "" {
		style = "dark"
	}
	return &Markdown{style: style}
}

// Render formats content wrapped to width. Rendering failures fall back to the
// raw text.
func (md *Markdown) Render(content string, width int) string {
	if width < 20 {
		width = 20
	}
	if md.renderer == nil || md.width != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(md.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			log.Warn().Err(err).Msg("markdown renderer unavailable")
			return content
		}
		md.renderer, md.width = r, width
	}

	out, err := md.renderer.Render(content)
	if err != nil {
		log.Debug().Err(err).Msg("markdown render failed")
		return content
	}
	return strings.Trim(out, "\n")
}
