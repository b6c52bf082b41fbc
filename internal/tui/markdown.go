package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/reflow/wordwrap"
)

// markdownRenderer wraps glamour for tutor text, rebuilt on resize. A
// renderer failure falls back to plain word wrapping so the transcript
// never goes blank on an odd terminal.
type markdownRenderer struct {
	renderer *glamour.TermRenderer
	width    int
}

func newMarkdownRenderer(width int) *markdownRenderer {
	r := &markdownRenderer{width: width}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	)
	if err == nil {
		r.renderer = renderer
	}
	return r
}

func (r *markdownRenderer) Render(text string) string {
	if r.renderer != nil {
		if out, err := r.renderer.Render(text); err == nil {
			return strings.Trim(out, "\n")
		}
	}
	return wordwrap.String(text, r.width)
}
