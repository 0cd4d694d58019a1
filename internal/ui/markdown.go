package ui

import (
	"github.com/charmbracelet/glamour"
)

// maxReadableWidth caps word wrapping on wide terminals.
const maxReadableWidth = 100

// RenderMarkdown renders markdown for the terminal. Without colour, or if
// glamour fails, the source is returned unchanged.
func (c *Console) RenderMarkdown(markdown string) string {
	if !c.color {
		return markdown
	}

	wrapWidth := c.width
	if wrapWidth > maxReadableWidth {
		wrapWidth = maxReadableWidth
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrapWidth),
	)
	if err != nil {
		return markdown
	}

	rendered, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return rendered
}
