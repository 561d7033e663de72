package ui

import (
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// maxReadableWidth caps word wrap for long descriptions.
const maxReadableWidth = 100

// RenderMarkdown renders an issue description with glamour.
// Returns the original text if colors are disabled or rendering fails.
// Word wraps at terminal width (or 80 columns if width can't be detected).
func RenderMarkdown(markdown string) string {
	if !ShouldUseColor() {
		return markdown
	}

	wrapWidth := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		wrapWidth = w
	}
	if wrapWidth > maxReadableWidth {
		wrapWidth = maxReadableWidth
	}

	return renderMarkdown(markdown, wrapWidth, glamour.WithAutoStyle())
}

func renderMarkdown(markdown string, width int, style glamour.TermRendererOption) string {
	renderer, err := glamour.NewTermRenderer(
		style,
		glamour.WithWordWrap(width),
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
