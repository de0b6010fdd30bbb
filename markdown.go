package souqfeed

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// DescriptionRendererFunc renders a post description to HTML for the
// detail view.
type DescriptionRendererFunc func(description string) (string, error)

// DefaultDescriptionRenderer returns a DescriptionRendererFunc backed by
// goldmark with the GFM and Typographer extensions. Descriptions are plain
// user text, so this stays lightweight.
func DefaultDescriptionRenderer() DescriptionRendererFunc {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
		),
	)

	return func(description string) (string, error) {
		var buf bytes.Buffer
		if err := md.Convert([]byte(description), &buf); err != nil {
			return "", fmt.Errorf("failed to render description: %w", err)
		}
		return buf.String(), nil
	}
}
