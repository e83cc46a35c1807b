// Package markdown renders history summaries for terminal output.
package markdown

import (
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// ToHTML renders a markdown summary to HTML.
func ToHTML(md string) string {
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	})
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Attributes)
	return string(markdown.Render(p.Parse([]byte(md)), renderer))
}

// ToPlainText renders a markdown summary as plain terminal text by stripping
// the tags from the HTML rendering.
func ToPlainText(md string) string {
	var b strings.Builder
	inTag := false
	for _, ch := range ToHTML(md) {
		switch ch {
		case '<':
			inTag = true
		case '>':
			inTag = false
		default:
			if !inTag {
				b.WriteRune(ch)
			}
		}
	}
	return strings.TrimSpace(b.String())
}
