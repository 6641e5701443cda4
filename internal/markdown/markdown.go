// Package markdown renders user-written notes to HTML.
package markdown

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/frontmatter"
)

// Renderer converts markdown to HTML. Raw HTML in the source is escaped.
type Renderer struct {
	md goldmark.Markdown
}

func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.Typographer,
			&frontmatter.Extender{},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithHardWraps(),
			goldmarkhtml.WithXHTML(),
		),
	)

	return &Renderer{md: md}
}

func (r *Renderer) Render(source string) (template.HTML, error) {
	html, _, err := r.RenderWithFrontmatter(source)
	return html, err
}

// RenderWithFrontmatter also returns the YAML front matter, or an empty map.
func (r *Renderer) RenderWithFrontmatter(source string) (template.HTML, map[string]any, error) {
	ctx := parser.NewContext()
	var buf bytes.Buffer

	err := r.md.Convert([]byte(source), &buf, parser.WithContext(ctx))
	if err != nil {
		return "", nil, err
	}

	meta := make(map[string]any)
	if data := frontmatter.Get(ctx); data != nil {
		if err := data.Decode(&meta); err != nil {
			meta = make(map[string]any)
		}
	}

	// goldmark escapes raw HTML unless WithUnsafe is set
	return template.HTML(buf.String()), meta, nil
}
