package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"
)

// ErrCaptureRender indicates the capture document template failed.
var ErrCaptureRender = errors.New("capture document rendering failed")

// CaptureData describes the standalone page handed to the rasterizer.
type CaptureData struct {
	Title   string
	Content string // sanitized HTML fragment
	CSS     string
	Width   int // CSS px; matches the preview pane's scroll width
}

// CaptureBuilder renders fragments into standalone HTML documents so the
// rasterizer lays them out exactly like the preview pane.
type CaptureBuilder struct {
	tmpl *template.Template
}

// NewCaptureBuilder parses the capture template.
// Returns error if the template cannot be parsed.
func NewCaptureBuilder(tmplContent string) (*CaptureBuilder, error) {
	tmpl, err := template.New("capture").Parse(tmplContent)
	if err != nil {
		return nil, fmt.Errorf("parsing capture template: %w", err)
	}
	return &CaptureBuilder{tmpl: tmpl}, nil
}

// Build renders the capture document.
// Content is trusted: it must already be sanitized.
func (b *CaptureBuilder) Build(data CaptureData) (string, error) {
	title := data.Title
	if title == "" {
		title = "Document"
	}

	view := struct {
		Title   string
		Content template.HTML
		CSS     template.CSS
		Width   int
	}{
		Title:   title,
		Content: template.HTML(data.Content), // #nosec G203 -- sanitized upstream
		CSS:     template.CSS(sanitizeCSS(data.CSS)),
		Width:   data.Width,
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCaptureRender, err)
	}
	return buf.String(), nil
}

// sanitizeCSS escapes sequences that could break out of a <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}
