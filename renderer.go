package mdexport

import (
	"context"
	"fmt"
	"sync"

	"github.com/alnah/go-mdexport/internal/pipeline"
)

// Compile-time interface checks.
var (
	_ pipeline.MarkdownPreprocessor = pipeline.LineNormalizer{}
	_ pipeline.HTMLConverter        = (*pipeline.GoldmarkConverter)(nil)
	_ pipeline.Sanitizer            = (*pipeline.UGCSanitizer)(nil)
)

// Renderer turns markdown into a sanitized HTML fragment.
// The result for the last input is memoized, so repeated reads of an
// unchanged document do not re-render.
type Renderer struct {
	preprocessor pipeline.MarkdownPreprocessor
	converter    pipeline.HTMLConverter
	sanitizer    pipeline.Sanitizer

	mu       sync.Mutex
	valid    bool
	lastText string
	lastHTML string
}

// NewRenderer creates a Renderer using goldmark with GFM and chroma
// highlighting, sanitized with the bluemonday UGC policy.
func NewRenderer() *Renderer {
	return &Renderer{
		preprocessor: pipeline.LineNormalizer{},
		converter:    pipeline.NewGoldmarkConverter(),
		sanitizer:    pipeline.NewUGCSanitizer(),
	}
}

// Render returns the HTML fragment for markdown. Empty input yields an
// empty fragment.
func (r *Renderer) Render(ctx context.Context, markdown string) (string, error) {
	r.mu.Lock()
	if r.valid && r.lastText == markdown {
		html := r.lastHTML
		r.mu.Unlock()
		return html, nil
	}
	r.mu.Unlock()

	normalized := r.preprocessor.PreprocessMarkdown(ctx, markdown)
	raw, err := r.converter.ToHTML(ctx, normalized)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
	html := r.sanitizer.Sanitize(raw)

	r.mu.Lock()
	r.valid = true
	r.lastText = markdown
	r.lastHTML = html
	r.mu.Unlock()

	return html, nil
}
