package pipeline

import (
	"context"
	"regexp"
)

// crlfOrCR matches Windows and classic Mac line endings.
var crlfOrCR = regexp.MustCompile(`\r\n?`)

// MarkdownPreprocessor defines the contract for markdown preprocessing.
type MarkdownPreprocessor interface {
	PreprocessMarkdown(ctx context.Context, content string) string
}

// LineNormalizer rewrites line endings to \n. Browsers submit textarea
// content with CRLF, which would otherwise leak into code blocks.
type LineNormalizer struct{}

// PreprocessMarkdown converts \r\n and \r to \n.
func (LineNormalizer) PreprocessMarkdown(ctx context.Context, content string) string {
	if ctx.Err() != nil {
		return content
	}
	return crlfOrCR.ReplaceAllString(content, "\n")
}
