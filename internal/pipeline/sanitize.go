package pipeline

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips unsafe markup from rendered HTML.
type Sanitizer interface {
	Sanitize(htmlContent string) string
}

// checkboxType restricts <input> to GFM task list checkboxes.
var checkboxType = regexp.MustCompile(`^checkbox$`)

// UGCSanitizer applies bluemonday's user-generated-content policy, widened
// for what goldmark emits: chroma classes, task list checkboxes and
// footnote/heading ids.
type UGCSanitizer struct {
	policy *bluemonday.Policy
}

// NewUGCSanitizer builds the preview sanitizer policy.
func NewUGCSanitizer() *UGCSanitizer {
	p := bluemonday.UGCPolicy()
	p.AllowStyling()
	p.AllowElements("input")
	p.AllowAttrs("type").Matching(checkboxType).OnElements("input")
	p.AllowAttrs("checked", "disabled").OnElements("input")
	p.AllowAttrs("tabindex").Matching(bluemonday.Integer).OnElements("pre")
	return &UGCSanitizer{policy: p}
}

// Sanitize returns htmlContent with disallowed elements and attributes removed.
func (s *UGCSanitizer) Sanitize(htmlContent string) string {
	return s.policy.Sanitize(htmlContent)
}
