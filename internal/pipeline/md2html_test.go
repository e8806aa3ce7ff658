package pipeline

// Notes:
// - GoldmarkConverter is exercised with real goldmark; no mocks needed.
// - Sanitizer tests check the policy widening (classes, checkboxes, ids)
//   and that scripts and event handlers never survive.

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestGoldmarkConverter_ToHTML - Markdown to fragment
// ---------------------------------------------------------------------------

func TestGoldmarkConverter_ToHTML(t *testing.T) {
	t.Parallel()

	conv := NewGoldmarkConverter()

	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "heading gets id",
			input:    "# Hello World",
			contains: []string{`<h1 id="hello-world">Hello World</h1>`},
		},
		{
			name:     "fragment has no document wrapper",
			input:    "text",
			contains: []string{"<p>text</p>"},
			excludes: []string{"<html", "<body"},
		},
		{
			name:     "GFM table",
			input:    "| a | b |\n|---|---|\n| 1 | 2 |",
			contains: []string{"<table>", "<td>1</td>"},
		},
		{
			name:     "strikethrough",
			input:    "~~gone~~",
			contains: []string{"<del>gone</del>"},
		},
		{
			name:     "code block highlighted with classes",
			input:    "```go\nfunc main() {}\n```",
			contains: []string{`class="chroma"`},
			excludes: []string{"style="},
		},
		{
			name:     "raw HTML omitted",
			input:    "<script>alert(1)</script>",
			excludes: []string{"<script>"},
		},
		{
			name:     "empty input",
			input:    "",
			excludes: []string{"<p>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := conv.ToHTML(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("ToHTML() error = %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("ToHTML(%q) = %q, missing %q", tt.input, got, want)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("ToHTML(%q) = %q, should not contain %q", tt.input, got, bad)
				}
			}
		})
	}
}

func TestGoldmarkConverter_ToHTML_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGoldmarkConverter().ToHTML(ctx, "# x")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ToHTML() error = %v, want context.Canceled", err)
	}
}

func TestGoldmarkConverter_Deterministic(t *testing.T) {
	t.Parallel()

	conv := NewGoldmarkConverter()
	input := "# Title\n\n- a\n- b\n\n> quote"

	first, err := conv.ToHTML(context.Background(), input)
	if err != nil {
		t.Fatalf("ToHTML() error = %v", err)
	}
	second, err := conv.ToHTML(context.Background(), input)
	if err != nil {
		t.Fatalf("ToHTML() error = %v", err)
	}
	if first != second {
		t.Errorf("ToHTML() not deterministic:\n%s\n%s", first, second)
	}
}

// ---------------------------------------------------------------------------
// TestUGCSanitizer - Sanitizer policy
// ---------------------------------------------------------------------------

func TestUGCSanitizer(t *testing.T) {
	t.Parallel()

	s := NewUGCSanitizer()

	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "script removed",
			input:    `<p>ok</p><script>alert(1)</script>`,
			contains: []string{"<p>ok</p>"},
			excludes: []string{"script", "alert"},
		},
		{
			name:     "event handler removed",
			input:    `<img src="a.png" onerror="alert(1)">`,
			contains: []string{`src="a.png"`},
			excludes: []string{"onerror"},
		},
		{
			name:     "javascript URL removed",
			input:    `<a href="javascript:alert(1)">x</a>`,
			excludes: []string{"javascript:"},
		},
		{
			name:     "chroma classes kept",
			input:    `<pre class="chroma"><code><span class="kd">func</span></code></pre>`,
			contains: []string{`class="chroma"`, `class="kd"`},
		},
		{
			name:     "task list checkbox kept",
			input:    `<li><input checked="" disabled="" type="checkbox"/> done</li>`,
			contains: []string{`type="checkbox"`, "checked", "disabled"},
		},
		{
			name:     "text input dropped to bare element",
			input:    `<input type="text" value="x">`,
			excludes: []string{`type="text"`, "value"},
		},
		{
			name:     "heading id kept",
			input:    `<h2 id="features">Features</h2>`,
			contains: []string{`id="features"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := s.Sanitize(tt.input)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, missing %q", tt.input, got, want)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("Sanitize(%q) = %q, should not contain %q", tt.input, got, bad)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestLineNormalizer - Line endings
// ---------------------------------------------------------------------------

func TestLineNormalizer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, input, want string
	}{
		{"crlf", "a\r\nb", "a\nb"},
		{"cr", "a\rb", "a\nb"},
		{"lf untouched", "a\nb", "a\nb"},
		{"mixed", "a\r\nb\rc\n", "a\nb\nc\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := LineNormalizer{}.PreprocessMarkdown(context.Background(), tt.input)
			if got != tt.want {
				t.Errorf("PreprocessMarkdown(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
