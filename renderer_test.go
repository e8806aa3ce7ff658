package mdexport

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type countingConverter struct {
	calls int
	err   error
}

func (c *countingConverter) ToHTML(ctx context.Context, content string) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return "<p>" + content + "</p>", nil
}

func TestRenderer_Render(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		input        string
		wantContains []string
		wantExcludes []string
	}{
		{
			name:         "empty input",
			input:        "",
			wantExcludes: []string{"<p>"},
		},
		{
			name:         "heading and emphasis",
			input:        "# Title\n\n**bold**",
			wantContains: []string{"<h1", "Title</h1>", "<strong>bold</strong>"},
		},
		{
			name:         "script is not rendered",
			input:        "<script>alert(1)</script>\n\ntext",
			wantContains: []string{"text"},
			wantExcludes: []string{"<script>"},
		},
		{
			name:         "code block is highlighted with classes",
			input:        "```go\nfunc main() {}\n```",
			wantContains: []string{"chroma"},
			wantExcludes: []string{"style="},
		},
		{
			name:         "CRLF input renders like LF",
			input:        "a\r\nb",
			wantContains: []string{"a\nb"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NewRenderer().Render(t.Context(), tt.input)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Render() missing %q in %q", want, got)
				}
			}
			for _, exclude := range tt.wantExcludes {
				if strings.Contains(got, exclude) {
					t.Errorf("Render() should not contain %q in %q", exclude, got)
				}
			}
		})
	}
}

func TestRenderer_Memoized(t *testing.T) {
	t.Parallel()

	conv := &countingConverter{}
	r := NewRenderer()
	r.converter = conv

	for range 3 {
		if _, err := r.Render(t.Context(), "same"); err != nil {
			t.Fatalf("Render() error = %v", err)
		}
	}
	if conv.calls != 1 {
		t.Errorf("converter calls = %d, want 1", conv.calls)
	}

	if _, err := r.Render(t.Context(), "changed"); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if _, err := r.Render(t.Context(), "same"); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if conv.calls != 3 {
		t.Errorf("converter calls = %d, want 3 (only the last input is memoized)", conv.calls)
	}
}

func TestRenderer_Deterministic(t *testing.T) {
	t.Parallel()

	a, err := NewRenderer().Render(t.Context(), DefaultMarkdown)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	b, err := NewRenderer().Render(t.Context(), DefaultMarkdown)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if a != b {
		t.Error("rendering the same markdown twice produced different HTML")
	}
}

func TestRenderer_ConversionError(t *testing.T) {
	t.Parallel()

	r := NewRenderer()
	r.converter = &countingConverter{err: errors.New("boom")}

	if _, err := r.Render(t.Context(), "x"); !errors.Is(err, ErrHTMLConversion) {
		t.Errorf("Render() error = %v, want ErrHTMLConversion", err)
	}
}

func TestDefaultMarkdown_Renders(t *testing.T) {
	t.Parallel()

	got, err := NewRenderer().Render(t.Context(), DefaultMarkdown)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for _, want := range []string{"Markdown to Document Converter</h1>", "<blockquote>", "<ol>", "<ul>", "Enjoy using the converter!"} {
		if !strings.Contains(got, want) {
			t.Errorf("sample render missing %q", want)
		}
	}
}
