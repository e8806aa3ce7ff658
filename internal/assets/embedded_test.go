package assets

import (
	"errors"
	"strings"
	"testing"
)

func TestEmbeddedLoader_LoadStyle(t *testing.T) {
	t.Parallel()

	loader := NewEmbeddedLoader()

	tests := []struct {
		name      string
		style     string
		wantErr   error
		wantMatch string
	}{
		{name: "default style", style: DefaultStyleName, wantMatch: ".preview"},
		{name: "plain style", style: "plain", wantMatch: ".preview"},
		{name: "unknown style", style: "nonexistent", wantErr: ErrStyleNotFound},
		{name: "invalid name", style: "../preview", wantErr: ErrInvalidAssetName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := loader.LoadStyle(tt.style)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("LoadStyle(%q) error = %v, want %v", tt.style, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadStyle(%q) unexpected error: %v", tt.style, err)
			}
			if !strings.Contains(got, tt.wantMatch) {
				t.Errorf("LoadStyle(%q) missing %q", tt.style, tt.wantMatch)
			}
		})
	}
}

func TestEmbeddedLoader_LoadTemplate(t *testing.T) {
	t.Parallel()

	loader := NewEmbeddedLoader()

	t.Run("editor template has both export buttons", func(t *testing.T) {
		t.Parallel()

		got, err := loader.LoadTemplate(EditorTemplateName)
		if err != nil {
			t.Fatalf("LoadTemplate() error = %v", err)
		}
		for _, want := range []string{`id="export-doc"`, `id="export-pdf"`, `id="preview"`, "/ws"} {
			if !strings.Contains(got, want) {
				t.Errorf("editor template missing %q", want)
			}
		}
	})

	t.Run("capture template wraps content", func(t *testing.T) {
		t.Parallel()

		got, err := loader.LoadTemplate(CaptureTemplateName)
		if err != nil {
			t.Fatalf("LoadTemplate() error = %v", err)
		}
		if !strings.Contains(got, "{{.Content}}") {
			t.Error("capture template missing content placeholder")
		}
	})

	t.Run("unknown template", func(t *testing.T) {
		t.Parallel()

		_, err := loader.LoadTemplate("missing")
		if !errors.Is(err, ErrTemplateNotFound) {
			t.Errorf("LoadTemplate() error = %v, want ErrTemplateNotFound", err)
		}
	})
}

func TestEmbeddedLoader_StyleNames(t *testing.T) {
	t.Parallel()

	names := NewEmbeddedLoader().StyleNames()
	want := []string{"plain", "preview"}
	if len(names) != len(want) {
		t.Fatalf("StyleNames() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("StyleNames()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}
