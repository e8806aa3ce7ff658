package assets

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateAssetName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "simple name", input: "preview"},
		{name: "name with hyphen", input: "my-style"},
		{name: "name with underscore", input: "my_style"},
		{name: "name with numbers", input: "style123"},
		{name: "empty name", input: "", wantErr: ErrInvalidAssetName},
		{name: "forward slash", input: "styles/preview", wantErr: ErrInvalidAssetName},
		{name: "backslash", input: `styles\preview`, wantErr: ErrInvalidAssetName},
		{name: "parent traversal", input: "..", wantErr: ErrInvalidAssetName},
		{name: "extension", input: "preview.css", wantErr: ErrInvalidAssetName},
		{name: "null byte", input: "pre\x00view", wantErr: ErrInvalidAssetName},
		{name: "too long", input: strings.Repeat("a", maxAssetNameLength+1), wantErr: ErrInvalidAssetName},
		{name: "at length limit", input: strings.Repeat("a", maxAssetNameLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateAssetName(tt.input)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateAssetName(%q) unexpected error: %v", tt.input, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateAssetName(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
