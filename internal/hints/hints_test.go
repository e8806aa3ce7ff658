package hints

// Notes:
// - ForBrowserConnect tests cannot use t.Parallel() because they:
//   1. Use t.Setenv() which modifies process environment
//   2. Modify the package-level IsInContainer variable

import (
	"strings"
	"testing"
)

func stubContainer(t *testing.T, inContainer bool) {
	t.Helper()
	orig := IsInContainer
	t.Cleanup(func() { IsInContainer = orig })
	IsInContainer = func() bool { return inContainer }
}

func TestForBrowserConnect(t *testing.T) {
	tests := []struct {
		name        string
		container   bool
		env         map[string]string
		wantContain []string
		wantExclude []string
	}{
		{
			name:        "docker without sandbox override",
			container:   true,
			env:         map[string]string{"CI": "", "ROD_BROWSER_BIN": "", "GITHUB_ACTIONS": ""},
			wantContain: []string{"CI=true", "ROD_BROWSER_BIN", "mdexport doctor"},
		},
		{
			name:        "github actions without CI=true",
			container:   false,
			env:         map[string]string{"CI": "", "GITHUB_ACTIONS": "true", "ROD_BROWSER_BIN": ""},
			wantContain: []string{"CI=true"},
		},
		{
			name:        "CI already true",
			container:   true,
			env:         map[string]string{"CI": "true", "ROD_BROWSER_BIN": ""},
			wantContain: []string{"ROD_BROWSER_BIN"},
			wantExclude: []string{"CI=true"},
		},
		{
			name:        "browser bin set",
			container:   true,
			env:         map[string]string{"CI": "", "ROD_BROWSER_BIN": "/usr/bin/chromium", "GITHUB_ACTIONS": ""},
			wantContain: []string{"mdexport doctor"},
			wantExclude: []string{"CI=true", "ROD_BROWSER_BIN"},
		},
		{
			name:        "desktop",
			container:   false,
			env:         map[string]string{"CI": "", "ROD_BROWSER_BIN": "", "GITHUB_ACTIONS": "", "GITLAB_CI": "", "JENKINS_URL": ""},
			wantContain: []string{"ROD_BROWSER_BIN"},
			wantExclude: []string{"CI=true"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubContainer(t, tt.container)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			hint := ForBrowserConnect()

			if !strings.HasPrefix(hint, "\n  hint: ") {
				t.Errorf("hint %q missing prefix", hint)
			}
			for _, want := range tt.wantContain {
				if !strings.Contains(hint, want) {
					t.Errorf("hint %q missing %q", hint, want)
				}
			}
			for _, exclude := range tt.wantExclude {
				if strings.Contains(hint, exclude) {
					t.Errorf("hint %q should not contain %q", hint, exclude)
				}
			}
		})
	}
}

func TestForConfigNotFound(t *testing.T) {
	t.Parallel()

	hint := ForConfigNotFound([]string{"team.yaml", "/home/u/.config/mdexport/team.yaml"})
	if !strings.Contains(hint, "--config") {
		t.Errorf("hint %q missing --config", hint)
	}
	if !strings.Contains(hint, "create /home/u/.config/mdexport/team.yaml") {
		t.Errorf("hint %q missing user config path", hint)
	}

	hint = ForConfigNotFound([]string{"team.yaml"})
	if strings.Contains(hint, "create") {
		t.Errorf("hint %q should not suggest a path", hint)
	}
}

func TestSimpleHints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"timeout", ForTimeout(), "--timeout"},
		{"style", ForStyleNotFound([]string{"plain", "preview"}), "available: plain, preview"},
		{"address", ForAddressInUse(":8080"), ":8080"},
		{"output", ForOutputDirectory(), "writable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if !strings.HasPrefix(tt.got, "\n  hint: ") || !strings.Contains(tt.got, tt.want) {
				t.Errorf("hint = %q, want prefix and %q", tt.got, tt.want)
			}
		})
	}
}

func TestForStyleNotFound_Empty(t *testing.T) {
	t.Parallel()

	if got := ForStyleNotFound(nil); got != "" {
		t.Errorf("ForStyleNotFound(nil) = %q, want empty", got)
	}
}

func TestFormatHints_Empty(t *testing.T) {
	t.Parallel()

	if got := formatHints(nil); got != "" {
		t.Errorf("formatHints(nil) = %q, want empty", got)
	}
}
