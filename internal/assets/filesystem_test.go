package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeAsset creates {dir}/{sub}/{name} with content.
func writeAsset(t *testing.T, dir, sub, name, content string) {
	t.Helper()
	path := filepath.Join(dir, sub)
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	if err := os.WriteFile(filepath.Join(path, name), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestNewFilesystemLoader(t *testing.T) {
	t.Parallel()

	t.Run("valid directory", func(t *testing.T) {
		t.Parallel()

		loader, err := NewFilesystemLoader(t.TempDir())
		if err != nil {
			t.Fatalf("NewFilesystemLoader() error = %v", err)
		}
		if loader == nil {
			t.Fatal("NewFilesystemLoader() returned nil")
		}
	})

	t.Run("empty path returns error", func(t *testing.T) {
		t.Parallel()

		_, err := NewFilesystemLoader("")
		if !errors.Is(err, ErrInvalidBasePath) {
			t.Errorf("NewFilesystemLoader(\"\") error = %v, want ErrInvalidBasePath", err)
		}
	})

	t.Run("nonexistent directory returns error", func(t *testing.T) {
		t.Parallel()

		_, err := NewFilesystemLoader("/nonexistent/path/abc123xyz")
		if !errors.Is(err, ErrInvalidBasePath) {
			t.Errorf("NewFilesystemLoader() error = %v, want ErrInvalidBasePath", err)
		}
	})

	t.Run("file instead of directory returns error", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		filePath := filepath.Join(tmpDir, "file.txt")
		if err := os.WriteFile(filePath, []byte("test"), 0644); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}

		_, err := NewFilesystemLoader(filePath)
		if !errors.Is(err, ErrInvalidBasePath) {
			t.Errorf("NewFilesystemLoader() error = %v, want ErrInvalidBasePath", err)
		}
	})
}

func TestFilesystemLoader_Load(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeAsset(t, tmpDir, "styles", "custom.css", "body { color: red; }")
	writeAsset(t, tmpDir, "templates", "editor.html", "<html>custom</html>")

	loader, err := NewFilesystemLoader(tmpDir)
	if err != nil {
		t.Fatalf("NewFilesystemLoader() error = %v", err)
	}

	t.Run("loads existing style", func(t *testing.T) {
		t.Parallel()

		got, err := loader.LoadStyle("custom")
		if err != nil {
			t.Fatalf("LoadStyle() error = %v", err)
		}
		if got != "body { color: red; }" {
			t.Errorf("LoadStyle() = %q", got)
		}
	})

	t.Run("loads existing template", func(t *testing.T) {
		t.Parallel()

		got, err := loader.LoadTemplate("editor")
		if err != nil {
			t.Fatalf("LoadTemplate() error = %v", err)
		}
		if got != "<html>custom</html>" {
			t.Errorf("LoadTemplate() = %q", got)
		}
	})

	t.Run("missing style", func(t *testing.T) {
		t.Parallel()

		_, err := loader.LoadStyle("missing")
		if !errors.Is(err, ErrStyleNotFound) {
			t.Errorf("LoadStyle() error = %v, want ErrStyleNotFound", err)
		}
	})

	t.Run("missing template", func(t *testing.T) {
		t.Parallel()

		_, err := loader.LoadTemplate("capture")
		if !errors.Is(err, ErrTemplateNotFound) {
			t.Errorf("LoadTemplate() error = %v, want ErrTemplateNotFound", err)
		}
	})

	t.Run("traversal name rejected", func(t *testing.T) {
		t.Parallel()

		_, err := loader.LoadStyle("../../etc/passwd")
		if !errors.Is(err, ErrInvalidAssetName) {
			t.Errorf("LoadStyle() error = %v, want ErrInvalidAssetName", err)
		}
	})
}

func TestFilesystemLoader_SymlinkEscape(t *testing.T) {
	t.Parallel()

	outside := t.TempDir()
	writeAsset(t, outside, "", "secret.css", "secret")

	base := t.TempDir()
	if err := os.MkdirAll(filepath.Join(base, "styles"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	link := filepath.Join(base, "styles", "escape.css")
	if err := os.Symlink(filepath.Join(outside, "secret.css"), link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	loader, err := NewFilesystemLoader(base)
	if err != nil {
		t.Fatalf("NewFilesystemLoader() error = %v", err)
	}

	_, err = loader.LoadStyle("escape")
	if !errors.Is(err, ErrPathTraversal) {
		t.Errorf("LoadStyle() error = %v, want ErrPathTraversal", err)
	}
}
