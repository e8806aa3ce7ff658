package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemLoader reads styles and templates from a user directory laid
// out like the embedded set: {root}/styles/*.css and {root}/templates/*.html.
type FilesystemLoader struct {
	root string // absolute, symlinks resolved
}

// NewFilesystemLoader opens root as an asset directory.
// Returns ErrInvalidBasePath unless root is a readable directory.
func NewFilesystemLoader(root string) (*FilesystemLoader, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		abs = real
	}

	if _, err := os.ReadDir(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: directory does not exist: %s", ErrInvalidBasePath, abs)
		}
		if info, statErr := os.Stat(abs); statErr == nil && !info.IsDir() {
			return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidBasePath, abs)
		}
		return nil, fmt.Errorf("%w: cannot read directory: %v", ErrInvalidBasePath, err)
	}

	return &FilesystemLoader{root: abs}, nil
}

// LoadStyle reads {root}/styles/{name}.css.
func (f *FilesystemLoader) LoadStyle(name string) (string, error) {
	return f.read(name, "styles", ".css", ErrStyleNotFound)
}

// LoadTemplate reads {root}/templates/{name}.html.
func (f *FilesystemLoader) LoadTemplate(name string) (string, error) {
	return f.read(name, "templates", ".html", ErrTemplateNotFound)
}

func (f *FilesystemLoader) read(name, dir, ext string, notFound error) (string, error) {
	path, err := f.resolve(name, dir, ext)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path) // #nosec G304 -- resolve keeps path under root
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %q", notFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAssetRead, err)
	}
	return string(data), nil
}

// resolve validates name and returns the asset path, following symlinks.
// The result must stay strictly inside root, so a styles/ entry linking to
// /etc/passwd is rejected with ErrPathTraversal.
func (f *FilesystemLoader) resolve(name, dir, ext string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}

	path := filepath.Join(f.root, dir, name+ext)
	if real, err := filepath.EvalSymlinks(path); err == nil {
		path = real
	}
	// A missing file keeps the joined path and fails at read time.
	if !strings.HasPrefix(path, f.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path escapes base directory", ErrPathTraversal)
	}
	return path, nil
}

var _ AssetLoader = (*FilesystemLoader)(nil)
