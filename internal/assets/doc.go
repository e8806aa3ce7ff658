// Package assets provides the stylesheets and HTML templates used by the
// editor page and by the PDF capture document.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in assets)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// AssetResolver is the loader used by the converter and the server. It tries
// the custom FilesystemLoader first and falls back to EmbeddedLoader when the
// asset is not found, so a single stylesheet can be overridden while the
// editor page keeps its built-in template.
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css           # preview styles (e.g., preview.css)
//	└── templates/
//	    └── {name}.html          # editor.html, capture.html
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
