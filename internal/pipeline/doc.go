// Package pipeline implements the markdown rendering stages shared by the
// live preview and the exporters.
//
//   - Markdown normalization (line endings from browser textareas)
//   - Markdown to HTML fragment conversion via Goldmark
//   - Fragment sanitization via bluemonday
//   - Capture document assembly for the rasterizer (stylesheet, width,
//     absolute image paths)
//
// Rasterization and PDF assembly live in the root mdexport package. The
// pipeline only deals with markup, so its output is identical for the
// preview pane and for both exporters.
package pipeline
