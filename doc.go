// Package mdexport renders Markdown to a live HTML preview and exports it
// as a Word-compatible document or a paginated raster PDF.
//
// # Quick Start
//
// Create a converter, convert markdown, and close when done:
//
//	conv, err := mdexport.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	dl, err := conv.Convert(ctx, mdexport.Input{
//	    Markdown: "# Hello\n\nWorld",
//	    Format:   mdexport.FormatPDF,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile(dl.Filename, dl.Data, 0644)
//
// # Export Pipeline
//
//  1. Markdown normalization and conversion via Goldmark (GFM, footnotes,
//     chroma highlighting), sanitized with bluemonday
//  2. DOC: the fragment is wrapped in a Word HTML envelope
//  3. PDF: the fragment is laid out at the preview width in headless Chrome
//     (go-rod or chromedp), screenshotted at scale 2, and the image is
//     sliced over fpdf pages
//
// # Editor Sessions
//
// Session holds the state of one editor: the document text, the mounted
// preview and the export in-progress flag. Exports require a mounted
// preview and reject re-entrant calls:
//
//	s := mdexport.NewSession(conv)
//	_ = s.Mount(ctx, 800)
//	dl, err := s.ExportPDF(ctx)
//	switch {
//	case errors.Is(err, mdexport.ErrExportInProgress):
//	    // a previous export is still running
//	case errors.Is(err, mdexport.ErrPDFExport):
//	    // rasterization or assembly failed; details were logged
//	}
//
// # Configuration
//
//	conv, err := mdexport.NewConverter(
//	    mdexport.WithPageFormat(mdexport.PageFormat{Size: "letter", Orientation: "portrait"}),
//	    mdexport.WithPlacement(mdexport.PlacementFitWidth),
//	    mdexport.WithRasterizerBackend(mdexport.RasterizerChromedp),
//	    mdexport.WithUseCORS(false),
//	)
//
// # Parallel Exports
//
// ConverterPool holds one browser per converter:
//
//	pool := mdexport.NewConverterPool(mdexport.ResolvePoolSize(0))
//	defer pool.Close()
//
//	conv, err := pool.Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	defer pool.Release(conv)
//
// # Browser Requirements
//
// PDF export needs Chrome or Chromium. go-rod downloads one on first use
// if none is found. Set ROD_BROWSER_BIN to use a pre-installed browser;
// this also disables the sandbox for containers.
package mdexport
