package mdexport

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

// fakeRasterizer returns a blank PNG sized WindowWidth*Scale by
// height*Scale, where height is fixed per fake.
type fakeRasterizer struct {
	mu       sync.Mutex
	height   int // CSS px
	err      error
	calls    int
	lastDoc  string
	lastOpts RasterOptions
	closed   bool
}

func (f *fakeRasterizer) Rasterize(ctx context.Context, document string, opts RasterOptions) (*Bitmap, error) {
	f.mu.Lock()
	f.calls++
	f.lastDoc = document
	f.lastOpts = opts
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	h := f.height
	if h == 0 {
		h = 100
	}
	w := int(float64(opts.WindowWidth) * opts.Scale)
	return newBitmap(encodePNG(w, int(float64(h)*opts.Scale)))
}

func (f *fakeRasterizer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// fakeAssembler records image placements on a fixed page size.
type fakeAssembler struct {
	width, height float64
	pages         int
	placements    []placement
	addErr        error
}

type placement struct {
	page       int
	x, y, w, h float64
}

func newFakeAssembler(w, h float64) *fakeAssembler {
	return &fakeAssembler{width: w, height: h, pages: 1}
}

func (a *fakeAssembler) PageSize() (float64, float64) { return a.width, a.height }

func (a *fakeAssembler) AddImage(name string, png []byte, x, y, w, h float64) error {
	if a.addErr != nil {
		return a.addErr
	}
	a.placements = append(a.placements, placement{page: a.pages, x: x, y: y, w: w, h: h})
	return nil
}

func (a *fakeAssembler) AddPage()       { a.pages++ }
func (a *fakeAssembler) PageCount() int { return a.pages }

func (a *fakeAssembler) Output() ([]byte, error) {
	return []byte("%PDF-fake"), nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func encodePNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.Black)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// newTestConverter builds a converter backed by a fake rasterizer.
func newTestConverter(t *testing.T, r Rasterizer, opts ...Option) *Converter {
	t.Helper()

	opts = append([]Option{WithRasterizer(r)}, opts...)
	conv, err := NewConverter(opts...)
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}
	t.Cleanup(func() { _ = conv.Close() })
	return conv
}
