package mdexport

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/alnah/go-mdexport/internal/fileutil"
)

// Compile-time interface check.
var _ Rasterizer = (*chromedpRasterizer)(nil)

// chromedpRasterizer implements Rasterizer with a shared chromedp browser
// and one tab per capture.
type chromedpRasterizer struct {
	timeout time.Duration

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

func newChromedpRasterizer(timeout time.Duration) *chromedpRasterizer {
	return &chromedpRasterizer{timeout: timeout}
}

func (r *chromedpRasterizer) ensureBrowser() (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browserCtx != nil {
		return r.browserCtx, nil
	}

	options := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		options = append(options, chromedp.ExecPath(bin))
	}
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		options = append(options, chromedp.NoSandbox)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), options...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser now so launch failures surface as connect errors.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.allocCancel = allocCancel
	r.browserCtx = browserCtx
	r.browserCancel = browserCancel
	return browserCtx, nil
}

// Close releases Chromium resources if they have been initialized.
func (r *chromedpRasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browserCancel != nil {
		r.browserCancel()
	}
	if r.allocCancel != nil {
		r.allocCancel()
	}
	r.browserCtx = nil
	r.browserCancel = nil
	r.allocCancel = nil
	return nil
}

func (r *chromedpRasterizer) Rasterize(ctx context.Context, document string, opts RasterOptions) (*Bitmap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browserCtx, err := r.ensureBrowser()
	if err != nil {
		return nil, err
	}

	tmpPath, cleanup, err := fileutil.WriteTempFile(document, "html")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterize, err)
	}
	defer cleanup()

	tabCtx, cancel := chromedp.NewContext(browserCtx)
	defer cancel()

	// Tie the tab to the caller's context without parenting it there, so
	// the shared browser outlives the request.
	execCtx, cancelReq := context.WithCancel(tabCtx)
	defer cancelReq()
	go func() {
		select {
		case <-ctx.Done():
			cancelReq()
		case <-execCtx.Done():
		}
	}()
	if r.timeout > 0 {
		var cancelTimeout context.CancelFunc
		execCtx, cancelTimeout = context.WithTimeout(execCtx, r.timeout)
		defer cancelTimeout()
	}

	var (
		dims struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		}
		png []byte
	)

	actions := []chromedp.Action{}
	if !opts.UseCORS {
		actions = append(actions,
			network.Enable(),
			network.SetBlockedURLs().WithURLPatterns(remoteBlockPatterns()),
		)
	}
	actions = append(actions,
		chromedp.EmulateViewport(int64(opts.WindowWidth), defaultViewportHeight, chromedp.EmulateScale(opts.Scale)),
		chromedp.Navigate("file://"+tmpPath),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(measureScript, &dims),
		chromedp.ActionFunc(func(ctx context.Context) error {
			width, height := captureSize(opts, dims.Width, dims.Height)
			if err := emulation.SetDeviceMetricsOverride(int64(width), int64(height), opts.Scale, false).Do(ctx); err != nil {
				return err
			}
			var err error
			png, err = page.CaptureScreenshot().
				WithFormat(page.CaptureScreenshotFormatPng).
				WithCaptureBeyondViewport(true).
				Do(ctx)
			return err
		}),
	)

	if err := chromedp.Run(execCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrRasterize, err)
	}
	return newBitmap(png)
}

// remoteBlockPatterns converts blockedURLPatterns ("http://*") to the
// URLPattern syntax the Network domain expects ("http://*:*/*").
func remoteBlockPatterns() []*network.BlockPattern {
	out := make([]*network.BlockPattern, 0, len(blockedURLPatterns))
	for _, p := range blockedURLPatterns {
		out = append(out, &network.BlockPattern{
			URLPattern: strings.TrimSuffix(p, "*") + "*:*/*",
			Block:      true,
		})
	}
	return out
}
