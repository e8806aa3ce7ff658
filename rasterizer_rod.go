package mdexport

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-mdexport/internal/fileutil"
	"github.com/alnah/go-mdexport/internal/process"
)

// Compile-time interface check.
var _ Rasterizer = (*rodRasterizer)(nil)

// rodRasterizer implements Rasterizer using go-rod.
// Rod downloads Chromium on first run if no browser is found.
type rodRasterizer struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
}

func newRodRasterizer(timeout time.Duration) *rodRasterizer {
	return &rodRasterizer{timeout: timeout}
}

// ensureBrowser lazily launches and connects to the browser.
func (r *rodRasterizer) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.browser = browser
	r.launcher = l
	return browser, nil
}

// Close releases the browser and kills its process tree.
func (r *rodRasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.launcher != nil {
		if pid := r.launcher.PID(); pid > 0 {
			process.KillProcessGroup(pid)
		}
		r.launcher.Kill()
		r.launcher = nil
	}
	return err
}

// Rasterize loads the document from a temp file and screenshots its full
// scrollable area at opts.Scale.
func (r *rodRasterizer) Rasterize(ctx context.Context, document string, opts RasterOptions) (*Bitmap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browser, err := r.ensureBrowser()
	if err != nil {
		return nil, err
	}

	tmpPath, cleanup, err := fileutil.WriteTempFile(document, "html")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterize, err)
	}
	defer cleanup()

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	p := page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	if !opts.UseCORS {
		if err := (proto.NetworkEnable{}).Call(p); err != nil {
			return nil, fmt.Errorf("%w: enabling network domain: %v", ErrRasterize, err)
		}
		if err := (proto.NetworkSetBlockedURLs{Urls: blockedURLPatterns}).Call(p); err != nil {
			return nil, fmt.Errorf("%w: blocking remote URLs: %v", ErrRasterize, err)
		}
	}

	if err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.WindowWidth,
		Height:            defaultViewportHeight,
		DeviceScaleFactor: opts.Scale,
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterize, err)
	}

	if err := p.Navigate("file://" + tmpPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	res, err := p.Eval(`() => ` + measureScript)
	if err != nil {
		return nil, fmt.Errorf("%w: measuring document: %v", ErrRasterize, err)
	}
	width, height := captureSize(opts, res.Value.Get("width").Int(), res.Value.Get("height").Int())

	if err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: opts.Scale,
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterize, err)
	}

	shot, err := proto.PageCaptureScreenshot{
		Format:                proto.PageCaptureScreenshotFormatPng,
		CaptureBeyondViewport: true,
	}.Call(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterize, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return newBitmap(shot.Data)
}
