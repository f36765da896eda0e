package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"salespulse/internal/config"
)

// Renderer prints HTML to PDF.
type Renderer interface {
	Render(ctx context.Context, html []byte) ([]byte, error)
}

// ChromeRenderer prints with a headless Chrome driven by chromedp. Each call
// starts its own browser.
type ChromeRenderer struct {
	cfg    config.ReportConfig
	logger *slog.Logger
}

// NewChromeRenderer creates a renderer. An empty ChromePath lets chromedp
// find the browser on the PATH.
func NewChromeRenderer(cfg config.ReportConfig, logger *slog.Logger) *ChromeRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChromeRenderer{cfg: cfg, logger: logger}
}

// Render loads html into a blank page and prints it on A4.
func (r *ChromeRenderer) Render(ctx context.Context, html []byte) ([]byte, error) {
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.DisableGPU,
	)
	if r.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.cfg.ChromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	start := time.Now()
	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return fmt.Errorf("frame tree: %w", err)
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithLandscape(r.cfg.Landscape).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}

	r.logger.DebugContext(ctx, "pdf printed",
		slog.Int("bytes", len(pdf)),
		slog.Duration("elapsed", time.Since(start)))
	return pdf, nil
}
