// Package render turns a listing URL into fully rendered page markup
// using a headless browser. TradeMe lazy-loads its photo strip, so the
// page is scrolled to the bottom and back before the DOM is
// serialized. Extraction never happens here; the output is an opaque
// HTML string for pkg/trademe.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	navigateTimeout = 60 * time.Second
	settleDelay     = 2 * time.Second

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Renderer drives a headless Chrome instance. One Renderer may render
// any number of pages; each Render call gets a fresh browser tab.
type Renderer struct {
	logger *slog.Logger
	cache  *PageCache
}

func NewRenderer(logger *slog.Logger) *Renderer {
	return &Renderer{logger: logger}
}

// WithCache attaches a PageCache so repeated renders of the same URL
// within the cache TTL skip the browser entirely.
func (r *Renderer) WithCache(cache *PageCache) *Renderer {
	r.cache = cache
	return r
}

// Render navigates to the URL, waits for the page to settle, scrolls
// to trigger lazy-loaded images and returns the final DOM
// serialization.
func (r *Renderer) Render(ctx context.Context, pageURL string) (string, error) {
	if r.cache != nil {
		if html, ok := r.cache.Get(pageURL); ok {
			r.logger.Debug("Render cache hit", "url", pageURL)
			return html, nil
		}
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
		chromedp.WindowSize(1920, 1080),
	)
	if bin := findChromeBinary(); bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, navigateTimeout)
	defer cancelTimeout()

	r.logger.Info("Rendering listing page", "url", pageURL)

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(settleDelay),
		// Scroll to the bottom and back to fire lazy image loads.
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(settleDelay),
		chromedp.Evaluate(`window.scrollTo(0, 0)`, nil),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", pageURL, err)
	}

	if r.cache != nil {
		if err := r.cache.Put(pageURL, html); err != nil {
			r.logger.Warn("Failed to cache rendered page", "url", pageURL, "error", err)
		}
	}
	return html, nil
}

// findChromeBinary locates a Chrome/Chromium binary, preferring an
// explicit CHROME_BIN override.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}
	for _, name := range []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}
