package scraper

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// renderPageHTML loads a page in a headless browser, waits for the body to
// settle, and returns the final HTML.
func renderPageHTML(urlStr string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(browserUserAgent),
	)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	if err := chromedp.Run(browserCtx, chromedp.Navigate(urlStr)); err != nil {
		return "", err
	}

	// Soft-fail readiness wait; slow pages still get their HTML read.
	readyCtx, readyCancel := context.WithTimeout(browserCtx, 10*time.Second)
	defer readyCancel()
	_ = chromedp.Run(readyCtx, chromedp.WaitReady("body", chromedp.ByQuery))

	var html string
	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}
