package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"github.com/Navjot67/tolls-app/internal/extract"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ChromeScraper drives a headless Chrome session against the NY and NJ
// public lookup pages. The target sites change markup without notice,
// so every form interaction walks a list of candidate selectors.
type ChromeScraper struct {
	Headless bool
	Logger   *logrus.Logger
}

func NewChromeScraper(headless bool, logger *logrus.Logger) *ChromeScraper {
	return &ChromeScraper{Headless: headless, Logger: logger}
}

// newSession returns a browser tab context derived from ctx. The caller
// must invoke the returned cancel funcs in order.
func (s *ChromeScraper) newSession(ctx context.Context) (context.Context, []context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
		chromedp.WindowSize(1366, 900),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	return tabCtx, []context.CancelFunc{cancelTab, cancelAlloc}
}

// pageScript pulls the visible text and the flattened table rows out of
// the rendered page in one round trip.
const pageScript = `(() => {
	const rows = [];
	for (const tr of document.querySelectorAll('table tr')) {
		const t = tr.innerText.trim();
		if (t) rows.push(t.replace(/\s*\n\s*/g, ' '));
	}
	return {text: document.body ? document.body.innerText : '', rows: rows};
})()`

func collectPage(ctx context.Context) (extract.Page, error) {
	var page extract.Page
	err := chromedp.Run(ctx, chromedp.Evaluate(pageScript, &page))
	return page, err
}

// fillFirst types value into the first candidate selector that becomes
// visible.
func (s *ChromeScraper) fillFirst(ctx context.Context, selectors []string, value string) error {
	for _, sel := range selectors {
		c, cancel := context.WithTimeout(ctx, 4*time.Second)
		err := chromedp.Run(c,
			chromedp.WaitVisible(sel, chromedp.ByQuery),
			chromedp.Click(sel, chromedp.ByQuery),
			chromedp.SendKeys(sel, value, chromedp.ByQuery),
		)
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("no matching input among %d selectors", len(selectors))
}

// clickFirst clicks the first candidate selector that becomes visible.
func (s *ChromeScraper) clickFirst(ctx context.Context, selectors []string) error {
	for _, sel := range selectors {
		c, cancel := context.WithTimeout(ctx, 4*time.Second)
		err := chromedp.Run(c,
			chromedp.WaitVisible(sel, chromedp.ByQuery),
			chromedp.Click(sel, chromedp.ByQuery),
		)
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("no clickable element among %d selectors", len(selectors))
}
