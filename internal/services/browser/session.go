// -----------------------------------------------------------------------
// ChromeDP Browser Session
// Single Chrome instance driven sequentially by the scrape cycle
// -----------------------------------------------------------------------

package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
)

// stealthScript masks the automation markers that job portals use to
// reject headless browsers. Injected before every document load.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
window.chrome = window.chrome || { runtime: {} };
`

// Session implements interfaces.BrowserSession over a dedicated Chrome
// process. Not safe for concurrent use; the scrape cycle owns it
// exclusively for its lifetime.
type Session struct {
	config common.ScraperConfig
	logger arbor.ILogger

	browserCtx      context.Context
	browserCancel   context.CancelFunc
	allocatorCancel context.CancelFunc

	closeOnce sync.Once
}

// NewSession launches Chrome and verifies it responds before handing the
// session to the caller. The caller must Close the session on every path.
func NewSession(ctx context.Context, config common.ScraperConfig, logger arbor.ILogger) (interfaces.BrowserSession, error) {
	logger.Info().
		Bool("headless", config.Headless).
		Str("user_agent", config.UserAgent).
		Msg("Launching browser session")

	opts := buildAllocatorOptions(config)

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(ctx, opts...)

	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx,
		chromedp.WithLogf(func(s string, i ...interface{}) {
			logger.Debug().Msgf("chromedp: "+s, i...)
		}),
	)

	session := &Session{
		config:          config,
		logger:          logger,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		allocatorCancel: allocatorCancel,
	}

	// Startup probe: a browser that cannot load about:blank will not load
	// a job portal either
	testCtx, testCancel := context.WithTimeout(browserCtx, config.BrowserTestTime)
	defer testCancel()

	err := chromedp.Run(testCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
		chromedp.Navigate("about:blank"),
	)
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("browser failed startup test: %w", err)
	}

	logger.Debug().Msg("Browser session ready")
	return session, nil
}

// buildAllocatorOptions creates Chrome allocator options tuned for
// scraping job portals without tripping bot detection
func buildAllocatorOptions(config common.ScraperConfig) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.UserAgent(config.UserAgent),

		// Stealth flags
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("excludeSwitches", "enable-automation"),
		chromedp.Flag("useAutomationExtension", false),

		chromedp.Flag("disable-gpu", false),
		chromedp.Flag("start-maximized", true),
		chromedp.WindowSize(1920, 1080),
	}

	if config.Headless {
		// New headless mode is less detectable than the classic one
		opts = append(opts, chromedp.Flag("headless", "new"))
	}

	return opts
}

// Navigate loads the given URL in the session's active tab
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	navCtx, cancel := context.WithTimeout(s.browserCtx, s.config.WaitTimeout)
	defer cancel()

	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// WaitReady blocks until an element matching the selector is present in the
// DOM, or the timeout elapses
func (s *Session) WaitReady(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(s.browserCtx, timeout)
	defer cancel()

	if err := chromedp.Run(waitCtx, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait for %q: %w", selector, err)
	}
	return nil
}

// OuterHTML returns the outer HTML of the first element matching the selector
func (s *Session) OuterHTML(ctx context.Context, selector string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	htmlCtx, cancel := context.WithTimeout(s.browserCtx, s.config.WaitTimeout)
	defer cancel()

	var html string
	if err := chromedp.Run(htmlCtx, chromedp.OuterHTML(selector, &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("outer html of %q: %w", selector, err)
	}
	return html, nil
}

// Click scrolls the first element matching the selector into view and clicks it
func (s *Session) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	clickCtx, cancel := context.WithTimeout(s.browserCtx, s.config.WaitTimeout)
	defer cancel()

	err := chromedp.Run(clickCtx,
		chromedp.ScrollIntoView(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}
	return nil
}

// Evaluate runs a JavaScript expression in the page and unmarshals the result
// into out (out may be nil when the result is irrelevant)
func (s *Session) Evaluate(ctx context.Context, expression string, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	evalCtx, cancel := context.WithTimeout(s.browserCtx, s.config.WaitTimeout)
	defer cancel()

	if err := chromedp.Run(evalCtx, chromedp.Evaluate(expression, out)); err != nil {
		return fmt.Errorf("evaluate expression: %w", err)
	}
	return nil
}

// WaitUntil polls the predicate every 250ms until it reports true or the
// timeout elapses. Predicate errors count as "not yet" so transient DOM
// states during a page transition do not abort the wait.
func (s *Session) WaitUntil(ctx context.Context, pred interfaces.Predicate, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		ok, err := pred(ctx)
		if err == nil && ok {
			return true, nil
		}
		if err != nil {
			s.logger.Debug().Err(err).Msg("WaitUntil predicate not ready")
		}

		if time.Now().After(deadline) {
			return false, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close releases the Chrome process. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.browserCancel != nil {
			s.browserCancel()
		}
		if s.allocatorCancel != nil {
			s.allocatorCancel()
		}
		s.logger.Debug().Msg("Browser session closed")
	})
	return nil
}
