package interfaces

import (
	"context"
	"time"
)

// Predicate is polled by WaitUntil until it reports true or the timeout elapses
type Predicate func(ctx context.Context) (bool, error)

// BrowserSession is the browser capability consumed by the scraper core.
// A session is a single scarce, stateful resource: it is acquired once per
// scrape cycle, driven sequentially, and released on every exit path.
type BrowserSession interface {
	// Navigate loads the given URL in the session's active tab
	Navigate(ctx context.Context, url string) error

	// WaitReady blocks until an element matching the selector is present
	// in the DOM, or the timeout elapses
	WaitReady(ctx context.Context, selector string, timeout time.Duration) error

	// OuterHTML returns the outer HTML of the first element matching the
	// selector, or an error when no such element exists
	OuterHTML(ctx context.Context, selector string) (string, error)

	// Click scrolls the first element matching the selector into view and
	// clicks it
	Click(ctx context.Context, selector string) error

	// Evaluate runs a JavaScript expression in the page and unmarshals the
	// result into out (out may be nil when the result is irrelevant)
	Evaluate(ctx context.Context, expression string, out interface{}) error

	// WaitUntil polls the predicate until it reports true or the timeout
	// elapses; returns false when the timeout was hit
	WaitUntil(ctx context.Context, pred Predicate, timeout time.Duration) (bool, error)

	// Close releases the underlying browser
	Close() error
}
