// -----------------------------------------------------------------------
// Pagination Controller
// Shared page loop with cursor early-stop, used by both extractors
// -----------------------------------------------------------------------

package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

var (
	// ErrNavigation wraps failures to load the source URL
	ErrNavigation = errors.New("navigation failed")

	// ErrListingNotFound wraps a listing that never rendered within the
	// wait timeout
	ErrListingNotFound = errors.New("listing content never appeared")
)

// StopReason records why the page loop ended
type StopReason string

const (
	StopCursorMatch  StopReason = "cursor_match"
	StopNoNext       StopReason = "no_next_control"
	StopPageLimit    StopReason = "page_limit"
	StopAdvanceStuck StopReason = "advance_stuck"
	StopEmptyPage    StopReason = "empty_page"
)

// PageResult is the outcome of walking one source's listing
type PageResult struct {
	// Postings holds the new postings in listing order, newest first
	Postings []*models.Posting

	// NewCursor is the external id of the top entry on page one, whether
	// or not that entry was new. Empty when page one showed no entries.
	NewCursor string

	Pages      int
	Dropped    int
	StopReason StopReason
}

// Paginator walks a source's listing pages through a browser session,
// collecting postings until it reaches the stored cursor, runs out of
// pages, or hits the page ceiling
type Paginator struct {
	session  interfaces.BrowserSession
	postings interfaces.PostingStorage
	config   common.ScraperConfig
	logger   arbor.ILogger
}

// NewPaginator creates a pagination controller bound to a browser session
func NewPaginator(session interfaces.BrowserSession, postings interfaces.PostingStorage, config common.ScraperConfig, logger arbor.ILogger) *Paginator {
	return &Paginator{
		session:  session,
		postings: postings,
		config:   config,
		logger:   logger,
	}
}

// Scrape walks the source's listing with the given extractor. Entries are
// examined strictly in listing order; examination stops at the first entry
// matching the stored cursor, so nothing at or below it is touched. On
// error the postings collected so far are returned alongside it.
func (p *Paginator) Scrape(ctx context.Context, source *models.Source, extractor Extractor) (*PageResult, error) {
	result := &PageResult{}

	if err := p.session.Navigate(ctx, source.URL); err != nil {
		return result, fmt.Errorf("%w: %v", ErrNavigation, err)
	}

	// Let client-side rendering settle before probing the DOM
	if err := Delay(ctx, p.config.SettleDelayMin, p.config.SettleDelayMax); err != nil {
		return result, err
	}

	if err := p.session.WaitReady(ctx, extractor.ReadySelector(), p.config.WaitTimeout); err != nil {
		return result, fmt.Errorf("%w: %v", ErrListingNotFound, err)
	}

	seen := make(map[string]bool)

	for page := 1; page <= p.config.MaxPages; page++ {
		result.Pages = page

		doc, err := p.readDocument(ctx)
		if err != nil {
			return result, err
		}

		items, dropped := extractor.Items(doc, source)
		result.Dropped += dropped

		p.logger.Debug().
			Str("source_id", source.ID).
			Int("page", page).
			Int("items", len(items)).
			Int("dropped", dropped).
			Msg("Extracted listing page")

		if page == 1 && len(items) > 0 {
			result.NewCursor = items[0].ExternalID
		}

		if len(items) == 0 {
			result.StopReason = StopEmptyPage
			return result, nil
		}

		hitCursor, err := p.collect(ctx, source, items, seen, result)
		if err != nil {
			return result, err
		}
		if hitCursor {
			result.StopReason = StopCursorMatch
			return result, nil
		}

		nextSelector, hasNext := extractor.NextControl(doc)
		if !hasNext {
			result.StopReason = StopNoNext
			return result, nil
		}
		if page == p.config.MaxPages {
			result.StopReason = StopPageLimit
			return result, nil
		}

		if err := Delay(ctx, p.config.PageDelayMin, p.config.PageDelayMax); err != nil {
			return result, err
		}

		if !p.advance(ctx, source, extractor, doc, nextSelector) {
			result.StopReason = StopAdvanceStuck
			return result, nil
		}
	}

	result.StopReason = StopPageLimit
	return result, nil
}

// collect appends the new entries from one page to the result, in order.
// Returns true when the stored cursor was reached; entries at and after the
// match are never examined.
func (p *Paginator) collect(ctx context.Context, source *models.Source, items []*models.Posting, seen map[string]bool, result *PageResult) (bool, error) {
	for _, item := range items {
		if source.CursorID != "" && item.ExternalID == source.CursorID {
			p.logger.Debug().
				Str("source_id", source.ID).
				Str("cursor", source.CursorID).
				Msg("Reached stored cursor, stopping")
			return true, nil
		}

		if seen[item.ExternalID] {
			continue
		}
		seen[item.ExternalID] = true

		exists, err := p.postings.Exists(ctx, item.ExternalID, source.ID)
		if err != nil {
			return false, fmt.Errorf("dedup check for %s: %w", item.ExternalID, err)
		}
		if exists {
			continue
		}

		result.Postings = append(result.Postings, item)
	}
	return false, nil
}

// advance clicks the next-page control and waits for the top listing entry
// to change. A failed click or an unchanged listing is treated as the
// natural end of pagination, not an error.
func (p *Paginator) advance(ctx context.Context, source *models.Source, extractor Extractor, doc *goquery.Document, nextSelector string) bool {
	marker := extractor.FirstItemMarker(doc)

	if err := p.session.Click(ctx, nextSelector); err != nil {
		p.logger.Warn().
			Err(err).
			Str("source_id", source.ID).
			Msg("Next-page control did not accept the click, ending pagination")
		return false
	}

	changed, err := p.session.WaitUntil(ctx, func(ctx context.Context) (bool, error) {
		current, err := p.readDocument(ctx)
		if err != nil {
			return false, err
		}
		next := extractor.FirstItemMarker(current)
		return next != "" && next != marker, nil
	}, p.config.WaitTimeout)

	if err != nil {
		p.logger.Warn().Err(err).Str("source_id", source.ID).Msg("Page transition wait aborted")
		return false
	}
	if !changed {
		p.logger.Warn().
			Str("source_id", source.ID).
			Str("timeout", p.config.WaitTimeout.String()).
			Msg("Listing did not change after next-page click, ending pagination")
		return false
	}
	return true
}

// readDocument snapshots the rendered page into a goquery document
func (p *Paginator) readDocument(ctx context.Context) (*goquery.Document, error) {
	html, err := p.session.OuterHTML(ctx, "html")
	if err != nil {
		return nil, fmt.Errorf("read page html: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}
	return doc, nil
}
