// -----------------------------------------------------------------------
// Listing Page Extractors
// Pure goquery parsers over page HTML, one per portal variant
// -----------------------------------------------------------------------

package scraper

import (
	neturl "net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/venari/internal/models"
)

// Extractor reads one rendered listing page into postings. Implementations
// are pure functions of the parsed document so they can be exercised
// against HTML fixtures without a browser.
type Extractor interface {
	// Variant identifies the portal markup this extractor understands
	Variant() models.Variant

	// ReadySelector is the element whose presence signals the listing has
	// rendered. The pagination loop waits on it before reading a page.
	ReadySelector() string

	// Items returns the postings visible on the page in document order,
	// plus the count of listing entries dropped because no external id
	// could be recovered
	Items(doc *goquery.Document, source *models.Source) ([]*models.Posting, int)

	// FirstItemMarker returns a string identifying the top listing entry,
	// used to detect that a page transition actually changed the content.
	// Empty when the page shows no entries.
	FirstItemMarker(doc *goquery.Document) string

	// NextControl returns the selector of the next-page control and whether
	// it is present and enabled on this page
	NextControl(doc *goquery.Document) (selector string, ok bool)
}

// controlDisabled reports whether a pagination control is inert: a disabled
// attribute, aria-disabled="true", or a class containing "disabled"
func controlDisabled(sel *goquery.Selection) bool {
	if _, found := sel.Attr("disabled"); found {
		return true
	}
	if aria, _ := sel.Attr("aria-disabled"); strings.EqualFold(aria, "true") {
		return true
	}
	if class, _ := sel.Attr("class"); strings.Contains(strings.ToLower(class), "disabled") {
		return true
	}
	return false
}

// resolveURL resolves href against the source's base URL. Returns href
// unchanged when either side fails to parse.
func resolveURL(baseURL, href string) string {
	base, err := neturl.Parse(baseURL)
	if err != nil {
		return href
	}
	ref, err := neturl.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// normalizeSpace collapses runs of whitespace into single spaces and trims
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
