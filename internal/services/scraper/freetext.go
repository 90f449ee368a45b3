// -----------------------------------------------------------------------
// Free-Text Extractor
// Listings without structured markup, read with heuristics
// -----------------------------------------------------------------------

package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/venari/internal/models"
)

const (
	freeTextContainerSelector = "ul[class*='JobSearchResults_filter-results-container']"
	freeTextLinkSelector      = "a[href*='/job']"
	freeTextNextSelector      = "span[class*='pagination_pagination-right-arrow']"
	freeTextNextFallback      = "span[class*='pagination-right-arrow']"
)

// titleCutMarkers are tried in priority order; the title is everything
// before the first marker that leaves a non-blank prefix. "work_outline"
// and "calendar_today" are Material icon ligatures that leak into the
// card text.
var titleCutMarkers = []string{"reference number", "work_outline", "\n"}

// refIDSelectors are scanned in order for an element whose text carries a
// plausible requisition number
var refIDSelectors = []string{
	"[class*='reference']",
	"[class*='ref']",
	"[class*='req']",
	"[class*='job-id']",
	"[data-automation-id*='req']",
	"[data-automation-id*='reference']",
}

// locationSelectors are scanned in order for an element naming the job location
var locationSelectors = []string{
	"[class*='location']",
	"[class*='Location']",
	"[data-automation-id*='location']",
	"[class*='address']",
}

var (
	refIDPattern      = regexp.MustCompile(`\d{5,}`)
	refPhrasePattern  = regexp.MustCompile(`(?i)\breference\s+number\D{0,10}?(\d{5,})`)
	urlLongIDPattern  = regexp.MustCompile(`/(\d{8,})\b`)
	urlShortIDPattern = regexp.MustCompile(`/(\d{5,})\b`)

	// place ... calendar_today delimits the location in the card's icon text
	placeLocationPattern = regexp.MustCompile(`(?i)\bplace\s+(.+?)(?:\s+calendar_today\b|$)`)
	cityRegionPattern    = regexp.MustCompile(`\b([A-Za-z][A-Za-z .'-]+,\s*[A-Za-z][A-Za-z .'-]+)\b`)
)

// FreeTextExtractor reads listing cards that expose no stable field markup.
// Fields are recovered by class-fragment selectors and text heuristics; an
// entry that yields no requisition id is dropped rather than guessed at.
type FreeTextExtractor struct{}

// NewFreeTextExtractor creates the free-text extractor
func NewFreeTextExtractor() *FreeTextExtractor {
	return &FreeTextExtractor{}
}

func (e *FreeTextExtractor) Variant() models.Variant {
	return models.VariantFreeText
}

func (e *FreeTextExtractor) ReadySelector() string {
	return freeTextContainerSelector
}

// Items extracts postings from the listing cards in document order
func (e *FreeTextExtractor) Items(doc *goquery.Document, source *models.Source) ([]*models.Posting, int) {
	var postings []*models.Posting
	dropped := 0

	doc.Find(freeTextContainerSelector).First().ChildrenFiltered("li").Each(func(_ int, item *goquery.Selection) {
		// Cards without a job link are fillers (ads, category headers)
		link := item.Find(freeTextLinkSelector).First()
		if link.Length() == 0 {
			return
		}

		href, _ := link.Attr("href")
		jobURL := resolveURL(source.URL, href)

		title := extractTitle(link, item)
		externalID := extractReferenceID(item, href)
		if externalID == "" || title == "" {
			dropped++
			return
		}

		postings = append(postings, &models.Posting{
			ExternalID: externalID,
			SourceID:   source.ID,
			SourceName: source.Name,
			Title:      title,
			Location:   extractLocation(item),
			URL:        jobURL,
		})
	})

	return postings, dropped
}

func (e *FreeTextExtractor) FirstItemMarker(doc *goquery.Document) string {
	link := doc.Find(freeTextContainerSelector).First().
		ChildrenFiltered("li").First().
		Find(freeTextLinkSelector).First()
	if href, ok := link.Attr("href"); ok && href != "" {
		return href
	}
	return normalizeSpace(link.Text())
}

func (e *FreeTextExtractor) NextControl(doc *goquery.Document) (string, bool) {
	next := doc.Find(freeTextNextSelector).First()
	selector := freeTextNextSelector
	if next.Length() == 0 {
		next = doc.Find(freeTextNextFallback).First()
		selector = freeTextNextFallback
	}
	if next.Length() == 0 || controlDisabled(next) {
		return selector, false
	}
	return selector, true
}

// extractTitle takes the link text (or the whole card when the link is
// bare) and truncates it at the highest-priority cut marker that leaves a
// non-blank title. When no marker applies the whole text is the title.
func extractTitle(link, item *goquery.Selection) string {
	raw := strings.TrimSpace(link.Text())
	if raw == "" {
		raw = strings.TrimSpace(item.Text())
	}

	// All markers are ASCII, so an ASCII fold keeps every index valid in
	// raw regardless of what the title itself contains
	lower := asciiLower(raw)
	for _, marker := range titleCutMarkers {
		idx := strings.Index(lower, marker)
		if idx <= 0 {
			continue
		}
		if title := normalizeSpace(raw[:idx]); title != "" {
			return title
		}
	}

	return normalizeSpace(raw)
}

// asciiLower lowers only ASCII letters, preserving byte length
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// extractReferenceID scans the card for an element carrying a requisition
// number, then a spelled-out "Reference Number NNNNN" phrase in the card
// text, then digit runs in the job URL path (longest first)
func extractReferenceID(item *goquery.Selection, href string) string {
	for _, selector := range refIDSelectors {
		found := ""
		item.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if match := refIDPattern.FindString(sel.Text()); match != "" {
				found = match
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}

	if m := refPhrasePattern.FindStringSubmatch(normalizeSpace(item.Text())); m != nil {
		return m[1]
	}

	if m := urlLongIDPattern.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	if m := urlShortIDPattern.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	return ""
}

// extractLocation scans the card for a location element, then falls back to
// text heuristics over the whole card
func extractLocation(item *goquery.Selection) string {
	for _, selector := range locationSelectors {
		if text := normalizeSpace(item.Find(selector).First().Text()); text != "" {
			return text
		}
	}

	text := normalizeSpace(item.Text())
	if m := placeLocationPattern.FindStringSubmatch(text); m != nil {
		return normalizeSpace(m[1])
	}
	if m := cityRegionPattern.FindStringSubmatch(text); m != nil {
		return normalizeSpace(m[1])
	}
	return ""
}
