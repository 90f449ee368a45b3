// -----------------------------------------------------------------------
// Structured Extractor
// Workday-style listings annotated with data-automation-id attributes
// -----------------------------------------------------------------------

package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/venari/internal/models"
)

const (
	structuredContainerSelector = "[data-automation-id='jobResults']"
	structuredItemSelector      = "[data-automation-id='jobResults'] ul > li"
	structuredTitleSelector     = "h3 a[data-automation-id='jobTitle']"
	structuredIDSelector        = "ul[data-automation-id='subtitle'] li"
	structuredLocationSelector  = "[data-automation-id='locations'] dl dd"
	structuredNextSelector      = "[data-uxi-widget-type='stepToNextButton']"
)

// StructuredExtractor reads Workday-style listing markup. Every field has a
// dedicated attribute-tagged element, so extraction is selector lookups with
// a single URL-derived fallback for the requisition id.
type StructuredExtractor struct{}

// NewStructuredExtractor creates the structured-markup extractor
func NewStructuredExtractor() *StructuredExtractor {
	return &StructuredExtractor{}
}

func (e *StructuredExtractor) Variant() models.Variant {
	return models.VariantStructured
}

func (e *StructuredExtractor) ReadySelector() string {
	return structuredContainerSelector
}

// Items extracts postings from the listing in document order. Entries
// without a recoverable requisition id are dropped and counted.
func (e *StructuredExtractor) Items(doc *goquery.Document, source *models.Source) ([]*models.Posting, int) {
	var postings []*models.Posting
	dropped := 0

	doc.Find(structuredItemSelector).Each(func(_ int, item *goquery.Selection) {
		// The item selector also matches nested lis (e.g. subtitle entries);
		// only nodes carrying a title link are listing entries
		link := item.Find(structuredTitleSelector).First()
		if link.Length() == 0 {
			return
		}

		title := normalizeSpace(link.Text())
		href, _ := link.Attr("href")
		jobURL := resolveURL(source.URL, href)

		externalID := normalizeSpace(item.Find(structuredIDSelector).First().Text())
		if externalID == "" {
			externalID = requisitionIDFromURL(href)
		}
		if externalID == "" || title == "" {
			dropped++
			return
		}

		location := normalizeSpace(item.Find(structuredLocationSelector).First().Text())

		postings = append(postings, &models.Posting{
			ExternalID: externalID,
			SourceID:   source.ID,
			SourceName: source.Name,
			Title:      title,
			Location:   location,
			URL:        jobURL,
		})
	})

	return postings, dropped
}

func (e *StructuredExtractor) FirstItemMarker(doc *goquery.Document) string {
	link := doc.Find(structuredItemSelector).First().Find(structuredTitleSelector).First()
	if href, ok := link.Attr("href"); ok && href != "" {
		return href
	}
	return normalizeSpace(link.Text())
}

func (e *StructuredExtractor) NextControl(doc *goquery.Document) (string, bool) {
	next := doc.Find(structuredNextSelector).First()
	if next.Length() == 0 || controlDisabled(next) {
		return structuredNextSelector, false
	}
	return structuredNextSelector, true
}

// requisitionIDFromURL recovers the requisition id from a Workday job URL,
// where it trails the last underscore of the path (e.g. ..._JR-0012345).
// Non-digits are stripped; empty when the URL carries no digits there.
func requisitionIDFromURL(href string) string {
	idx := strings.LastIndex(href, "_")
	if idx < 0 || idx == len(href)-1 {
		return ""
	}

	tail := href[idx+1:]
	var digits strings.Builder
	for _, r := range tail {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return digits.String()
}
