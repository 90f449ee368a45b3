package scraper

import (
	"testing"

	"github.com/ternarybob/venari/internal/models"
)

const freeTextListing = `<html><body>
<ul class="JobSearchResults_filter-results-container__x1z">
  <li>
    <a href="/job/83920112">Senior DevOps Engineer
Reference Number 83920112
place Brisbane, Queensland calendar_today Posted today</a>
    <span class="job-reference">Ref: 83920112</span>
    <span class="job-location">Brisbane, Queensland</span>
  </li>
  <li>
    <a href="/job/71004458">Cloud Architect work_outline Full time
place Perth, Western Australia calendar_today Yesterday</a>
  </li>
  <li>
    <a href="/job/view?id=short">Mystery Role</a>
  </li>
  <li>
    <span>Sponsored content, no link to a posting</span>
  </li>
</ul>
<span class="pagination_pagination-right-arrow__a7b">›</span>
</body></html>`

func TestFreeTextExtractor_Items(t *testing.T) {
	extractor := NewFreeTextExtractor()
	doc := parseDoc(t, freeTextListing)

	source := &models.Source{
		ID:   "akkodis-au",
		Name: "Akkodis Australia",
		URL:  "https://www.akkodis.com/en-au/jobs",
	}

	postings, dropped := extractor.Items(doc, source)

	if len(postings) != 2 {
		t.Fatalf("Expected 2 postings, got %d", len(postings))
	}
	// The card whose URL and markup carry no requisition number is dropped
	if dropped != 1 {
		t.Errorf("Expected 1 dropped entry, got %d", dropped)
	}

	first := postings[0]
	if first.ExternalID != "83920112" {
		t.Errorf("Expected id 83920112, got %q", first.ExternalID)
	}
	// Title is truncated at the reference-number marker
	if first.Title != "Senior DevOps Engineer" {
		t.Errorf("Expected truncated title, got %q", first.Title)
	}
	if first.Location != "Brisbane, Queensland" {
		t.Errorf("Expected location from element, got %q", first.Location)
	}
	if first.URL != "https://www.akkodis.com/job/83920112" {
		t.Errorf("Unexpected resolved URL: %q", first.URL)
	}

	second := postings[1]
	// No reference element: the id comes from the URL digits
	if second.ExternalID != "71004458" {
		t.Errorf("Expected URL-derived id, got %q", second.ExternalID)
	}
	// Title is truncated at the work_outline icon ligature
	if second.Title != "Cloud Architect" {
		t.Errorf("Expected icon-truncated title, got %q", second.Title)
	}
	// No location element: the place ... calendar_today heuristic applies
	if second.Location != "Perth, Western Australia" {
		t.Errorf("Expected heuristic location, got %q", second.Location)
	}
}

func TestFreeTextExtractor_TitleNewlineTruncation(t *testing.T) {
	html := `<html><body>
<ul class="JobSearchResults_filter-results-container__x1z">
  <li><a href="/job/55512345">Test Automation Lead
Some trailing card text</a></li>
</ul>
</body></html>`

	extractor := NewFreeTextExtractor()
	postings, _ := extractor.Items(parseDoc(t, html), &models.Source{ID: "s", Name: "S", URL: "https://example.com"})

	if len(postings) != 1 {
		t.Fatalf("Expected 1 posting, got %d", len(postings))
	}
	if postings[0].Title != "Test Automation Lead" {
		t.Errorf("Expected title cut at newline, got %q", postings[0].Title)
	}
}

func TestFreeTextExtractor_NonASCIITitles(t *testing.T) {
	// Cut markers must land on rune boundaries of the original text even
	// when the title carries multi-byte characters before the marker
	html := `<html><body>
<ul class="JobSearchResults_filter-results-container__x1z">
  <li><a href="/job/40112233">İstanbul Delivery Lead
Reference Number 40112233</a></li>
  <li><a href="/job/40112234">Ingénieur Systèmes ȺȺ work_outline Full time</a></li>
</ul>
</body></html>`

	extractor := NewFreeTextExtractor()
	postings, dropped := extractor.Items(parseDoc(t, html), &models.Source{ID: "s", Name: "S", URL: "https://example.com"})

	if dropped != 0 {
		t.Errorf("Expected no dropped entries, got %d", dropped)
	}
	if len(postings) != 2 {
		t.Fatalf("Expected 2 postings, got %d", len(postings))
	}
	if postings[0].Title != "İstanbul Delivery Lead" {
		t.Errorf("Expected intact multi-byte title, got %q", postings[0].Title)
	}
	if postings[1].Title != "Ingénieur Systèmes ȺȺ" {
		t.Errorf("Expected intact multi-byte title, got %q", postings[1].Title)
	}
}

func TestFreeTextExtractor_TitleMarkerPriority(t *testing.T) {
	// The reference-number marker outranks the icon ligature even when the
	// ligature appears earlier in the card text
	html := `<html><body>
<ul class="JobSearchResults_filter-results-container__x1z">
  <li><a href="/job/66012345">Plant Manager work_outline Full time Reference Number 66012345</a></li>
</ul>
</body></html>`

	extractor := NewFreeTextExtractor()
	postings, _ := extractor.Items(parseDoc(t, html), &models.Source{ID: "s", Name: "S", URL: "https://example.com"})

	if len(postings) != 1 {
		t.Fatalf("Expected 1 posting, got %d", len(postings))
	}
	if postings[0].Title != "Plant Manager work_outline Full time" {
		t.Errorf("Expected cut at the reference-number marker only, got %q", postings[0].Title)
	}
}

func TestFreeTextExtractor_ReferenceNumberInCardText(t *testing.T) {
	// Neither a reference element nor URL digits; everything sits in the
	// card text the way the Akkodis listing renders it.
	html := `<html><body>
<ul class="JobSearchResults_filter-results-container__x1z">
  <li><a href="/job/detail">Senior Engineer
Reference Number 55512345
place Paris, France calendar_today</a></li>
</ul>
</body></html>`

	extractor := NewFreeTextExtractor()
	postings, dropped := extractor.Items(parseDoc(t, html), &models.Source{ID: "s", Name: "S", URL: "https://example.com"})

	if dropped != 0 {
		t.Errorf("Expected no dropped entries, got %d", dropped)
	}
	if len(postings) != 1 {
		t.Fatalf("Expected 1 posting, got %d", len(postings))
	}
	if postings[0].Title != "Senior Engineer" {
		t.Errorf("Expected title cut before the reference number, got %q", postings[0].Title)
	}
	if postings[0].ExternalID != "55512345" {
		t.Errorf("Expected id from the card text, got %q", postings[0].ExternalID)
	}
	if postings[0].Location != "Paris, France" {
		t.Errorf("Expected heuristic location, got %q", postings[0].Location)
	}
}

func TestFreeTextExtractor_FirstItemMarker(t *testing.T) {
	extractor := NewFreeTextExtractor()

	doc := parseDoc(t, freeTextListing)
	if marker := extractor.FirstItemMarker(doc); marker != "/job/83920112" {
		t.Errorf("Unexpected marker: %q", marker)
	}

	empty := parseDoc(t, `<html><body><ul class="JobSearchResults_filter-results-container__x1z"></ul></body></html>`)
	if got := extractor.FirstItemMarker(empty); got != "" {
		t.Errorf("Expected empty marker, got %q", got)
	}
}

func TestFreeTextExtractor_NextControl(t *testing.T) {
	extractor := NewFreeTextExtractor()

	t.Run("primary arrow", func(t *testing.T) {
		doc := parseDoc(t, `<html><body><span class="pagination_pagination-right-arrow__a7b"></span></body></html>`)
		selector, ok := extractor.NextControl(doc)
		if !ok {
			t.Fatal("Expected next control to be available")
		}
		if selector != freeTextNextSelector {
			t.Errorf("Expected primary selector, got %q", selector)
		}
	})

	t.Run("fallback arrow", func(t *testing.T) {
		doc := parseDoc(t, `<html><body><span class="nav-pagination-right-arrow"></span></body></html>`)
		selector, ok := extractor.NextControl(doc)
		if !ok {
			t.Fatal("Expected fallback control to be available")
		}
		if selector != freeTextNextFallback {
			t.Errorf("Expected fallback selector, got %q", selector)
		}
	})

	t.Run("disabled arrow", func(t *testing.T) {
		doc := parseDoc(t, `<html><body><span class="pagination_pagination-right-arrow__a7b disabled"></span></body></html>`)
		if _, ok := extractor.NextControl(doc); ok {
			t.Error("Expected disabled control to be unavailable")
		}
	})

	t.Run("no arrow", func(t *testing.T) {
		doc := parseDoc(t, `<html><body><div></div></body></html>`)
		if _, ok := extractor.NextControl(doc); ok {
			t.Error("Expected missing control to be unavailable")
		}
	})
}

func TestExtractReferenceID_URLFallbackPrefersLongRuns(t *testing.T) {
	html := `<html><body>
<ul class="JobSearchResults_filter-results-container__x1z">
  <li><a href="/en-au/12345/job/90817263">Role A</a></li>
</ul>
</body></html>`

	extractor := NewFreeTextExtractor()
	postings, _ := extractor.Items(parseDoc(t, html), &models.Source{ID: "s", Name: "S", URL: "https://example.com"})

	if len(postings) != 1 {
		t.Fatalf("Expected 1 posting, got %d", len(postings))
	}
	if postings[0].ExternalID != "90817263" {
		t.Errorf("Expected the 8+ digit run to win, got %q", postings[0].ExternalID)
	}
}
