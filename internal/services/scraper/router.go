// -----------------------------------------------------------------------
// Portal Router
// Resolves which extraction variant handles a source
// -----------------------------------------------------------------------

package scraper

import (
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/models"
)

// freeTextToken marks portals whose listings carry no structured markup.
// Matched case-insensitively against both the source name and URL.
const freeTextToken = "akkodis"

// Router maps a source onto the extraction variant that can read its
// listing markup
type Router struct {
	logger arbor.ILogger
}

// NewRouter creates a portal router
func NewRouter(logger arbor.ILogger) *Router {
	return &Router{logger: logger}
}

// Resolve returns the variant for a source. The free-text token takes
// precedence over the structured flag: a recognized free-text portal is
// scraped as free text even when its definition claims structured markup.
// Sources matching neither route resolve to VariantNone and are skipped.
func (r *Router) Resolve(source *models.Source) models.Variant {
	name := strings.ToLower(source.Name)
	url := strings.ToLower(source.URL)

	if strings.Contains(name, freeTextToken) || strings.Contains(url, freeTextToken) {
		if source.Structured {
			r.logger.Warn().
				Str("source_id", source.ID).
				Str("name", source.Name).
				Msg("Source flagged structured but matches free-text portal, using free-text variant")
		}
		return models.VariantFreeText
	}

	if source.Structured {
		return models.VariantStructured
	}

	r.logger.Warn().
		Str("source_id", source.ID).
		Str("url", source.URL).
		Msg("No compatible scraper for source, skipping")
	return models.VariantNone
}
