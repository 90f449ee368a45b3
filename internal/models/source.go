package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Variant identifies the extraction strategy applicable to a source's markup
type Variant string

const (
	// VariantStructured extracts from stable semantic attributes (Workday-style portals)
	VariantStructured Variant = "structured"
	// VariantFreeText extracts heuristically from loosely structured markup
	VariantFreeText Variant = "freetext"
	// VariantNone means no compatible scraper exists for the source
	VariantNone Variant = "none"
)

var sourceValidator = validator.New()

// Source represents one configured job-listing endpoint.
// CursorID holds the external id of the most-recently-seen top-of-list posting
// from the prior successful run; empty until the first run completes.
type Source struct {
	ID         string    `json:"id" toml:"id" yaml:"id" validate:"required"`
	Name       string    `json:"name" toml:"name" yaml:"name" validate:"required"`
	URL        string    `json:"url" toml:"url" yaml:"url" validate:"required,url"`
	Structured bool      `json:"structured" toml:"structured" yaml:"structured"`
	CursorID   string    `json:"cursor_id,omitempty" toml:"cursor_id" yaml:"cursor_id"`
	CreatedAt  time.Time `json:"created_at,omitempty" toml:"-" yaml:"-"`
	UpdatedAt  time.Time `json:"updated_at,omitempty" toml:"-" yaml:"-"`
}

// Validate validates the source definition
func (s *Source) Validate() error {
	if err := sourceValidator.Struct(s); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			field := strings.ToLower(errs[0].Field())
			return fmt.Errorf("source %q: invalid %s", s.ID, field)
		}
		return fmt.Errorf("source %q: %w", s.ID, err)
	}
	return nil
}

// Posting represents one job posting extracted from a listing page.
// A posting is identified by its (ExternalID, SourceID) pair and is never
// mutated after creation. Location is empty when the listing exposes none.
type Posting struct {
	ExternalID string    `json:"external_id"`
	SourceID   string    `json:"source_id"`
	SourceName string    `json:"source_name"`
	Title      string    `json:"title"`
	Location   string    `json:"location,omitempty"`
	URL        string    `json:"url"`
	ScrapedAt  time.Time `json:"scraped_at"`
}

// Key returns the storage key for the posting, unique per (source, external id)
func (p *Posting) Key() string {
	return p.SourceID + "/" + p.ExternalID
}

func (p *Posting) String() string {
	return fmt.Sprintf("Posting{externalID=%s, source=%s, title=%q, location=%q}",
		p.ExternalID, p.SourceName, p.Title, p.Location)
}
