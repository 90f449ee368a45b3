package interfaces

import "context"

// PolicyGate decides whether a source URL may be scraped.
// Implementations fail open: any error fetching or parsing the policy
// yields an allow.
type PolicyGate interface {
	IsAllowed(ctx context.Context, url string) bool
}
