package interfaces

import (
	"context"

	"github.com/ternarybob/venari/internal/models"
)

// Notifier delivers new-posting notifications to subscribers.
// Delivery is best-effort: failures are logged by the implementation,
// never propagated into the scrape cycle.
type Notifier interface {
	NotifyNewPostings(ctx context.Context, subscribers []*models.Subscriber, postings []*models.Posting) error
}
