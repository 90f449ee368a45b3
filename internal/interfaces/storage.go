package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/venari/internal/models"
)

// ErrSourceNotFound is returned when a source does not exist in storage
var ErrSourceNotFound = errors.New("source not found")

// SourceStorage - interface for job source persistence
type SourceStorage interface {
	SaveSource(ctx context.Context, source *models.Source) error
	GetSource(ctx context.Context, id string) (*models.Source, error)
	ListSources(ctx context.Context) ([]*models.Source, error)
	DeleteSource(ctx context.Context, id string) error
	CountSources(ctx context.Context) (int, error)

	// UpdateCursor overwrites the stored cursor for a source with the
	// external id of the newest top-of-list posting
	UpdateCursor(ctx context.Context, sourceID, externalID string) error
}

// PostingStorage - interface for job posting persistence
type PostingStorage interface {
	// Exists reports whether a posting with the given external id already
	// exists for the source
	Exists(ctx context.Context, externalID, sourceID string) (bool, error)

	// InsertBatch inserts postings, skipping (externalID, sourceID) pairs
	// that already exist. Returns the count of newly inserted postings.
	InsertBatch(ctx context.Context, postings []*models.Posting) (int, error)

	ListBySource(ctx context.Context, sourceID string) ([]*models.Posting, error)
	CountPostings(ctx context.Context) (int, error)
}

// SubscriberStorage - interface for notification subscriber persistence
type SubscriberStorage interface {
	SaveSubscriber(ctx context.Context, subscriber *models.Subscriber) error
	ListSubscribers(ctx context.Context) ([]*models.Subscriber, error)
	CountSubscribers(ctx context.Context) (int, error)
}

// StorageManager provides access to all storage interfaces
type StorageManager interface {
	SourceStorage() SourceStorage
	PostingStorage() PostingStorage
	SubscriberStorage() SubscriberStorage
	Close() error
}
