package badger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// SubscriberStorage implements the SubscriberStorage interface for Badger,
// keyed by lowercased email
type SubscriberStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSubscriberStorage creates a new SubscriberStorage instance
func NewSubscriberStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SubscriberStorage {
	return &SubscriberStorage{
		db:     db,
		logger: logger,
	}
}

// SaveSubscriber inserts or updates a subscriber
func (s *SubscriberStorage) SaveSubscriber(ctx context.Context, subscriber *models.Subscriber) error {
	key := strings.ToLower(strings.TrimSpace(subscriber.Email))
	if key == "" {
		return fmt.Errorf("subscriber email is required")
	}

	var existing models.Subscriber
	err := s.db.Store().Get(key, &existing)
	if err == nil {
		subscriber.CreatedAt = existing.CreatedAt
	} else if err == badgerhold.ErrNotFound {
		subscriber.CreatedAt = time.Now()
	} else {
		return fmt.Errorf("failed to check subscriber existence: %w", err)
	}

	if err := s.db.Store().Upsert(key, subscriber); err != nil {
		return fmt.Errorf("failed to save subscriber %s: %w", key, err)
	}

	return nil
}

// ListSubscribers returns all subscribers
func (s *SubscriberStorage) ListSubscribers(ctx context.Context) ([]*models.Subscriber, error) {
	var subscribers []*models.Subscriber
	if err := s.db.Store().Find(&subscribers, nil); err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	return subscribers, nil
}

// CountSubscribers returns the number of stored subscribers
func (s *SubscriberStorage) CountSubscribers(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Subscriber{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count subscribers: %w", err)
	}
	return int(count), nil
}
