package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// PostingStorage implements the PostingStorage interface for Badger.
// Postings are keyed by "<sourceID>/<externalID>" so the uniqueness
// invariant on the pair holds without a secondary index.
type PostingStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewPostingStorage creates a new PostingStorage instance
func NewPostingStorage(db *BadgerDB, logger arbor.ILogger) interfaces.PostingStorage {
	return &PostingStorage{
		db:     db,
		logger: logger,
	}
}

// Exists reports whether a posting with the given external id already exists
// for the source
func (s *PostingStorage) Exists(ctx context.Context, externalID, sourceID string) (bool, error) {
	key := sourceID + "/" + externalID
	var posting models.Posting
	err := s.db.Store().Get(key, &posting)
	if err == badgerhold.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check posting existence for %s: %w", key, err)
	}
	return true, nil
}

// InsertBatch inserts postings, skipping pairs that already exist.
// Returns the count of newly inserted postings.
func (s *PostingStorage) InsertBatch(ctx context.Context, postings []*models.Posting) (int, error) {
	if len(postings) == 0 {
		return 0, nil
	}

	inserted := 0
	for _, posting := range postings {
		if posting.ScrapedAt.IsZero() {
			posting.ScrapedAt = time.Now()
		}

		err := s.db.Store().Insert(posting.Key(), posting)
		if err == badgerhold.ErrKeyExists {
			s.logger.Debug().
				Str("external_id", posting.ExternalID).
				Str("source_id", posting.SourceID).
				Msg("Posting already exists, skipped")
			continue
		}
		if err != nil {
			return inserted, fmt.Errorf("failed to insert posting %s: %w", posting.Key(), err)
		}
		inserted++
	}

	s.logger.Info().
		Int("inserted", inserted).
		Int("total", len(postings)).
		Msg("Batch inserted postings")

	return inserted, nil
}

// ListBySource returns all postings stored for a source
func (s *PostingStorage) ListBySource(ctx context.Context, sourceID string) ([]*models.Posting, error) {
	var postings []*models.Posting
	query := badgerhold.Where("SourceID").Eq(sourceID)
	if err := s.db.Store().Find(&postings, query); err != nil {
		return nil, fmt.Errorf("failed to list postings for source %s: %w", sourceID, err)
	}
	return postings, nil
}

// CountPostings returns the number of stored postings
func (s *PostingStorage) CountPostings(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Posting{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count postings: %w", err)
	}
	return int(count), nil
}
