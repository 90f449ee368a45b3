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

// SourceStorage implements the SourceStorage interface for Badger
type SourceStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSourceStorage creates a new SourceStorage instance
func NewSourceStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SourceStorage {
	return &SourceStorage{
		db:     db,
		logger: logger,
	}
}

// SaveSource inserts or updates a source, preserving CreatedAt and the stored
// cursor on update (seed files do not carry cursors)
func (s *SourceStorage) SaveSource(ctx context.Context, source *models.Source) error {
	now := time.Now()
	source.UpdatedAt = now

	var existing models.Source
	err := s.db.Store().Get(source.ID, &existing)
	if err == nil {
		source.CreatedAt = existing.CreatedAt
		if source.CursorID == "" {
			source.CursorID = existing.CursorID
		}
	} else if err == badgerhold.ErrNotFound {
		source.CreatedAt = now
	} else {
		return fmt.Errorf("failed to check source existence: %w", err)
	}

	if err := s.db.Store().Upsert(source.ID, source); err != nil {
		return fmt.Errorf("failed to save source %s: %w", source.ID, err)
	}

	return nil
}

// GetSource retrieves a source by ID
func (s *SourceStorage) GetSource(ctx context.Context, id string) (*models.Source, error) {
	var source models.Source
	err := s.db.Store().Get(id, &source)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrSourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source %s: %w", id, err)
	}
	return &source, nil
}

// ListSources returns all sources ordered by ID
func (s *SourceStorage) ListSources(ctx context.Context) ([]*models.Source, error) {
	var sources []*models.Source
	if err := s.db.Store().Find(&sources, nil); err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	return sources, nil
}

// DeleteSource removes a source by ID
func (s *SourceStorage) DeleteSource(ctx context.Context, id string) error {
	err := s.db.Store().Delete(id, &models.Source{})
	if err == badgerhold.ErrNotFound {
		return interfaces.ErrSourceNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete source %s: %w", id, err)
	}
	return nil
}

// CountSources returns the number of stored sources
func (s *SourceStorage) CountSources(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Source{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count sources: %w", err)
	}
	return int(count), nil
}

// UpdateCursor overwrites the stored cursor for a source
func (s *SourceStorage) UpdateCursor(ctx context.Context, sourceID, externalID string) error {
	var source models.Source
	err := s.db.Store().Get(sourceID, &source)
	if err == badgerhold.ErrNotFound {
		return interfaces.ErrSourceNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get source %s: %w", sourceID, err)
	}

	source.CursorID = externalID
	source.UpdatedAt = time.Now()

	if err := s.db.Store().Upsert(sourceID, &source); err != nil {
		return fmt.Errorf("failed to update cursor for source %s: %w", sourceID, err)
	}

	s.logger.Info().
		Str("source_id", sourceID).
		Str("cursor", externalID).
		Msg("Updated source cursor")

	return nil
}
