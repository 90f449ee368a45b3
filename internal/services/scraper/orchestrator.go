// -----------------------------------------------------------------------
// Scrape Orchestrator
// Runs one cycle over every stored source with a single browser session
// -----------------------------------------------------------------------

package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// SessionFactory opens a browser session for a cycle
type SessionFactory func(ctx context.Context) (interfaces.BrowserSession, error)

// SourceStatus summarizes how a single source fared in a cycle
type SourceStatus string

const (
	StatusOK      SourceStatus = "ok"
	StatusPartial SourceStatus = "partial"
	StatusFailed  SourceStatus = "failed"
	StatusSkipped SourceStatus = "skipped"
)

// SourceResult is the per-source outcome of a cycle. One source failing
// never touches the others.
type SourceResult struct {
	SourceID    string
	SourceName  string
	Variant     models.Variant
	Status      SourceStatus
	NewPostings int
	Pages       int
	StopReason  StopReason
	Err         error
}

// CycleResult aggregates one full scrape cycle
type CycleResult struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Sources   []SourceResult
	TotalNew  int

	// Postings holds every newly detected posting across all sources,
	// in the order they were collected
	Postings []*models.Posting
}

// Orchestrator drives scrape cycles: it owns the collaboration between
// router, paginator, storage, policy gate and notifier
type Orchestrator struct {
	storage    interfaces.StorageManager
	policy     interfaces.PolicyGate
	notifier   interfaces.Notifier
	newSession SessionFactory
	router     *Router
	extractors map[models.Variant]Extractor
	config     common.ScraperConfig
	logger     arbor.ILogger
}

// NewOrchestrator creates a scrape orchestrator
func NewOrchestrator(
	storage interfaces.StorageManager,
	policy interfaces.PolicyGate,
	notifier interfaces.Notifier,
	newSession SessionFactory,
	config common.ScraperConfig,
	logger arbor.ILogger,
) *Orchestrator {
	return &Orchestrator{
		storage:    storage,
		policy:     policy,
		notifier:   notifier,
		newSession: newSession,
		router:     NewRouter(logger),
		extractors: map[models.Variant]Extractor{
			models.VariantStructured: NewStructuredExtractor(),
			models.VariantFreeText:   NewFreeTextExtractor(),
		},
		config: config,
		logger: logger,
	}
}

// RunCycle scrapes every stored source once. The browser session is
// acquired once for the whole cycle and released on every exit path.
// Returns an error only when the cycle itself could not run; per-source
// failures are recorded in the result.
func (o *Orchestrator) RunCycle(ctx context.Context) (*CycleResult, error) {
	result := &CycleResult{
		RunID:     common.NewRunID(),
		StartedAt: time.Now(),
	}

	sources, err := o.storage.SourceStorage().ListSources(ctx)
	if err != nil {
		return result, fmt.Errorf("list sources: %w", err)
	}
	if len(sources) == 0 {
		o.logger.Info().Str("run_id", result.RunID).Msg("No sources configured, nothing to scrape")
		result.Duration = time.Since(result.StartedAt)
		return result, nil
	}

	o.logger.Info().
		Str("run_id", result.RunID).
		Int("sources", len(sources)).
		Msg("Starting scrape cycle")

	session, err := o.newSession(ctx)
	if err != nil {
		return result, fmt.Errorf("open browser session: %w", err)
	}
	defer session.Close()

	paginator := NewPaginator(session, o.storage.PostingStorage(), o.config, o.logger)

	for i, source := range sources {
		if i > 0 {
			if err := Delay(ctx, o.config.SourceDelayMin, o.config.SourceDelayMax); err != nil {
				result.Duration = time.Since(result.StartedAt)
				return result, err
			}
		}

		sourceResult, inserted := o.scrapeSource(ctx, paginator, source)
		result.Sources = append(result.Sources, sourceResult)
		result.TotalNew += sourceResult.NewPostings
		result.Postings = append(result.Postings, inserted...)

		if ctx.Err() != nil {
			result.Duration = time.Since(result.StartedAt)
			return result, ctx.Err()
		}
	}

	o.notify(ctx, result.Postings)

	result.Duration = time.Since(result.StartedAt)
	o.logger.Info().
		Str("run_id", result.RunID).
		Int("total_new", result.TotalNew).
		Str("duration", result.Duration.Round(time.Millisecond).String()).
		Msg("Scrape cycle complete")

	return result, nil
}

// scrapeSource walks one source and persists its outcome. All failure
// modes are folded into the returned SourceResult; the second return value
// holds the postings that made it into storage.
func (o *Orchestrator) scrapeSource(ctx context.Context, paginator *Paginator, source *models.Source) (SourceResult, []*models.Posting) {
	sourceResult := SourceResult{
		SourceID:   source.ID,
		SourceName: source.Name,
	}

	if !o.policy.IsAllowed(ctx, source.URL) {
		o.logger.Warn().Str("source_id", source.ID).Msg("Source disallowed by policy, skipping")
		sourceResult.Status = StatusSkipped
		return sourceResult, nil
	}

	variant := o.router.Resolve(source)
	sourceResult.Variant = variant
	if variant == models.VariantNone {
		sourceResult.Status = StatusSkipped
		return sourceResult, nil
	}

	extractor := o.extractors[variant]

	pageResult, scrapeErr := paginator.Scrape(ctx, source, extractor)
	sourceResult.Pages = pageResult.Pages
	sourceResult.StopReason = pageResult.StopReason

	if scrapeErr != nil {
		o.logger.Error().
			Err(scrapeErr).
			Str("source_id", source.ID).
			Int("collected", len(pageResult.Postings)).
			Msg("Source scrape failed")
	}

	// Postings collected before a failure are still worth keeping, but the
	// cursor only advances after a clean walk and a clean insert, so the
	// next cycle re-covers anything this one missed
	if len(pageResult.Postings) > 0 {
		inserted, insertErr := o.storage.PostingStorage().InsertBatch(ctx, pageResult.Postings)
		sourceResult.NewPostings = inserted
		if insertErr != nil {
			sourceResult.Status = StatusFailed
			sourceResult.Err = fmt.Errorf("persist postings: %w", insertErr)
			return sourceResult, nil
		}
	}

	if scrapeErr != nil {
		sourceResult.Err = scrapeErr
		if sourceResult.NewPostings > 0 {
			sourceResult.Status = StatusPartial
		} else {
			sourceResult.Status = StatusFailed
		}
		return sourceResult, pageResult.Postings
	}

	if pageResult.NewCursor != "" {
		if err := o.storage.SourceStorage().UpdateCursor(ctx, source.ID, pageResult.NewCursor); err != nil {
			o.logger.Error().Err(err).Str("source_id", source.ID).Msg("Failed to update cursor")
			sourceResult.Status = StatusPartial
			sourceResult.Err = err
			return sourceResult, pageResult.Postings
		}
		source.CursorID = pageResult.NewCursor
	}

	o.logger.Info().
		Str("source_id", source.ID).
		Str("variant", string(variant)).
		Int("new", sourceResult.NewPostings).
		Int("pages", sourceResult.Pages).
		Str("stop", string(sourceResult.StopReason)).
		Msg("Source scrape complete")

	sourceResult.Status = StatusOK
	return sourceResult, pageResult.Postings
}

// notify emails subscribers about new postings. Best-effort: failures are
// logged and never propagate into the cycle result.
func (o *Orchestrator) notify(ctx context.Context, postings []*models.Posting) {
	if len(postings) == 0 {
		return
	}

	subscribers, err := o.storage.SubscriberStorage().ListSubscribers(ctx)
	if err != nil {
		o.logger.Warn().Err(err).Msg("Could not load subscribers, skipping notification")
		return
	}
	if len(subscribers) == 0 {
		o.logger.Info().Int("postings", len(postings)).Msg("New postings found but no subscribers configured")
		return
	}

	if err := o.notifier.NotifyNewPostings(ctx, subscribers, postings); err != nil {
		o.logger.Error().Err(err).Int("postings", len(postings)).Msg("Notification delivery failed")
	}
}
