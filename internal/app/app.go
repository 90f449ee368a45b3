// -----------------------------------------------------------------------
// Application Wiring
// Builds storage, services and the orchestrator from configuration
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/services/browser"
	"github.com/ternarybob/venari/internal/services/notify"
	"github.com/ternarybob/venari/internal/services/policy"
	"github.com/ternarybob/venari/internal/services/scheduler"
	"github.com/ternarybob/venari/internal/services/scraper"
	badgerstorage "github.com/ternarybob/venari/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	PolicyGate   interfaces.PolicyGate
	Notifier     interfaces.Notifier
	Orchestrator *scraper.Orchestrator
	Scheduler    *scheduler.Scheduler
}

// New creates the application: opens storage, loads seed definitions and
// wires the scrape orchestrator
func New(ctx context.Context, config *common.Config, logger arbor.ILogger) (*App, error) {
	storageManager, err := badgerstorage.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := badgerstorage.LoadSourcesFromFiles(ctx, storageManager.SourceStorage(), config.Sources.Dir, logger); err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}
	if err := badgerstorage.LoadSubscribersFromFiles(ctx, storageManager.SubscriberStorage(), config.Subscribers.Dir, logger); err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to load subscribers: %w", err)
	}

	policyGate := policy.NewRobotsGate(config.Robots, logger)
	mailer := notify.NewMailer(config.SMTP, logger)
	notifier := notify.NewEmailNotifier(mailer, logger)

	sessionFactory := func(ctx context.Context) (interfaces.BrowserSession, error) {
		return browser.NewSession(ctx, config.Scraper, logger)
	}

	orchestrator := scraper.NewOrchestrator(
		storageManager,
		policyGate,
		notifier,
		sessionFactory,
		config.Scraper,
		logger,
	)

	app := &App{
		Config:         config,
		Logger:         logger,
		StorageManager: storageManager,
		PolicyGate:     policyGate,
		Notifier:       notifier,
		Orchestrator:   orchestrator,
	}

	if config.Scheduler.Enabled {
		app.Scheduler = scheduler.NewScheduler(config.Scheduler, func(ctx context.Context) error {
			_, err := orchestrator.RunCycle(ctx)
			return err
		}, logger)
	}

	return app, nil
}

// RunOnce runs a single scrape cycle
func (a *App) RunOnce(ctx context.Context) (*scraper.CycleResult, error) {
	return a.Orchestrator.RunCycle(ctx)
}

// Close releases application resources
func (a *App) Close() {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}
}
