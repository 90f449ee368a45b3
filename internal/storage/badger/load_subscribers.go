package badger

import (
	"context"
	"os"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// SubscribersFile represents the subscriber seed file format (TOML or YAML):
//
//	[[subscribers]]
//	name = "Jane"
//	email = "jane@example.com"
type SubscribersFile struct {
	Subscribers []models.Subscriber `toml:"subscribers" yaml:"subscribers"`
}

// LoadSubscribersFromFiles loads subscriber definitions from TOML/YAML files
// in the specified directory and upserts them into storage
func LoadSubscribersFromFiles(ctx context.Context, subscriberStorage interfaces.SubscriberStorage, dirPath string, logger arbor.ILogger) error {
	logger.Debug().Str("dir", dirPath).Msg("Loading subscribers from files")

	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		logger.Debug().Str("dir", dirPath).Msg("Subscribers directory does not exist, skipping")
		return nil
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		logger.Warn().Err(err).Str("dir", dirPath).Msg("Failed to read subscribers directory")
		return nil // Non-fatal
	}

	loadedCount := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		var file SubscribersFile
		if !parseSeedFile(dirPath, entry.Name(), &file, logger) {
			continue
		}

		for i := range file.Subscribers {
			subscriber := file.Subscribers[i]
			if err := subscriber.Validate(); err != nil {
				logger.Warn().Err(err).Str("file", entry.Name()).Msg("Skipping invalid subscriber definition")
				continue
			}

			if err := subscriberStorage.SaveSubscriber(ctx, &subscriber); err != nil {
				logger.Warn().Err(err).Str("email", subscriber.Email).Msg("Failed to save subscriber")
				continue
			}
			loadedCount++
		}
	}

	logger.Info().
		Int("loaded", loadedCount).
		Str("dir", dirPath).
		Msg("Subscriber definitions loaded")

	return nil
}
