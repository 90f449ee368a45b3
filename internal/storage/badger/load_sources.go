package badger

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
	"gopkg.in/yaml.v3"
)

// SourcesFile represents the source seed file format (TOML or YAML):
//
//	[[sources]]
//	id = "acme-careers"
//	name = "Acme Careers"
//	url = "https://acme.wd3.myworkdayjobs.com/en-US/External"
//	structured = true
type SourcesFile struct {
	Sources []models.Source `toml:"sources" yaml:"sources"`
}

// LoadSourcesFromFiles loads source definitions from TOML/YAML files in the
// specified directory and upserts them into storage. Cursors already stored
// for a source are preserved. Missing directory and per-file errors are
// non-fatal.
func LoadSourcesFromFiles(ctx context.Context, sourceStorage interfaces.SourceStorage, dirPath string, logger arbor.ILogger) error {
	logger.Debug().Str("dir", dirPath).Msg("Loading sources from files")

	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		logger.Debug().Str("dir", dirPath).Msg("Sources directory does not exist, skipping")
		return nil
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		logger.Warn().Err(err).Str("dir", dirPath).Msg("Failed to read sources directory")
		return nil // Non-fatal
	}

	loadedCount := 0
	errorCount := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		var file SourcesFile
		if !parseSeedFile(dirPath, entry.Name(), &file, logger) {
			if isSeedFile(entry.Name()) {
				errorCount++
			}
			continue
		}

		for i := range file.Sources {
			source := file.Sources[i]
			if err := source.Validate(); err != nil {
				logger.Warn().Err(err).Str("file", entry.Name()).Msg("Skipping invalid source definition")
				errorCount++
				continue
			}

			if err := sourceStorage.SaveSource(ctx, &source); err != nil {
				logger.Warn().Err(err).Str("source_id", source.ID).Msg("Failed to save source")
				errorCount++
				continue
			}
			loadedCount++
		}
	}

	logger.Info().
		Int("loaded", loadedCount).
		Int("errors", errorCount).
		Str("dir", dirPath).
		Msg("Source definitions loaded")

	return nil
}

func isSeedFile(name string) bool {
	return strings.HasSuffix(name, ".toml") ||
		strings.HasSuffix(name, ".yaml") ||
		strings.HasSuffix(name, ".yml")
}

// parseSeedFile reads and unmarshals a TOML/YAML seed file into out.
// Returns false when the file is not a seed file or could not be parsed.
func parseSeedFile(dirPath, name string, out interface{}, logger arbor.ILogger) bool {
	if !isSeedFile(name) {
		return false
	}

	filePath := filepath.Join(dirPath, name)
	content, err := os.ReadFile(filePath)
	if err != nil {
		logger.Warn().Err(err).Str("file", name).Msg("Failed to read seed file")
		return false
	}

	if strings.HasSuffix(name, ".toml") {
		if err := toml.Unmarshal(content, out); err != nil {
			logger.Warn().Err(err).Str("file", name).Msg("Failed to parse TOML seed file")
			return false
		}
		return true
	}

	if err := yaml.Unmarshal(content, out); err != nil {
		logger.Warn().Err(err).Str("file", name).Msg("Failed to parse YAML seed file")
		return false
	}
	return true
}
