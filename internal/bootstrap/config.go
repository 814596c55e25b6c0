package bootstrap

import (
	"fmt"

	"github.com/jonesrussell/north-cloud/content-mirror/internal/config"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/logger"
)

// DefaultConfigPath is used when neither a flag nor CONFIG_PATH names a file.
const DefaultConfigPath = "config.yml"

// LoadConfig loads and validates the service configuration. An empty path falls back to
// CONFIG_PATH and then DefaultConfigPath.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.GetConfigPath(DefaultConfigPath)
	}

	cfg, loadErr := config.Load(path)
	if loadErr != nil {
		return nil, fmt.Errorf("load config: %w", loadErr)
	}

	return cfg, nil
}

// CreateLogger creates a structured logger for the service.
func CreateLogger(cfg *config.Config) (logger.Logger, error) {
	log, logErr := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if logErr != nil {
		return nil, fmt.Errorf("create logger: %w", logErr)
	}

	return log.With(
		logger.String("service", cfg.Service.Name),
		logger.String("version", cfg.Service.Version),
	), nil
}
