package bootstrap

import (
	"fmt"

	"github.com/jonesrussell/north-cloud/content-mirror/internal/blocktree"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/config"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/logger"
)

// SetupRegistry builds the component child-path registry from the built-ins and cfg.Components.
func SetupRegistry(cfg *config.Config, log logger.Logger) (*blocktree.Registry, error) {
	registry, err := blocktree.NewRegistry(cfg.Components)
	if err != nil {
		return nil, fmt.Errorf("component registry: %w", err)
	}

	log.Info("Component registry loaded", logger.Strings("components", registry.Components()))
	return registry, nil
}
