package bootstrap

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/config"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/database"
)

// SetupDatabase creates a pooled database connection from config.
func SetupDatabase(cfg *config.Config) (*sqlx.DB, error) {
	db, connErr := database.Connect(database.Config{
		DSN:             cfg.Database.DSN(),
		MaxOpenConns:    cfg.Database.MaxConnections,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnectionMaxLifetime,
	})
	if connErr != nil {
		return nil, fmt.Errorf("database connection: %w", connErr)
	}

	return db, nil
}
