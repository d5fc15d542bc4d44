// Package di provides dependency injection for database connections.
package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/config"
	"github.com/aristath/folio/internal/database"
)

// InitializeDatabases opens the three databases and applies their schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	layout := []struct {
		name    string
		profile database.DatabaseProfile
		target  **database.DB
	}{
		// Immutable audit trail: maximum durability
		{database.NameLedger, database.ProfileLedger, &container.LedgerDB},
		{database.NameConfig, database.ProfileStandard, &container.ConfigDB},
		// Re-fetchable price history
		{database.NameHistory, database.ProfileCache, &container.HistoryDB},
	}

	for _, entry := range layout {
		db, err := database.New(database.Config{
			Path:    cfg.DatabasePath(entry.name),
			Profile: entry.profile,
			Name:    entry.name,
		})
		if err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to initialize %s database: %w", entry.name, err)
		}
		*entry.target = db

		if err := db.Migrate(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to apply schema to %s: %w", entry.name, err)
		}
	}

	log.Info().Str("data_dir", cfg.DataDir).Msg("All databases initialized and schemas applied")
	return container, nil
}
