// Package di provides dependency injection for repositories.
package di

import (
	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/modules/ledger"
	"github.com/aristath/folio/internal/modules/policy"
	"github.com/aristath/folio/internal/modules/prices"
	"github.com/aristath/folio/internal/modules/signals"
)

// InitializeRepositories creates all repositories on the container's databases
func InitializeRepositories(container *Container, log zerolog.Logger) {
	container.LedgerRepo = ledger.NewRepository(container.LedgerDB.Conn(), log)
	container.PolicyRepo = policy.NewRepository(container.ConfigDB.Conn(), log)
	container.SignalsRepo = signals.NewRepository(container.ConfigDB.Conn(), log)
	container.PriceRepo = prices.NewRepository(container.HistoryDB.Conn(), log)
}
