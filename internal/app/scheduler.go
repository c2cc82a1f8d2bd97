package app

import (
	"context"
	"time"

	"github.com/roshan4665/fundfolio/internal/common"
	"github.com/roshan4665/fundfolio/internal/interfaces"
)

// StartCatalogScheduler launches the background catalog refresh goroutine.
// A zero or unparseable refresh interval disables scheduling.
func (a *App) StartCatalogScheduler() {
	interval := a.Config.Ingest.GetRefreshInterval()
	if interval <= 0 {
		a.Logger.Debug().Msg("Catalog scheduler: disabled")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.schedulerCancel = cancel
	go runCatalogScheduler(ctx, a.CatalogService, a.Logger, interval)
}

// runCatalogScheduler re-ingests the sheet sources on a fixed interval.
func runCatalogScheduler(ctx context.Context, catalogService interfaces.CatalogService, logger *common.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Catalog scheduler: stopped")
			return
		case <-ticker.C:
			refreshCatalog(ctx, catalogService, logger)
		}
	}
}

func refreshCatalog(ctx context.Context, catalogService interfaces.CatalogService, logger *common.Logger) {
	start := time.Now()

	refreshCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	funds, err := catalogService.Refresh(refreshCtx)
	if err != nil {
		logger.Warn().Err(err).Msg("Catalog refresh: all sources failed")
		return
	}

	logger.Info().
		Int("funds", len(funds)).
		Dur("elapsed", time.Since(start)).
		Msg("Catalog refresh: complete")
}
