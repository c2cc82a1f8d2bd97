package interfaces

import (
	"context"

	"github.com/roshan4665/fundfolio/internal/models"
)

// CatalogService owns the canonical fund catalog produced by ingestion.
type CatalogService interface {
	// Refresh re-ingests all configured sheet sources and supersedes the
	// catalog. Sources are fetched concurrently but merged in configured
	// priority order. Fails only when every source fails.
	Refresh(ctx context.Context) ([]models.MutualFund, error)

	// Funds returns the current catalog, loading the cached copy (or
	// refreshing) when no catalog is in memory yet.
	Funds(ctx context.Context) ([]models.MutualFund, error)

	// SearchFunds returns funds whose name contains the query,
	// case-insensitively. An empty query returns the whole catalog.
	SearchFunds(ctx context.Context, query string) ([]models.MutualFund, error)

	// GetFund returns one fund by its stable id.
	GetFund(ctx context.Context, id string) (*models.MutualFund, error)
}

// PortfolioService manages the user's weighted holdings and the analytics
// derived from them.
type PortfolioService interface {
	// Holdings returns the current portfolio.
	Holdings(ctx context.Context) ([]models.PortfolioHolding, error)

	// AddHolding adds a catalog fund with a weekly contribution.
	AddHolding(ctx context.Context, fundID string, weeklyInvestment float64) (*models.PortfolioHolding, error)

	// UpdateHolding changes the weekly contribution of a held fund.
	UpdateHolding(ctx context.Context, fundID string, weeklyInvestment float64) (*models.PortfolioHolding, error)

	// RemoveHolding removes a holding by fund id.
	RemoveHolding(ctx context.Context, fundID string) error

	// Allocation computes the weighted market-cap breakdown.
	Allocation(ctx context.Context) (*models.AllocationResult, error)

	// Stats computes weighted-average portfolio metrics.
	Stats(ctx context.Context) (*models.AggregateStats, error)

	// Forecast computes the projected-value series from the portfolio's
	// total weekly investment and weighted-average 3Y CAGR. Empty when the
	// rate or the contribution is non-positive.
	Forecast(ctx context.Context) ([]models.ForecastPoint, error)

	// ForecastChartPNG renders the forecast series as a PNG line chart.
	ForecastChartPNG(ctx context.Context) ([]byte, error)

	// Flush forces any debounced persistence to complete now.
	Flush(ctx context.Context) error
}
