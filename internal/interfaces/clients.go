// Package interfaces defines service contracts for FundFolio
package interfaces

import (
	"context"
	"errors"

	"github.com/roshan4665/fundfolio/internal/models"
)

// ErrBinNotFound distinguishes "nothing persisted yet" from transport
// failure when reading the remote portfolio bin.
var ErrBinNotFound = errors.New("portfolio bin not found")

// SheetsClient fetches published fund-sheet documents over HTTP.
type SheetsClient interface {
	// FetchSheet retrieves one raw CSV document. An empty document is not
	// an error; transport failures and non-success statuses are.
	FetchSheet(ctx context.Context, url string) (string, error)

	// FetchDefaultPortfolio retrieves the published default-portfolio
	// document: a JSON array of holdings.
	FetchDefaultPortfolio(ctx context.Context) ([]models.PortfolioHolding, error)
}

// BinClient reads and writes the remote portfolio blob wholesale.
type BinClient interface {
	// Get returns the stored holdings array, or ErrBinNotFound when the
	// bin is empty or absent. A malformed stored document is treated as
	// absent rather than a hard failure.
	Get(ctx context.Context) ([]models.PortfolioHolding, error)

	// Put overwrites the entire stored document with the given holdings.
	Put(ctx context.Context, holdings []models.PortfolioHolding) error

	// Enabled reports whether a remote bin is configured.
	Enabled() bool
}
