package portfolio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/roshan4665/fundfolio/internal/common"
	"github.com/roshan4665/fundfolio/internal/interfaces"
	"github.com/roshan4665/fundfolio/internal/models"
	"github.com/roshan4665/fundfolio/internal/storage"
)

var (
	// ErrDuplicateHolding is returned when the fund is already held.
	ErrDuplicateHolding = errors.New("fund already in portfolio")

	// ErrHoldingNotFound is returned when no holding matches the fund id.
	ErrHoldingNotFound = errors.New("holding not found in portfolio")

	// ErrEmptyForecast is returned when a chart is requested but the
	// forecast series is empty.
	ErrEmptyForecast = errors.New("no forecast available: portfolio needs a positive contribution and growth rate")

	// ErrInvalidInvestment rejects non-positive or non-finite contribution
	// amounts at the boundary, before they reach the data model.
	ErrInvalidInvestment = errors.New("weekly investment must be a positive number")
)

// Service implements PortfolioService
type Service struct {
	catalog interfaces.CatalogService
	blobs   interfaces.BlobStore
	bin     interfaces.BinClient
	sheets  interfaces.SheetsClient
	logger  *common.Logger

	state    *state
	debounce *debouncer
}

// NewService creates a new portfolio service. persistDebounce is the
// quiescence window for remote bin writes.
func NewService(
	catalog interfaces.CatalogService,
	blobs interfaces.BlobStore,
	bin interfaces.BinClient,
	sheets interfaces.SheetsClient,
	persistDebounce time.Duration,
	logger *common.Logger,
) *Service {
	s := &Service{
		catalog: catalog,
		blobs:   blobs,
		bin:     bin,
		sheets:  sheets,
		logger:  logger,
		state:   newState(),
	}
	s.debounce = newDebouncer(persistDebounce, s.persistRemote)
	return s
}

// Holdings returns the current portfolio.
func (s *Service) Holdings(ctx context.Context) ([]models.PortfolioHolding, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return s.state.snapshot(), nil
}

// AddHolding adds a catalog fund with a weekly contribution.
func (s *Service) AddHolding(ctx context.Context, fundID string, weeklyInvestment float64) (*models.PortfolioHolding, error) {
	if err := validateInvestment(weeklyInvestment); err != nil {
		return nil, err
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	fund, err := s.catalog.GetFund(ctx, fundID)
	if err != nil {
		return nil, fmt.Errorf("cannot add holding: %w", err)
	}

	holding := models.PortfolioHolding{Fund: *fund, WeeklyInvestment: weeklyInvestment}
	if !s.state.add(holding) {
		return nil, ErrDuplicateHolding
	}

	s.logger.Info().Str("fund", fund.Name).Float64("weekly", weeklyInvestment).Msg("Holding added")
	s.persist(ctx)
	return &holding, nil
}

// UpdateHolding changes the weekly contribution of a held fund.
func (s *Service) UpdateHolding(ctx context.Context, fundID string, weeklyInvestment float64) (*models.PortfolioHolding, error) {
	if err := validateInvestment(weeklyInvestment); err != nil {
		return nil, err
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	holding, ok := s.state.update(fundID, weeklyInvestment)
	if !ok {
		return nil, ErrHoldingNotFound
	}

	s.logger.Info().Str("fund", holding.Fund.Name).Float64("weekly", weeklyInvestment).Msg("Holding updated")
	s.persist(ctx)
	return &holding, nil
}

// RemoveHolding removes a holding by fund id.
func (s *Service) RemoveHolding(ctx context.Context, fundID string) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	if !s.state.remove(fundID) {
		return ErrHoldingNotFound
	}

	s.logger.Info().Str("fund_id", fundID).Msg("Holding removed")
	s.persist(ctx)
	return nil
}

// Allocation computes the weighted market-cap breakdown.
func (s *Service) Allocation(ctx context.Context) (*models.AllocationResult, error) {
	holdings, err := s.Holdings(ctx)
	if err != nil {
		return nil, err
	}
	result := ComputeAllocation(holdings)
	return &result, nil
}

// Stats computes weighted-average portfolio metrics.
func (s *Service) Stats(ctx context.Context) (*models.AggregateStats, error) {
	holdings, err := s.Holdings(ctx)
	if err != nil {
		return nil, err
	}
	stats := ComputeStats(holdings)
	return &stats, nil
}

// Forecast computes the projected-value series from the portfolio's total
// weekly investment and weighted-average 3Y CAGR.
func (s *Service) Forecast(ctx context.Context) ([]models.ForecastPoint, error) {
	holdings, err := s.Holdings(ctx)
	if err != nil {
		return nil, err
	}
	stats := ComputeStats(holdings)
	return ComputeForecast(stats.TotalWeeklyInvestment, stats.WeightedAverageCagr3y), nil
}

// ForecastChartPNG renders the forecast series as a PNG line chart.
func (s *Service) ForecastChartPNG(ctx context.Context) ([]byte, error) {
	points, err := s.Forecast(ctx)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, ErrEmptyForecast
	}
	return RenderForecastChart(points)
}

// Flush forces any debounced persistence to complete now.
func (s *Service) Flush(ctx context.Context) error {
	s.debounce.Flush()
	return nil
}

func validateInvestment(weekly float64) error {
	if weekly <= 0 || math.IsNaN(weekly) || math.IsInf(weekly, 0) {
		return ErrInvalidInvestment
	}
	return nil
}

// ensureLoaded populates state on first use: local cache, then remote bin,
// then the published default portfolio, then empty.
func (s *Service) ensureLoaded(ctx context.Context) error {
	return s.state.loadOnce(func() []models.PortfolioHolding {
		if holdings, ok := s.loadLocal(ctx); ok {
			s.logger.Info().Int("holdings", len(holdings)).Msg("Portfolio loaded from local cache")
			return holdings
		}

		if s.bin != nil && s.bin.Enabled() {
			holdings, err := s.bin.Get(ctx)
			if err == nil {
				s.logger.Info().Int("holdings", len(holdings)).Msg("Portfolio loaded from remote bin")
				return holdings
			}
			if !errors.Is(err, interfaces.ErrBinNotFound) {
				s.logger.Warn().Err(err).Msg("Remote portfolio unavailable")
			}
		}

		if s.sheets != nil {
			holdings, err := s.sheets.FetchDefaultPortfolio(ctx)
			if err != nil {
				s.logger.Warn().Err(err).Msg("Default portfolio unavailable, starting empty")
				return nil
			}
			if len(holdings) > 0 {
				s.logger.Info().Int("holdings", len(holdings)).Msg("Default portfolio loaded")
			}
			return holdings
		}

		return nil
	})
}

func (s *Service) loadLocal(ctx context.Context) ([]models.PortfolioHolding, bool) {
	if s.blobs == nil {
		return nil, false
	}
	data, err := s.blobs.Get(ctx, storage.KeyPortfolio)
	if err != nil {
		return nil, false
	}
	var holdings []models.PortfolioHolding
	if err := json.Unmarshal(data, &holdings); err != nil {
		s.logger.Warn().Err(err).Msg("Local portfolio cache malformed, ignoring")
		return nil, false
	}
	return holdings, true
}

// persist writes the portfolio to the local cache immediately and schedules
// a debounced remote write. Rapid mutations coalesce into one outbound call.
func (s *Service) persist(ctx context.Context) {
	holdings := s.state.snapshot()

	if s.blobs != nil {
		data, err := json.Marshal(holdings)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to encode portfolio")
			return
		}
		if err := s.blobs.Put(ctx, storage.KeyPortfolio, data); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to write local portfolio cache")
		}
	}

	if s.bin != nil && s.bin.Enabled() {
		s.debounce.Trigger()
	}
}

// persistRemote pushes the latest snapshot to the remote bin. Fired by the
// debouncer after the quiescence window, or by Flush on shutdown.
func (s *Service) persistRemote() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	holdings := s.state.snapshot()
	if err := s.bin.Put(ctx, holdings); err != nil {
		s.logger.Warn().Err(err).Int("holdings", len(holdings)).Msg("Remote portfolio persistence failed")
		return
	}
	s.logger.Debug().Int("holdings", len(holdings)).Msg("Portfolio persisted to remote bin")
}
