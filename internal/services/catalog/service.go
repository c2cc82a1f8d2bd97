// Package catalog ingests the configured fund sheets into the canonical
// fund catalog and serves lookups against it.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/roshan4665/fundfolio/internal/common"
	"github.com/roshan4665/fundfolio/internal/ingest"
	"github.com/roshan4665/fundfolio/internal/interfaces"
	"github.com/roshan4665/fundfolio/internal/models"
	"github.com/roshan4665/fundfolio/internal/storage"
)

// ErrFundNotFound is returned when an id matches no catalog fund.
var ErrFundNotFound = errors.New("fund not found in catalog")

// Service implements CatalogService
type Service struct {
	sheets     interfaces.SheetsClient
	blobs      interfaces.BlobStore
	sourceURLs []string
	logger     *common.Logger

	mu    sync.RWMutex
	funds []models.MutualFund
}

// NewService creates a new catalog service. sourceURLs are in merge priority
// order: base sheet first, then supplements.
func NewService(sheets interfaces.SheetsClient, blobs interfaces.BlobStore, sourceURLs []string, logger *common.Logger) *Service {
	return &Service{
		sheets:     sheets,
		blobs:      blobs,
		sourceURLs: sourceURLs,
		logger:     logger,
	}
}

// Refresh re-ingests all sources. Fetches run concurrently — one goroutine
// per source, each writing only its own slot — while the merge itself is a
// sequential fold over the slots in configured priority order, so racing
// fetch completions cannot change the outcome.
func (s *Service) Refresh(ctx context.Context) ([]models.MutualFund, error) {
	s.logger.Info().Int("sources", len(s.sourceURLs)).Msg("Refreshing fund catalog")

	sources := make([]ingest.Source, len(s.sourceURLs))
	var wg sync.WaitGroup
	for i, url := range s.sourceURLs {
		wg.Add(1)
		go func(slot int, url string) {
			defer wg.Done()
			sources[slot] = s.fetchSource(ctx, slot, url)
		}(i, url)
	}
	wg.Wait()

	for _, src := range sources {
		if src.Err != nil {
			s.logger.Warn().Err(src.Err).Str("source", src.Label).Msg("Sheet source failed, excluding from merge")
		}
	}

	funds, err := ingest.Reconcile(sources)
	if err != nil {
		return nil, fmt.Errorf("catalog ingestion failed: %w", err)
	}

	s.mu.Lock()
	s.funds = funds
	s.mu.Unlock()

	s.saveCache(ctx, funds)

	s.logger.Info().Int("funds", len(funds)).Msg("Fund catalog refreshed")
	return funds, nil
}

// fetchSource fetches and parses one sheet into its Source slot.
func (s *Service) fetchSource(ctx context.Context, index int, url string) ingest.Source {
	label := fmt.Sprintf("sheet-%d", index)
	text, err := s.sheets.FetchSheet(ctx, url)
	if err != nil {
		return ingest.Source{Label: label, Err: err}
	}

	headers, rows := ingest.ParseDocument(text)
	records := ingest.BuildRecords(headers, rows)

	s.logger.Debug().
		Str("source", label).
		Int("rows", len(rows)).
		Int("records", len(records)).
		Msg("Sheet parsed")

	return ingest.Source{Label: label, Records: records}
}

// Funds returns the current catalog, falling back to the cached copy and
// then to a live refresh when nothing is loaded yet.
func (s *Service) Funds(ctx context.Context) ([]models.MutualFund, error) {
	s.mu.RLock()
	funds := s.funds
	s.mu.RUnlock()
	if funds != nil {
		return funds, nil
	}

	if cached, ok := s.loadCache(ctx); ok {
		s.mu.Lock()
		s.funds = cached
		s.mu.Unlock()
		return cached, nil
	}

	return s.Refresh(ctx)
}

// SearchFunds returns funds whose name contains the query, case-insensitively.
func (s *Service) SearchFunds(ctx context.Context, query string) ([]models.MutualFund, error) {
	funds, err := s.Funds(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return funds, nil
	}

	var matched []models.MutualFund
	for _, f := range funds {
		if strings.Contains(strings.ToLower(f.Name), query) {
			matched = append(matched, f)
		}
	}
	return matched, nil
}

// GetFund returns one fund by its stable id.
func (s *Service) GetFund(ctx context.Context, id string) (*models.MutualFund, error) {
	funds, err := s.Funds(ctx)
	if err != nil {
		return nil, err
	}
	for i := range funds {
		if funds[i].ID == id {
			fund := funds[i]
			return &fund, nil
		}
	}
	return nil, ErrFundNotFound
}

// saveCache persists the catalog to the local blob store; failure is logged,
// never surfaced — the cache is an optimization.
func (s *Service) saveCache(ctx context.Context, funds []models.MutualFund) {
	if s.blobs == nil {
		return
	}
	data, err := json.Marshal(funds)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to encode catalog cache")
		return
	}
	if err := s.blobs.Put(ctx, storage.KeyCatalog, data); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write catalog cache")
	}
}

func (s *Service) loadCache(ctx context.Context) ([]models.MutualFund, bool) {
	if s.blobs == nil {
		return nil, false
	}
	data, err := s.blobs.Get(ctx, storage.KeyCatalog)
	if err != nil {
		return nil, false
	}
	var funds []models.MutualFund
	if err := json.Unmarshal(data, &funds); err != nil {
		s.logger.Warn().Err(err).Msg("Catalog cache malformed, ignoring")
		return nil, false
	}
	return funds, true
}
