package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/roshan4665/fundfolio/internal/ingest"
	"github.com/roshan4665/fundfolio/internal/models"
	"github.com/roshan4665/fundfolio/internal/services/catalog"
	"github.com/roshan4665/fundfolio/internal/services/portfolio"
)

// --- Catalog handlers ---

func (s *Server) handleCatalogRefresh(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	funds, err := s.app.CatalogService.Refresh(r.Context())
	if err != nil {
		if errors.Is(err, ingest.ErrNoFundData) {
			WriteError(w, http.StatusBadGateway, "No fund data available: all sheet sources failed")
			return
		}
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Refresh error: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"funds": len(funds),
	})
}

func (s *Server) handleFundList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := r.URL.Query().Get("q")
	funds, err := s.app.CatalogService.SearchFunds(r.Context(), query)
	if err != nil {
		if errors.Is(err, ingest.ErrNoFundData) {
			WriteError(w, http.StatusBadGateway, "No fund data available: all sheet sources failed")
			return
		}
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error listing funds: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"funds": funds,
		"count": len(funds),
	})
}

func (s *Server) handleFundGet(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	id := PathParam(r, "/api/funds/", "")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "fund id is required in path")
		return
	}

	fund, err := s.app.CatalogService.GetFund(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrFundNotFound) {
			WriteError(w, http.StatusNotFound, fmt.Sprintf("Fund not found: %s", id))
			return
		}
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error loading fund: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, fund)
}

// --- Portfolio handlers ---

func (s *Server) handlePortfolioRoot(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	holdings, err := s.app.PortfolioService.Holdings(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error loading portfolio: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"holdings": holdings,
		"count":    len(holdings),
	})
}

type holdingRequest struct {
	FundID           string  `json:"fundId"`
	WeeklyInvestment float64 `json:"weeklyInvestment"`
}

func (s *Server) handleHoldingAdd(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req holdingRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.FundID == "" {
		WriteError(w, http.StatusBadRequest, "fundId is required")
		return
	}

	holding, err := s.app.PortfolioService.AddHolding(r.Context(), req.FundID, req.WeeklyInvestment)
	if err != nil {
		writeHoldingError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, holding)
}

// handleHoldingByID dispatches PUT/DELETE /api/portfolio/holdings/{id}.
func (s *Server) handleHoldingByID(w http.ResponseWriter, r *http.Request, fundID string) {
	switch r.Method {
	case http.MethodPut:
		var req struct {
			WeeklyInvestment float64 `json:"weeklyInvestment"`
		}
		if !DecodeJSON(w, r, &req) {
			return
		}

		holding, err := s.app.PortfolioService.UpdateHolding(r.Context(), fundID, req.WeeklyInvestment)
		if err != nil {
			writeHoldingError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, holding)

	case http.MethodDelete:
		if err := s.app.PortfolioService.RemoveHolding(r.Context(), fundID); err != nil {
			writeHoldingError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		RequireMethod(w, r, http.MethodPut, http.MethodDelete)
	}
}

// writeHoldingError maps portfolio service errors to HTTP status codes.
func writeHoldingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, portfolio.ErrInvalidInvestment):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, portfolio.ErrDuplicateHolding):
		WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, portfolio.ErrHoldingNotFound):
		WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, catalog.ErrFundNotFound):
		WriteError(w, http.StatusNotFound, err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Portfolio error: %v", err))
	}
}

// --- Analytics handlers ---

func (s *Server) handlePortfolioAllocation(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	allocation, err := s.app.PortfolioService.Allocation(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Allocation error: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, allocation)
}

func (s *Server) handlePortfolioStats(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	stats, err := s.app.PortfolioService.Stats(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Stats error: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, stats)
}

func (s *Server) handlePortfolioForecast(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	forecast, err := s.app.PortfolioService.Forecast(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Forecast error: %v", err))
		return
	}
	if forecast == nil {
		forecast = []models.ForecastPoint{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"forecast": forecast,
	})
}

func (s *Server) handlePortfolioForecastChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	png, err := s.app.PortfolioService.ForecastChartPNG(r.Context())
	if err != nil {
		if errors.Is(err, portfolio.ErrEmptyForecast) {
			WriteError(w, http.StatusUnprocessableEntity, "Forecast is empty: portfolio has no growth rate or contributions")
			return
		}
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Chart render error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
