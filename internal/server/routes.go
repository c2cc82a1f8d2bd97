package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/roshan4665/fundfolio/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Fund catalog
	mux.HandleFunc("/api/catalog/refresh", s.handleCatalogRefresh)
	mux.HandleFunc("/api/funds/", s.handleFundGet)
	mux.HandleFunc("/api/funds", s.handleFundList)

	// Portfolio
	mux.HandleFunc("/api/portfolio/", s.routePortfolio)
	mux.HandleFunc("/api/portfolio", s.handlePortfolioRoot)
}

// routePortfolio dispatches /api/portfolio/* to the appropriate handler.
func (s *Server) routePortfolio(w http.ResponseWriter, r *http.Request) {
	subpath := strings.TrimPrefix(r.URL.Path, "/api/portfolio/")

	switch subpath {
	case "":
		s.handlePortfolioRoot(w, r)
	case "holdings":
		s.handleHoldingAdd(w, r)
	case "allocation":
		s.handlePortfolioAllocation(w, r)
	case "stats":
		s.handlePortfolioStats(w, r)
	case "forecast":
		s.handlePortfolioForecast(w, r)
	case "forecast/chart":
		s.handlePortfolioForecastChart(w, r)
	default:
		if rest, ok := strings.CutPrefix(subpath, "holdings/"); ok && rest != "" && !strings.Contains(rest, "/") {
			s.handleHoldingByID(w, r, rest)
			return
		}
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}
