package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/bourse/internal/services"
	"github.com/aristath/bourse/internal/store"
)

// handleHealth reports liveness plus a quick check of both databases.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	databases := map[string]string{"market": "ok", "snapshots": "ok"}

	if err := s.marketDB.HealthCheck(r.Context()); err != nil {
		status = "degraded"
		databases["market"] = err.Error()
	}
	if err := s.snapshotDB.HealthCheck(r.Context()); err != nil {
		status = "degraded"
		databases["snapshots"] = err.Error()
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	s.respondJSON(w, code, map[string]interface{}{
		"status":    status,
		"databases": databases,
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleSystemStatus reports host resource usage alongside the
// simulation's position.
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"uptime":     time.Since(s.started).Round(time.Second).String(),
		"goroutines": runtime.NumGoroutine(),
		"day":        s.sim.Day(),
	}

	if cpuPercent, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		resp["cpu_percent"] = cpuPercent[0]
	}
	if memStat, err := mem.VirtualMemory(); err == nil {
		resp["memory_percent"] = memStat.UsedPercent
		resp["memory_used_mb"] = memStat.Used / 1024 / 1024
	}

	if stats, err := s.marketDB.GetStats(); err == nil {
		resp["market_db"] = stats
	}
	if stats, err := s.snapshotDB.GetStats(); err == nil {
		resp["snapshot_db"] = stats
	}

	s.respondJSON(w, http.StatusOK, resp)
}

// handleMarket reports the market overview.
func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	status, err := s.sim.Status()
	if err != nil {
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, status)
}

// handleIndexCandles returns recent index candles.
func (s *Server) handleIndexCandles(w http.ResponseWriter, r *http.Request) {
	s.serveCandles(w, r, store.IndexSymbol)
}

// handleCompanies lists all companies.
func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.sim.Companies()
	if err != nil {
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, companies)
}

// handleCompany returns one company by symbol.
func (s *Server) handleCompany(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	company, err := s.sim.Company(symbol)
	if err != nil {
		if errors.Is(err, services.ErrNotBootstrapped) {
			s.respondError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, company)
}

// handleCompanyCandles returns recent candles for one symbol.
func (s *Server) handleCompanyCandles(w http.ResponseWriter, r *http.Request) {
	s.serveCandles(w, r, chi.URLParam(r, "symbol"))
}

func (s *Server) serveCandles(w http.ResponseWriter, r *http.Request, symbol string) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 1000 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer up to 1000")
			return
		}
		limit = parsed
	}

	candles, err := s.candles.Recent(symbol, limit)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":  symbol,
		"candles": candles,
	})
}

// handleInvestors lists all investors.
func (s *Server) handleInvestors(w http.ResponseWriter, r *http.Request) {
	investors, err := s.sim.Investors()
	if err != nil {
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, investors)
}

// handleInvestor returns one investor with holdings detail.
func (s *Server) handleInvestor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	investor, err := s.sim.Investor(id)
	if err != nil {
		if errors.Is(err, services.ErrNotBootstrapped) {
			s.respondError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, investor)
}

// handleNews returns recent articles, newest first.
func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 200 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer up to 200")
			return
		}
		limit = parsed
	}

	articles, err := s.sim.Articles(limit)
	if err != nil {
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, articles)
}

// handleSnapshots lists stored snapshot metadata.
func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	snapshots, err := s.snapshots.List()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, snapshots)
}

type advanceRequest struct {
	Seconds int `json:"seconds"`
}

// handleAdvance moves simulated time forward on demand. Defaults to
// the configured advance step when the body omits a duration.
func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	req := advanceRequest{Seconds: s.cfg.AdvanceSeconds}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	if req.Seconds <= 0 || req.Seconds > 365*24*3600 {
		s.respondError(w, http.StatusBadRequest, "seconds must be positive and at most one simulated year")
		return
	}

	reports, err := s.sim.Advance(r.Context(), time.Duration(req.Seconds)*time.Second)
	if err != nil {
		if errors.Is(err, services.ErrNotBootstrapped) {
			s.respondError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		// Partial progress still gets reported on cancellation.
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"days_closed": len(reports),
			"reports":     reports,
			"interrupted": true,
		})
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"days_closed": len(reports),
		"reports":     reports,
	})
}

// handleSnapshot stores a snapshot on demand.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := s.sim.Snapshot()
	if err != nil {
		if errors.Is(err, services.ErrNotBootstrapped) {
			s.respondError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"snapshot_id": id})
}

type playerTradeRequest struct {
	Symbol string `json:"symbol"`
	Shares int    `json:"shares"`
}

// handlePlayerBuy executes a market buy for the human player.
func (s *Server) handlePlayerBuy(w http.ResponseWriter, r *http.Request) {
	s.handlePlayerTrade(w, r, s.sim.PlayerBuy)
}

// handlePlayerSell executes a market sell for the human player.
func (s *Server) handlePlayerSell(w http.ResponseWriter, r *http.Request) {
	s.handlePlayerTrade(w, r, s.sim.PlayerSell)
}

func (s *Server) handlePlayerTrade(w http.ResponseWriter, r *http.Request, trade func(string, int) error) {
	var req playerTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Symbol == "" || req.Shares <= 0 {
		s.respondError(w, http.StatusBadRequest, "symbol and a positive share count are required")
		return
	}

	if err := trade(req.Symbol, req.Shares); err != nil {
		if errors.Is(err, services.ErrNotBootstrapped) {
			s.respondError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": req.Symbol,
		"shares": req.Shares,
	})
}
