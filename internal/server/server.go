// Package server provides the HTTP server and routing for Bourse.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/bourse/internal/config"
	"github.com/aristath/bourse/internal/database"
	"github.com/aristath/bourse/internal/events"
	"github.com/aristath/bourse/internal/services"
	"github.com/aristath/bourse/internal/store"
)

// Config holds everything the HTTP surface needs.
type Config struct {
	Log        zerolog.Logger
	Cfg        *config.Config
	Sim        *services.SimulationService
	Candles    *store.CandleRepository
	Snapshots  *store.SnapshotRepository
	Bus        *events.Bus
	MarketDB   *database.DB
	SnapshotDB *database.DB
}

// Server is the HTTP server. All market data comes from the simulation
// service; the server itself holds no simulation state.
type Server struct {
	router     *chi.Mux
	server     *http.Server
	log        zerolog.Logger
	cfg        *config.Config
	sim        *services.SimulationService
	candles    *store.CandleRepository
	snapshots  *store.SnapshotRepository
	bus        *events.Bus
	marketDB   *database.DB
	snapshotDB *database.DB
	started    time.Time
}

// New creates the HTTP server with middleware and routes configured.
func New(cfg Config) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		log:        cfg.Log.With().Str("component", "server").Logger(),
		cfg:        cfg.Cfg,
		sim:        cfg.Sim,
		candles:    cfg.Candles,
		snapshots:  cfg.Snapshots,
		bus:        cfg.Bus,
		marketDB:   cfg.MarketDB,
		snapshotDB: cfg.SnapshotDB,
		started:    time.Now(),
	}

	s.setupMiddleware(cfg.Cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures the middleware chain.
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Streams skip the global timeout; everything else gets one.
		streamHandler := NewEventsStreamHandler(s.bus, s.log)
		r.Get("/events/stream", streamHandler.ServeHTTP)
		r.Get("/ws", s.handleTickerWS)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/health", s.handleHealth)
			r.Get("/system/status", s.handleSystemStatus)

			r.Get("/market", s.handleMarket)
			r.Get("/market/candles", s.handleIndexCandles)

			r.Route("/companies", func(r chi.Router) {
				r.Get("/", s.handleCompanies)
				r.Get("/{symbol}", s.handleCompany)
				r.Get("/{symbol}/candles", s.handleCompanyCandles)
			})

			r.Route("/investors", func(r chi.Router) {
				r.Get("/", s.handleInvestors)
				r.Get("/{id}", s.handleInvestor)
			})

			r.Get("/news", s.handleNews)
			r.Get("/snapshots", s.handleSnapshots)

			r.Post("/advance", s.handleAdvance)
			r.Post("/snapshot", s.handleSnapshot)

			r.Route("/player", func(r chi.Router) {
				r.Post("/buy", s.handlePlayerBuy)
				r.Post("/sell", s.handlePlayerSell)
			})
		})
	})
}

// Start starts the HTTP server. Blocks until the listener fails or the
// server is shut down.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
