// Package server exposes the Lightning chat over HTTP for the web widget:
// session control, polled messages, direct research, and the prospect export.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/background"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/bus"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/flow"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/research"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/session"
)

// Config holds server settings.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
}

// Server is the Lightning HTTP surface.
type Server struct {
	cfg        Config
	store      session.Store
	flow       *flow.Manager
	orch       *research.Orchestrator
	coord      *background.Coordinator
	leads      flow.LeadsGenerator
	emitter    *bus.Emitter
	log        *messageLog
	router     chi.Router
	httpServer *http.Server
}

// New creates the server and starts recording chat messages for polling.
func New(cfg Config, store session.Store, mgr *flow.Manager, orch *research.Orchestrator, coord *background.Coordinator, gen flow.LeadsGenerator, emitter *bus.Emitter) *Server {
	s := &Server{
		cfg:     cfg,
		store:   store,
		flow:    mgr,
		orch:    orch,
		coord:   coord,
		leads:   gen,
		emitter: emitter,
		log:     newMessageLog(emitter),
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/health", s.handleHealth)
	r.Post("/research", s.handleResearch)
	r.Post("/company-summary", s.handleCompanySummary)
	r.Post("/leads", s.handleLeadsGenerate)
	r.Post("/save-target-audience", s.handleSaveTargetAudience)
	r.Post("/session/start", s.handleSessionStart)
	r.Post("/session/respond", s.handleSessionRespond)
	r.Get("/session/{scope}/messages", s.handleMessages)
	r.Get("/session/{scope}/summary", s.handleSummary)
	r.Get("/session/{scope}/leads.xlsx", s.handleLeadsExport)
	r.Get("/sessions", s.handleSessions)

	return r
}

// Router returns the chi router, for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server and the message recorder.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.stop()
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
