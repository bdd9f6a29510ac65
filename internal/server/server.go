package server

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smarttrip/tripcast/internal/api"
	"github.com/smarttrip/tripcast/internal/config"
	"github.com/smarttrip/tripcast/internal/predict"
)

// Server holds all the components for the web application
type Server struct {
	cfg        *config.Config
	httpServer *http.Server
	router     *mux.Router
	handler    http.Handler
	registry   *predict.Registry
	store      api.PreferenceStore
}

// New creates a new Server with all routes and middleware wired. store may
// be nil when preference history is disabled.
func New(cfg *config.Config, registry *predict.Registry, store api.PreferenceStore) *Server {
	s := &Server{
		cfg:      cfg,
		router:   mux.NewRouter(),
		registry: registry,
		store:    store,
	}

	s.setupRoutes()

	// Outer middleware wraps the router so it also runs for unmatched
	// routes, which CORS preflight requests usually are.
	var h http.Handler = s.router
	h = corsMiddleware(cfg.CORS)(h)
	h = logRequests(h)
	h = recoverer(h)
	h = requestID(h)
	s.handler = h

	s.httpServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(instrument)

	apiHandler := api.NewHandler(s.registry, s.store, s.cfg)

	s.router.HandleFunc("/", apiHandler.HandleWelcome).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// API routes
	apiRouter := s.router.PathPrefix("/api").Subrouter()
	apiRouter.Use(rateLimit(s.cfg.RateLimit))
	apiHandler.RegisterRoutes(apiRouter)
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// HTTPServer returns the configured listener for supervision
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Close releases the preference store, if it holds resources
func (s *Server) Close() error {
	if c, ok := s.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
