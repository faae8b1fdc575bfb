package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/text/language"

	"github.com/fortuna/matchboard/internal/logger"
	"github.com/fortuna/matchboard/internal/service"
	"github.com/fortuna/matchboard/internal/store"
)

// Options tunes request defaults
type Options struct {
	DefaultLang  language.Tag
	TableMaxRows int
	Version      string
}

// Server represents the REST API server
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
	router  *mux.Router
}

// NewServer creates a new REST API server
func NewServer(port string, db *store.Database, dashboard *service.DashboardService, opts Options, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	log = log.With(logger.M{"component": "rest"})

	handler := NewHandler(db, dashboard, opts, log)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware(log))
	router.Use(LoggingMiddleware(log))
	router.Use(CORSMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods(http.MethodGet)

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Dropdown options
	api.HandleFunc("/leagues", handler.GetLeagues).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/seasons", handler.GetSeasons).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/players/search", handler.SearchPlayers).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/players", handler.GetPlayers).Methods(http.MethodGet, http.MethodOptions)

	// Selection results
	api.HandleFunc("/matches/table", handler.GetMatchesTable).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/matches", handler.GetMatches).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/summary", handler.GetSummary).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/chart", handler.GetChart).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/dashboard", handler.GetDashboard).Methods(http.MethodGet, http.MethodOptions)

	return &Server{
		port:    port,
		handler: handler,
		router:  router,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%s", port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
		},
	}
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
