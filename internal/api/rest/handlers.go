package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"golang.org/x/text/language"

	"github.com/fortuna/matchboard/internal/logger"
	"github.com/fortuna/matchboard/internal/service"
	"github.com/fortuna/matchboard/internal/store"
)

const defaultTableMaxRows = 50

// Handler contains dependencies for HTTP handlers
type Handler struct {
	db        *store.Database
	dashboard *service.DashboardService
	opts      Options
	log       *logger.Logger
}

// NewHandler creates a new handler
func NewHandler(db *store.Database, dashboard *service.DashboardService, opts Options, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Discard()
	}
	if opts.TableMaxRows <= 0 {
		opts.TableMaxRows = defaultTableMaxRows
	}
	if opts.DefaultLang == language.Und {
		opts.DefaultLang = language.English
	}

	return &Handler{
		db:        db,
		dashboard: dashboard,
		opts:      opts,
		log:       log,
	}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.HealthCheck(r.Context()); err != nil {
			respondError(w, http.StatusServiceUnavailable, "Results store unavailable", err)
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "matchboard",
		"schema":  h.dashboard.Schema().Name,
		"version": h.opts.Version,
	})
}

// GetLeagues returns the league dropdown
func (h *Handler) GetLeagues(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"leagues": h.dashboard.LeagueOptions(r.Context()),
	})
}

// GetSeasons returns the seasons of ?league
func (h *Handler) GetSeasons(w http.ResponseWriter, r *http.Request) {
	sel := selectionFrom(r)

	respondJSON(w, http.StatusOK, map[string]any{
		"seasons": h.dashboard.SeasonOptions(r.Context(), sel.League),
	})
}

// GetPlayers returns the players or teams of ?league and ?season
func (h *Handler) GetPlayers(w http.ResponseWriter, r *http.Request) {
	sel := selectionFrom(r)

	respondJSON(w, http.StatusOK, map[string]any{
		"players": h.dashboard.PlayerOptions(r.Context(), sel.League, sel.Season),
	})
}

// SearchPlayers ranks the players of ?league and ?season against ?q
func (h *Handler) SearchPlayers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "Missing query parameter 'q'", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"players": h.dashboard.SearchPlayers(r.Context(), selectionFrom(r), query),
	})
}

// GetMatches returns the match listing of the selection as JSON
func (h *Handler) GetMatches(w http.ResponseWriter, r *http.Request) {
	table := h.dashboard.Table(r.Context(), selectionFrom(r), h.language(r))
	respondJSON(w, http.StatusOK, table)
}

// GetMatchesTable renders the match listing of the selection as an HTML table
func (h *Handler) GetMatchesTable(w http.ResponseWriter, r *http.Request) {
	maxRows := h.opts.TableMaxRows
	if raw := r.URL.Query().Get("max_rows"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid max_rows. Use a positive integer", err)
			return
		}
		maxRows = n
	}

	table := h.dashboard.Table(r.Context(), selectionFrom(r), h.language(r))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := RenderTable(w, table, maxRows); err != nil {
		// headers are out, so the client only sees a truncated table
		h.log.Error("render matches table failed", logger.M{"path": r.URL.Path, "err": err})
	}
}

// GetSummary returns the season tally of the selection
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.dashboard.Summary(r.Context(), selectionFrom(r)))
}

// GetChart returns the season chart of the selection
func (h *Handler) GetChart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.dashboard.Chart(r.Context(), selectionFrom(r)))
}

// GetDashboard returns the whole dashboard view of the selection
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.dashboard.View(r.Context(), selectionFrom(r), h.language(r)))
}

// language resolves ?lang, then Accept-Language, then the configured default.
func (h *Handler) language(r *http.Request) language.Tag {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return service.MatchLanguage(lang, h.opts.DefaultLang)
	}
	return service.MatchLanguage(r.Header.Get("Accept-Language"), h.opts.DefaultLang)
}

// selectionFrom reads the league, season and player query parameters.
// A lower field without its parents is dropped, as the dashboard cascade would.
func selectionFrom(r *http.Request) service.Selection {
	q := r.URL.Query()

	sel := service.Selection{League: q.Get("league")}
	if sel.League == "" {
		return sel
	}
	sel.Season = q.Get("season")
	if sel.Season == "" {
		return sel
	}
	sel.Player = q.Get("player")
	return sel
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]any{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	respondJSON(w, status, response)
}
