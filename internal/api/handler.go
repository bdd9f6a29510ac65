package api

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/smarttrip/tripcast/internal/config"
	"github.com/smarttrip/tripcast/internal/logging"
	"github.com/smarttrip/tripcast/internal/models"
	"github.com/smarttrip/tripcast/internal/predict"
	"github.com/smarttrip/tripcast/internal/validation"
)

// WelcomeMessage is returned by the root endpoint
const WelcomeMessage = "Welcome to the Smart Trip Planner API"

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

// PreferenceStore persists saved preferences; *history.Store implements it
type PreferenceStore interface {
	Create(ctx context.Context, userID string, prefs models.SavedPreferences, result *models.PredictionResponse) (*models.PreferenceRecord, error)
	List(ctx context.Context, userID string) ([]*models.PreferenceRecord, error)
	Get(ctx context.Context, id, userID string) (*models.PreferenceRecord, error)
	Delete(ctx context.Context, id, userID string) error
}

// Handler provides HTTP API endpoints
type Handler struct {
	registry *predict.Registry
	store    PreferenceStore
	cfg      *config.Config
}

// NewHandler creates a new API handler. store may be nil when preference
// history is disabled.
func NewHandler(registry *predict.Registry, store PreferenceStore, cfg *config.Config) *Handler {
	return &Handler{
		registry: registry,
		store:    store,
		cfg:      cfg,
	}
}

// RegisterRoutes sets up all API routes on a router mounted at /api
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Health and info
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
	r.HandleFunc("/info", h.handleInfo).Methods("GET")

	// Predictions
	r.HandleFunc("/predict/{variant}", h.handlePredict).Methods("POST")
	r.HandleFunc("/predict/{variant}/schema", h.handleSchema).Methods("GET")

	// Saved preferences
	r.HandleFunc("/preferences", h.handleCreatePreference).Methods("POST")
	r.HandleFunc("/preferences", h.handleListPreferences).Methods("GET")
	r.HandleFunc("/preferences/{id}", h.handleGetPreference).Methods("GET")
	r.HandleFunc("/preferences/{id}", h.handleDeletePreference).Methods("DELETE")
}

// HandleWelcome serves the root endpoint
func (h *Handler) HandleWelcome(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": WelcomeMessage})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Error().Err(err).Msg("Error encoding response")
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondValidationError sends a 422 with the failing fields
func respondValidationError(w http.ResponseWriter, verr *validation.RequestValidationError) {
	respondJSON(w, http.StatusUnprocessableEntity, verr.ToAPIError())
}

// decodeBody reads a JSON body into v, bounded by maxBodyBytes
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// handleHealth returns server health status
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"variants": h.registry.Len(),
	})
}

type variantInfo struct {
	Name         string `json:"name"`
	Route        string `json:"route"`
	Enrich       bool   `json:"enrich"`
	ModelVersion string `json:"model_version,omitempty"`
	Columns      int    `json:"columns"`
	Classes      int    `json:"classes"`
}

// handleInfo returns server information
func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	variants := make([]variantInfo, 0, h.registry.Len())
	for _, p := range h.registry.All() {
		variants = append(variants, variantInfo{
			Name:         p.Name(),
			Route:        p.Route(),
			Enrich:       p.Enriches(),
			ModelVersion: p.Manifest().Version,
			Columns:      p.Schema().Width(),
			Classes:      p.Classes(),
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"version":         h.cfg.Version,
		"variants":        variants,
		"history_enabled": h.store != nil,
	})
}
