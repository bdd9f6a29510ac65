package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/smarttrip/tripcast/internal/history"
	"github.com/smarttrip/tripcast/internal/logging"
	"github.com/smarttrip/tripcast/internal/models"
	"github.com/smarttrip/tripcast/internal/validation"
)

// UserIDHeader identifies the caller for saved preferences. Authentication
// happens upstream.
const UserIDHeader = "X-User-ID"

type savedPreferencesBody struct {
	LocationType    string   `json:"locationType" validate:"required,oneof=india worldwide"`
	DestinationType []string `json:"destinationType" validate:"max=50,dive,max=100"`
	Budget          string   `json:"budget" validate:"max=100"`
	Duration        string   `json:"duration" validate:"max=100"`
	Activities      []string `json:"activities" validate:"max=50,dive,max=100"`
}

type createPreferenceRequest struct {
	Preferences      savedPreferencesBody       `json:"preferences"`
	PredictionResult *models.PredictionResponse `json:"predictionResult"`
}

// userID returns the caller or writes a 401
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if id == "" {
		respondError(w, http.StatusUnauthorized, "missing "+UserIDHeader+" header")
		return "", false
	}
	return id, true
}

// preferenceStore returns the store or writes a 503
func (h *Handler) preferenceStore(w http.ResponseWriter) (PreferenceStore, bool) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "preference history is disabled")
		return nil, false
	}
	return h.store, true
}

func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, history.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Travel preference not found or unauthorized")
		return
	}
	logging.Ctx(r.Context()).Error().Err(err).Msg("Preference store failed")
	respondError(w, http.StatusInternalServerError, err.Error())
}

// handleCreatePreference saves preferences and the prediction shown for them
func (h *Handler) handleCreatePreference(w http.ResponseWriter, r *http.Request) {
	store, ok := h.preferenceStore(w)
	if !ok {
		return
	}
	user, ok := userID(w, r)
	if !ok {
		return
	}

	var body createPreferenceRequest
	if err := decodeBody(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if verr := validation.ValidateStruct(&body); verr != nil {
		respondValidationError(w, verr)
		return
	}

	prefs := models.SavedPreferences{
		LocationType:    models.LocationType(body.Preferences.LocationType),
		DestinationType: body.Preferences.DestinationType,
		Budget:          body.Preferences.Budget,
		Duration:        body.Preferences.Duration,
		Activities:      body.Preferences.Activities,
	}
	rec, err := store.Create(r.Context(), user, prefs, body.PredictionResult)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

// handleListPreferences returns the caller's saved preferences, newest first
func (h *Handler) handleListPreferences(w http.ResponseWriter, r *http.Request) {
	store, ok := h.preferenceStore(w)
	if !ok {
		return
	}
	user, ok := userID(w, r)
	if !ok {
		return
	}

	records, err := store.List(r.Context(), user)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(records),
		"data":  records,
	})
}

// handleGetPreference returns one of the caller's saved preferences
func (h *Handler) handleGetPreference(w http.ResponseWriter, r *http.Request) {
	store, ok := h.preferenceStore(w)
	if !ok {
		return
	}
	user, ok := userID(w, r)
	if !ok {
		return
	}

	rec, err := store.Get(r.Context(), mux.Vars(r)["id"], user)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// handleDeletePreference removes one of the caller's saved preferences
func (h *Handler) handleDeletePreference(w http.ResponseWriter, r *http.Request) {
	store, ok := h.preferenceStore(w)
	if !ok {
		return
	}
	user, ok := userID(w, r)
	if !ok {
		return
	}

	if err := store.Delete(r.Context(), mux.Vars(r)["id"], user); err != nil {
		h.storeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Travel preference deleted successfully"})
}
