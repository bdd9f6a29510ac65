package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/smarttrip/tripcast/internal/features"
	"github.com/smarttrip/tripcast/internal/logging"
	"github.com/smarttrip/tripcast/internal/models"
	"github.com/smarttrip/tripcast/internal/validation"
)

// predictRequest is the wire form of models.PreferenceRequest. Budget and
// duration are pointers so a missing field can be told apart from "".
type predictRequest struct {
	Activities      []string `json:"activities" validate:"required,max=50,dive,max=100"`
	Budget          *string  `json:"budget" validate:"required,max=100"`
	DestinationType []string `json:"destinationType" validate:"required,max=50,dive,max=100"`
	Duration        *string  `json:"duration" validate:"required,max=100"`
}

func (p predictRequest) toModel() models.PreferenceRequest {
	return models.PreferenceRequest{
		Activities:      p.Activities,
		Budget:          *p.Budget,
		DestinationType: p.DestinationType,
		Duration:        *p.Duration,
	}
}

// handlePredict ranks destinations for the posted preferences
func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	p, err := h.registry.Get(mux.Vars(r)["variant"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	var body predictRequest
	if err := decodeBody(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if verr := validation.ValidateStruct(&body); verr != nil {
		respondValidationError(w, verr)
		return
	}

	res, err := p.Predict(r.Context(), body.toModel())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("variant", p.Name()).Msg("Prediction failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, res.Response())
}

type schemaResponse struct {
	Variant      string                     `json:"variant"`
	Route        string                     `json:"route"`
	Enrich       bool                       `json:"enrich"`
	ModelVersion string                     `json:"model_version,omitempty"`
	Columns      []string                   `json:"columns"`
	Classes      int                        `json:"classes"`
	Vocabulary   features.Vocabulary        `json:"vocabulary"`
	Check        *features.VocabularyReport `json:"check"`
}

// handleSchema describes the feature columns a variant was trained on and
// how the configured vocabulary maps onto them
func (h *Handler) handleSchema(w http.ResponseWriter, r *http.Request) {
	p, err := h.registry.Get(mux.Vars(r)["variant"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, schemaResponse{
		Variant:      p.Name(),
		Route:        p.Route(),
		Enrich:       p.Enriches(),
		ModelVersion: p.Manifest().Version,
		Columns:      p.Schema().Columns(),
		Classes:      p.Classes(),
		Vocabulary:   p.Vocabulary(),
		Check:        p.VocabularyReport(),
	})
}
