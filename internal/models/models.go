package models

import "time"

// PreferenceRequest is a traveler's trip preferences. Values that do not
// match a trained feature column are ignored rather than rejected.
type PreferenceRequest struct {
	Activities      []string `json:"activities"`
	Budget          string   `json:"budget"`
	DestinationType []string `json:"destinationType"`
	Duration        string   `json:"duration"`
}

// PredictionEntry is one ranked destination
type PredictionEntry struct {
	Destination string  `json:"destination"`
	Confidence  float64 `json:"confidence"`
}

// DestinationInfo is a free-form description of a destination
// (best time to visit, attractions, cost, languages)
type DestinationInfo map[string]any

// PredictionResponse is returned by the predict endpoints. DestinationInfo is
// nil for variants without enrichment and omitted from the JSON.
type PredictionResponse struct {
	PredictedDestination    string            `json:"predicted_destination"`
	ConfidenceScore         float64           `json:"confidence_score"`
	AlternativeDestinations []PredictionEntry `json:"alternative_destinations"`
	DestinationInfo         *DestinationInfo  `json:"destination_info,omitempty"`
}

// LocationType scopes a saved preference to a prediction variant
type LocationType string

const (
	LocationIndia     LocationType = "india"
	LocationWorldwide LocationType = "worldwide"
)

// SavedPreferences is the preference part of a saved record
type SavedPreferences struct {
	LocationType    LocationType `json:"locationType"`
	DestinationType []string     `json:"destinationType"`
	Budget          string       `json:"budget"`
	Duration        string       `json:"duration"`
	Activities      []string     `json:"activities"`
}

// PreferenceRecord is a saved set of preferences with the prediction that
// was shown for them
type PreferenceRecord struct {
	ID               string              `json:"id"`
	UserID           string              `json:"userId"`
	Preferences      SavedPreferences    `json:"preferences"`
	PredictionResult *PredictionResponse `json:"predictionResult,omitempty"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}
