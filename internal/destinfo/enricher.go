package destinfo

import (
	"slices"
	"strings"

	"github.com/smarttrip/tripcast/internal/models"
)

// Source tells where an enrichment record came from
type Source string

const (
	SourceTable    Source = "table"
	SourceFallback Source = "fallback"
	SourceNone     Source = "none"
)

// Fallback record keys
const (
	KeyBestTime     = "best_time"
	KeyPopularSpots = "popular_spots"
	KeyAvgCost      = "avg_cost"
	KeyLanguage     = "language"
)

// Enricher attaches descriptions to predicted destinations
type Enricher struct {
	table Table
}

// NewEnricher wraps table; a nil table behaves as empty
func NewEnricher(table Table) *Enricher {
	if table == nil {
		table = MapTable{}
	}
	return &Enricher{table: table}
}

// Table returns the backing table
func (e *Enricher) Table() Table {
	return e.table
}

// Enrich describes the destination name for a traveler with prefs. It never
// fails: unknown destinations get a rule-based record and an empty name gets
// an empty record.
func (e *Enricher) Enrich(name string, prefs models.PreferenceRequest) models.DestinationInfo {
	info, _ := e.Resolve(name, prefs)
	return info
}

// Resolve is Enrich that also reports where the record came from
func (e *Enricher) Resolve(name string, prefs models.PreferenceRequest) (models.DestinationInfo, Source) {
	if info, ok := e.table.Lookup(name); ok && len(info) > 0 {
		return info, SourceTable
	}
	if name == "" {
		return models.DestinationInfo{}, SourceNone
	}
	return models.DestinationInfo{
		KeyBestTime:     BestTime(prefs.DestinationType),
		KeyPopularSpots: "Top attractions in " + name,
		KeyAvgCost:      AverageCost(prefs.Budget),
		KeyLanguage:     Language(name),
	}, SourceFallback
}

// BestTime suggests a travel season from the requested destination types
func BestTime(destinationTypes []string) string {
	switch {
	case slices.Contains(destinationTypes, "Beach"):
		return "November to March"
	case slices.Contains(destinationTypes, "Mountain"):
		return "March to June, September to November"
	case slices.Contains(destinationTypes, "Heritage"):
		return "October to March"
	default:
		return "October to March (peak season)"
	}
}

var dailyCost = map[string]string{
	"Low":    "₹1,500 - ₹3,000 per day",
	"Medium": "₹3,000 - ₹7,000 per day",
	"High":   "₹7,000+ per day",
}

// AverageCost estimates daily spend for a budget tier
func AverageCost(budget string) string {
	if c, ok := dailyCost[budget]; ok {
		return c
	}
	return "Varies by season"
}

// regional language groups, checked in order
var regions = []struct {
	cities   []string
	language string
}{
	{[]string{"Delhi", "Agra", "Jaipur", "Shimla", "Manali"}, "Hindi, English"},
	{[]string{"Bangalore", "Chennai", "Hyderabad", "Kochi"}, "Tamil, Telugu, Kannada, Malayalam, English"},
	{[]string{"Mumbai", "Goa", "Pune"}, "Marathi, Konkani, Hindi, English"},
	{[]string{"Kolkata", "Darjeeling", "Gangtok"}, "Bengali, Nepali, Hindi, English"},
}

// Language guesses the languages spoken at a destination from the city
// names it contains
func Language(destination string) string {
	for _, r := range regions {
		for _, city := range r.cities {
			if strings.Contains(destination, city) {
				return r.language
			}
		}
	}
	return "Hindi, English, Local languages"
}
