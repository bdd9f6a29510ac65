// Package destinfo describes predicted destinations: best time to visit,
// attractions, cost and languages. Descriptions come from a curated table
// shipped with the model bundle, with rule-based fallbacks for destinations
// the table does not cover.
package destinfo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/smarttrip/tripcast/internal/logging"
	"github.com/smarttrip/tripcast/internal/models"
)

// Table looks up curated destination descriptions by exact name
type Table interface {
	Lookup(name string) (models.DestinationInfo, bool)
	Len() int
}

// MapTable is an in-memory Table. It must not be modified once shared.
type MapTable map[string]models.DestinationInfo

// Lookup returns the record for name
func (t MapTable) Lookup(name string) (models.DestinationInfo, bool) {
	info, ok := t[name]
	return info, ok
}

// Len is the number of records
func (t MapTable) Len() int {
	return len(t)
}

// LoadJSON reads a table stored as a JSON object of name to record
func LoadJSON(path string) (MapTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t := make(MapTable)
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return t, nil
}

// LoadTable reads a JSON (.json) or SQLite (.db, .sqlite) table
func LoadTable(path string) (MapTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadJSON(path)
	case ".db", ".sqlite", ".sqlite3":
		return LoadSQLite(path)
	default:
		return nil, fmt.Errorf("unsupported destination info format: %s", path)
	}
}

// LoadOrEmpty loads the table at path. A missing or unreadable table is
// logged and replaced by an empty one, since enrichment is best effort.
func LoadOrEmpty(path string) Table {
	if path == "" {
		logging.Warn().Msg("No destination info table configured, using fallbacks only")
		return MapTable{}
	}
	t, err := LoadTable(path)
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Destination info table unavailable, using fallbacks only")
		return MapTable{}
	}
	logging.Info().Str("path", path).Int("destinations", t.Len()).Msg("Loaded destination info")
	return t
}
