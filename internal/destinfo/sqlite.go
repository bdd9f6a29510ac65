package destinfo

import (
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"

	"github.com/smarttrip/tripcast/internal/models"
)

// TableName is the SQLite table holding destination records. Each row has a
// unique name and a JSON object describing the destination:
//
//	CREATE TABLE destination_info (name TEXT PRIMARY KEY, info TEXT NOT NULL)
const TableName = "destination_info"

// LoadSQLite reads every record of a destination info database into memory
func LoadSQLite(path string) (MapTable, error) {
	db, err := sql.Open("sqlite3", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer db.Close()

	// Verify it's a destination info database
	var count int
	err = db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type IN ('table','view') AND name=?", TableName).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%s has no %s table", path, TableName)
	}

	rows, err := db.Query("SELECT name, info FROM " + TableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", path, err)
	}
	defer rows.Close()

	t := make(MapTable)
	for rows.Next() {
		var name, raw string
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, err
		}
		var info models.DestinationInfo
		if err := json.Unmarshal([]byte(raw), &info); err != nil {
			return nil, fmt.Errorf("invalid info for %q: %w", name, err)
		}
		t[name] = info
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return t, nil
}
