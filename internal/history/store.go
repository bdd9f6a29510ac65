// Package history persists travelers' saved preferences together with the
// prediction they were shown.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/smarttrip/tripcast/internal/metrics"
	"github.com/smarttrip/tripcast/internal/models"
)

// ErrNotFound is returned when a record does not exist or belongs to
// another user
var ErrNotFound = errors.New("travel preference not found")

const schema = `
CREATE TABLE IF NOT EXISTS travel_preferences (
	id                TEXT PRIMARY KEY,
	user_id           TEXT NOT NULL,
	location_type     TEXT NOT NULL,
	preferences       TEXT NOT NULL,
	prediction_result TEXT,
	created_at        TEXT NOT NULL,
	updated_at        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_travel_preferences_user ON travel_preferences (user_id, created_at);
`

// timestamps sort lexically in this layout
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store handles saved preference persistence
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens (creating if needed) the SQLite database at path
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close releases the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Create saves prefs for userID with the prediction shown for them
func (s *Store) Create(ctx context.Context, userID string, prefs models.SavedPreferences, result *models.PredictionResponse) (rec *models.PreferenceRecord, err error) {
	defer func() { recordOperation("create", err) }()

	if prefs.Activities == nil {
		prefs.Activities = []string{}
	}
	if prefs.DestinationType == nil {
		prefs.DestinationType = []string{}
	}

	now := s.now()
	rec = &models.PreferenceRecord{
		ID:               uuid.New().String(),
		UserID:           userID,
		Preferences:      prefs,
		PredictionResult: result,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	prefsJSON, err := json.Marshal(rec.Preferences)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal preferences: %w", err)
	}
	var resultJSON sql.NullString
	if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal prediction result: %w", err)
		}
		resultJSON = sql.NullString{String: string(data), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO travel_preferences (id, user_id, location_type, preferences, prediction_result, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, string(prefs.LocationType), string(prefsJSON), resultJSON,
		now.Format(timeLayout), now.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save travel preference: %w", err)
	}
	return rec, nil
}

// List returns userID's records, newest first
func (s *Store) List(ctx context.Context, userID string) (records []*models.PreferenceRecord, err error) {
	defer func() { recordOperation("list", err) }()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, preferences, prediction_result, created_at, updated_at
		 FROM travel_preferences WHERE user_id = ?
		 ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list travel preferences: %w", err)
	}
	defer rows.Close()

	records = []*models.PreferenceRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Get retrieves a record by ID if it belongs to userID
func (s *Store) Get(ctx context.Context, id, userID string) (rec *models.PreferenceRecord, err error) {
	defer func() { recordOperation("get", err) }()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, preferences, prediction_result, created_at, updated_at
		 FROM travel_preferences WHERE id = ? AND user_id = ?`, id, userID)
	rec, err = scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// Delete removes a record by ID if it belongs to userID
func (s *Store) Delete(ctx context.Context, id, userID string) (err error) {
	defer func() { recordOperation("delete", err) }()

	res, err := s.db.ExecContext(ctx, `DELETE FROM travel_preferences WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete travel preference: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// recordOperation counts a store call; a missing or foreign record is not a
// store failure
func recordOperation(operation string, err error) {
	outcome := metrics.OutcomeSuccess
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = metrics.OutcomeNotFound
	case err != nil:
		outcome = metrics.OutcomeError
	}
	metrics.RecordHistoryOperation(operation, outcome)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*models.PreferenceRecord, error) {
	var (
		rec                  models.PreferenceRecord
		prefsJSON            string
		resultJSON           sql.NullString
		createdAt, updatedAt string
	)
	if err := sc.Scan(&rec.ID, &rec.UserID, &prefsJSON, &resultJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(prefsJSON), &rec.Preferences); err != nil {
		return nil, fmt.Errorf("failed to parse preferences of %s: %w", rec.ID, err)
	}
	if resultJSON.Valid {
		rec.PredictionResult = &models.PredictionResponse{}
		if err := json.Unmarshal([]byte(resultJSON.String), rec.PredictionResult); err != nil {
			return nil, fmt.Errorf("failed to parse prediction result of %s: %w", rec.ID, err)
		}
	}

	var err error
	if rec.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at for %s: %w", rec.ID, err)
	}
	if rec.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("invalid updated_at for %s: %w", rec.ID, err)
	}
	return &rec, nil
}
