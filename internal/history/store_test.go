package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/smarttrip/tripcast/internal/metrics"
	"github.com/smarttrip/tripcast/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "history.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// fixedClock returns successive timestamps one second apart
func fixedClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(time.Second)
		return now
	}
}

func indiaPrefs() models.SavedPreferences {
	return models.SavedPreferences{
		LocationType:    models.LocationIndia,
		DestinationType: []string{"Mountains"},
		Budget:          "Medium",
		Duration:        "4-5 days",
		Activities:      []string{"Hiking"},
	}
}

func TestCreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	result := &models.PredictionResponse{
		PredictedDestination:    "Manali",
		ConfidenceScore:         0.72,
		AlternativeDestinations: []models.PredictionEntry{{Destination: "Shimla", Confidence: 0.2}},
	}
	created, err := s.Create(ctx, "user-1", indiaPrefs(), result)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" {
		t.Error("Expected an ID to be assigned")
	}
	if created.CreatedAt.IsZero() || !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Errorf("Unexpected timestamps %v / %v", created.CreatedAt, created.UpdatedAt)
	}

	got, err := s.Get(ctx, created.ID, "user-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Preferences.LocationType != models.LocationIndia || got.Preferences.Budget != "Medium" {
		t.Errorf("Unexpected preferences %+v", got.Preferences)
	}
	if got.PredictionResult == nil || got.PredictionResult.PredictedDestination != "Manali" {
		t.Errorf("Unexpected prediction result %+v", got.PredictionResult)
	}
	if len(got.PredictionResult.AlternativeDestinations) != 1 {
		t.Errorf("Expected one alternative, got %d", len(got.PredictionResult.AlternativeDestinations))
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt round trip: got %v, want %v", got.CreatedAt, created.CreatedAt)
	}
}

func TestCreateWithoutPrediction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	prefs := models.SavedPreferences{LocationType: models.LocationWorldwide}
	created, err := s.Create(ctx, "user-1", prefs, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := s.Get(ctx, created.ID, "user-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.PredictionResult != nil {
		t.Errorf("Expected no prediction result, got %+v", got.PredictionResult)
	}
	if got.Preferences.Activities == nil || got.Preferences.DestinationType == nil {
		t.Error("Expected empty lists rather than nil")
	}
}

func TestListNewestFirstAndScopedToUser(t *testing.T) {
	s := newTestStore(t)
	s.now = fixedClock(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		rec, err := s.Create(ctx, "user-1", indiaPrefs(), nil)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		ids = append(ids, rec.ID)
	}
	if _, err := s.Create(ctx, "user-2", indiaPrefs(), nil); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	records, err := s.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	for i, want := range []string{ids[2], ids[1], ids[0]} {
		if records[i].ID != want {
			t.Errorf("records[%d] = %s, want %s", i, records[i].ID, want)
		}
	}

	empty, err := s.List(ctx, "nobody")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("Expected empty non-nil list, got %v", empty)
	}
}

func TestGetOtherUsersRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Create(ctx, "owner", indiaPrefs(), nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := s.Get(ctx, rec.ID, "intruder"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := s.Get(ctx, "missing", "owner"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Create(ctx, "owner", indiaPrefs(), nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := s.Delete(ctx, rec.ID, "intruder"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting another user's record, got %v", err)
	}
	if err := s.Delete(ctx, rec.ID, "owner"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, rec.ID, "owner"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, rec.ID, "owner"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestNotFoundCountedSeparatelyFromErrors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Create(ctx, "owner", indiaPrefs(), nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	count := func(op, outcome string) float64 {
		return testutil.ToFloat64(metrics.HistoryOperations.WithLabelValues(op, outcome))
	}
	getNotFound, getErr := count("get", metrics.OutcomeNotFound), count("get", metrics.OutcomeError)
	delNotFound, delErr := count("delete", metrics.OutcomeNotFound), count("delete", metrics.OutcomeError)

	s.Get(ctx, rec.ID, "intruder")
	s.Delete(ctx, rec.ID, "intruder")

	if got := count("get", metrics.OutcomeNotFound); got != getNotFound+1 {
		t.Errorf("Expected get not_found to increase by 1, got %v -> %v", getNotFound, got)
	}
	if got := count("delete", metrics.OutcomeNotFound); got != delNotFound+1 {
		t.Errorf("Expected delete not_found to increase by 1, got %v -> %v", delNotFound, got)
	}
	if got := count("get", metrics.OutcomeError); got != getErr {
		t.Errorf("Expected get error count unchanged, got %v -> %v", getErr, got)
	}
	if got := count("delete", metrics.OutcomeError); got != delErr {
		t.Errorf("Expected delete error count unchanged, got %v -> %v", delErr, got)
	}
}

func TestReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	rec, err := s.Create(ctx, "user-1", indiaPrefs(), nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	s.Close()

	s2, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore reopen failed: %v", err)
	}
	defer s2.Close()

	if _, err := s2.Get(ctx, rec.ID, "user-1"); err != nil {
		t.Errorf("Expected record after reopen: %v", err)
	}
}
