package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordPrediction(t *testing.T) {
	before := testutil.ToFloat64(PredictionsTotal.WithLabelValues("india", OutcomeSuccess))
	beforeErr := testutil.ToFloat64(PredictionsTotal.WithLabelValues("india", OutcomeError))

	RecordPrediction("india", 2*time.Millisecond, nil)
	RecordPrediction("india", time.Millisecond, errors.New("boom"))

	if got := testutil.ToFloat64(PredictionsTotal.WithLabelValues("india", OutcomeSuccess)); got != before+1 {
		t.Errorf("success count = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(PredictionsTotal.WithLabelValues("india", OutcomeError)); got != beforeErr+1 {
		t.Errorf("error count = %v, want %v", got, beforeErr+1)
	}
}

func TestRecordIgnoredValues(t *testing.T) {
	c := IgnoredPreferenceValues.WithLabelValues("not_india", "budget")
	before := testutil.ToFloat64(c)

	RecordIgnoredValues("not_india", "budget", 0)
	RecordIgnoredValues("not_india", "budget", 2)

	if got := testutil.ToFloat64(c); got != before+2 {
		t.Errorf("ignored count = %v, want %v", got, before+2)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	c := APIRequestsTotal.WithLabelValues("POST", "/api/predict/{variant}", "200")
	before := testutil.ToFloat64(c)

	RecordAPIRequest("POST", "/api/predict/{variant}", "200", 5*time.Millisecond)

	if got := testutil.ToFloat64(c); got != before+1 {
		t.Errorf("request count = %v, want %v", got, before+1)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("active = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active = %v, want %v", got, before)
	}
}

func TestSetModelInfo(t *testing.T) {
	SetModelInfo("india", "2024.06", 40, 25)
	if got := testutil.ToFloat64(ModelInfo.WithLabelValues("india", "2024.06", "40", "25")); got != 1 {
		t.Errorf("model_info = %v, want 1", got)
	}
}
