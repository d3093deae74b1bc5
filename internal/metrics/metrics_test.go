package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordModelCall(t *testing.T) {
	before := testutil.ToFloat64(modelCalls.WithLabelValues("test", "error"))
	RecordModelCall("test", 10*time.Millisecond, errors.New("boom"))
	after := testutil.ToFloat64(modelCalls.WithLabelValues("test", "error"))
	if after-before != 1 {
		t.Errorf("expected error counter to increase by 1, got %v", after-before)
	}
}

func TestRecordRejectedTransition(t *testing.T) {
	before := testutil.ToFloat64(rejectedTransitions.WithLabelValues("OPENING", "COMPLETE"))
	RecordRejectedTransition("OPENING", "COMPLETE")
	if got := testutil.ToFloat64(rejectedTransitions.WithLabelValues("OPENING", "COMPLETE")); got-before != 1 {
		t.Errorf("expected counter to increase by 1, got %v", got-before)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordParseFailure("schema")
	RecordFallback()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{"brand_discovery_flow_parse_failures_total", "brand_discovery_flow_fallback_responses_total"} {
		if !strings.Contains(body, name) {
			t.Errorf("expected %s in metrics output", name)
		}
	}
}
