package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveIterationIncrementsCounters(t *testing.T) {
	r := New()
	r.ObserveIteration("success", false, 5*time.Millisecond)
	r.ObserveIteration("Timeout", true, 20*time.Millisecond)

	if got := testutil.ToFloat64(r.Iterations.WithLabelValues("success")); got != 1 {
		t.Errorf("iterations[success] = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.Divergences.WithLabelValues("Timeout")); got != 1 {
		t.Errorf("divergences[Timeout] = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.Divergences.WithLabelValues("success")); got != 0 {
		t.Errorf("divergences[success] = %v, want 0 (not diverged)", got)
	}
}

func TestHandlerExposesRegisteredSeries(t *testing.T) {
	r := New()
	r.ObserveIteration("success", false, time.Millisecond)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !strings.Contains(string(data), "fit_iterations_total") {
		t.Fatalf("expected fit_iterations_total in exposition output, got %q", string(data))
	}
}
