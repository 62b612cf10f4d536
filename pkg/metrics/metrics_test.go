package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry(reg)

	m.RecordRun("wcc", "success", 25*time.Millisecond, 7, 1000)
	m.RecordRun("wcc", "success", 30*time.Millisecond, 9, 1000)
	m.RecordRun("louvain", "error", time.Millisecond, 0, 0)

	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("wcc", "success")); got != 2 {
		t.Fatalf("wcc success count = %f, want 2", got)
	}
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("louvain", "error")); got != 1 {
		t.Fatalf("louvain error count = %f, want 1", got)
	}

	// Duration histograms only observe successful runs.
	if got := testutil.CollectAndCount(m.RunDuration); got != 1 {
		t.Fatalf("duration metric families = %d, want 1 (wcc only)", got)
	}
}

func TestRunStartedTracksActiveRuns(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry(reg)

	done1 := m.RunStarted()
	done2 := m.RunStarted()
	if got := testutil.ToFloat64(m.ActiveRuns); got != 2 {
		t.Fatalf("active = %f, want 2", got)
	}

	done1()
	done2()
	if got := testutil.ToFloat64(m.ActiveRuns); got != 0 {
		t.Fatalf("active = %f, want 0", got)
	}
}

func TestCollectorsRegister(t *testing.T) {
	// Registering twice on the same registry must panic via promauto; a fresh
	// registry per registry instance must not.
	reg := prometheus.NewRegistry()
	NewRegistry(reg)

	defer func() {
		if recover() == nil {
			t.Fatal("expected duplicate registration to panic")
		}
	}()
	NewRegistry(reg)
}
