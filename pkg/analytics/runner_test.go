package analytics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dd0wney/cluso-analytics/pkg/config"
	"github.com/dd0wney/cluso-analytics/pkg/logging"
	"github.com/dd0wney/cluso-analytics/pkg/metrics"
	"github.com/dd0wney/cluso-analytics/pkg/projection"
)

func newTestRunner(t *testing.T, opts ...Option) (*Runner, *projection.Catalog) {
	t.Helper()

	catalog := projection.NewCatalog()
	g := buildGraph(t, "social", [][2]uint64{{1, 2}, {2, 3}, {3, 1}, {4, 5}})
	if err := catalog.Register(g); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	runner, err := NewRunner(catalog, config.DefaultConfig(), opts...)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	t.Cleanup(runner.Close)
	return runner, catalog
}

func TestRunnerUnknownGraph(t *testing.T) {
	runner, _ := newTestRunner(t)

	if _, err := runner.RunWCC("missing", WCCOptions{}); !errors.Is(err, projection.ErrGraphNotFound) {
		t.Fatalf("RunWCC: expected ErrGraphNotFound, got %v", err)
	}
	if _, err := runner.RunKCore("missing"); !errors.Is(err, projection.ErrGraphNotFound) {
		t.Fatalf("RunKCore: expected ErrGraphNotFound, got %v", err)
	}
	if _, err := runner.RunLouvain("missing", LouvainOptions{}); !errors.Is(err, projection.ErrGraphNotFound) {
		t.Fatalf("RunLouvain: expected ErrGraphNotFound, got %v", err)
	}
}

func TestRunnerAppliesConfigDefaults(t *testing.T) {
	runner, _ := newTestRunner(t)

	// Zero-valued options take the configured caps instead of failing
	// parameter validation.
	result, err := runner.RunWCC("social", WCCOptions{})
	if err != nil {
		t.Fatalf("RunWCC failed: %v", err)
	}
	if !result.Converged {
		t.Fatal("expected convergence under default cap")
	}

	lres, err := runner.RunLouvain("social", LouvainOptions{})
	if err != nil {
		t.Fatalf("RunLouvain failed: %v", err)
	}
	if !lres.Converged {
		t.Fatal("expected convergence under default caps")
	}
}

func TestRunnerExplicitInvalidOptions(t *testing.T) {
	runner, _ := newTestRunner(t)

	_, err := runner.RunWCC("social", WCCOptions{MaxIterations: -5})
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}

	var aerr *AnalyticsError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected *AnalyticsError, got %T", err)
	}
	if aerr.Algorithm != AlgorithmWCC || aerr.Graph != "social" {
		t.Fatalf("error context = %q/%q, want wcc/social", aerr.Algorithm, aerr.Graph)
	}
}

func TestRunnerAllAlgorithms(t *testing.T) {
	runner, _ := newTestRunner(t, WithLogger(logging.NewNopLogger()))

	wcc, err := runner.RunWCC("social", DefaultWCCOptions())
	if err != nil {
		t.Fatalf("RunWCC failed: %v", err)
	}
	kcore, err := runner.RunKCore("social")
	if err != nil {
		t.Fatalf("RunKCore failed: %v", err)
	}
	louvain, err := runner.RunLouvain("social", DefaultLouvainOptions())
	if err != nil {
		t.Fatalf("RunLouvain failed: %v", err)
	}

	// The graph is a triangle {1,2,3} plus the pair {4,5}.
	if n := distinctValues(wcc.Rows); n != 2 {
		t.Fatalf("WCC components = %d, want 2", n)
	}
	if kcore.MaxCore != 2 {
		t.Fatalf("MaxCore = %d, want 2", kcore.MaxCore)
	}
	if louvain.NumCommunities != 2 {
		t.Fatalf("NumCommunities = %d, want 2", louvain.NumCommunities)
	}
}

func TestRunnerRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewRegistry(reg)
	runner, _ := newTestRunner(t, WithMetrics(m))

	if _, err := runner.RunWCC("social", DefaultWCCOptions()); err != nil {
		t.Fatalf("RunWCC failed: %v", err)
	}
	if _, err := runner.RunWCC("missing", DefaultWCCOptions()); err == nil {
		t.Fatal("expected error for unknown graph")
	}

	success := testutil.ToFloat64(m.RunsTotal.WithLabelValues(AlgorithmWCC, "success"))
	if success != 1 {
		t.Fatalf("success runs = %f, want 1", success)
	}
	// An unknown graph fails before a run starts, so no error sample either.
	errored := testutil.ToFloat64(m.RunsTotal.WithLabelValues(AlgorithmWCC, "error"))
	if errored != 0 {
		t.Fatalf("error runs = %f, want 0", errored)
	}
	active := testutil.ToFloat64(m.ActiveRuns)
	if active != 0 {
		t.Fatalf("active runs = %f, want 0 after completion", active)
	}
}

func TestNewRunnerRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DenseThreshold = 2.0

	if _, err := NewRunner(projection.NewCatalog(), cfg); err == nil {
		t.Fatal("expected config validation error")
	}
}

func distinctValues(rows []Row) int {
	seen := make(map[int64]struct{}, len(rows))
	for _, r := range rows {
		seen[r.Value] = struct{}{}
	}
	return len(seen)
}
