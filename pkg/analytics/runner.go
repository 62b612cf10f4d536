package analytics

import (
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-analytics/pkg/config"
	"github.com/dd0wney/cluso-analytics/pkg/logging"
	"github.com/dd0wney/cluso-analytics/pkg/metrics"
	"github.com/dd0wney/cluso-analytics/pkg/parallel"
	"github.com/dd0wney/cluso-analytics/pkg/projection"
)

// Algorithm names used for logging and metric labels.
const (
	AlgorithmWCC     = "wcc"
	AlgorithmKCore   = "kcore"
	AlgorithmLouvain = "louvain"
)

// Runner executes algorithms against graphs registered in a catalog, on a
// shared worker pool, with per-run logging and metrics. Safe for concurrent
// use.
type Runner struct {
	catalog *projection.Catalog
	cfg     config.Config
	pool    *parallel.WorkerPool
	logger  logging.Logger
	metrics *metrics.Registry
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithMetrics sets the metrics registry runs are recorded to.
func WithMetrics(m *metrics.Registry) Option {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner creates a runner over the given catalog. The configuration
// supplies the worker count and the default iteration caps.
func NewRunner(catalog *projection.Catalog, cfg config.Config, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{
		catalog: catalog,
		cfg:     cfg,
		pool:    parallel.NewWorkerPool(cfg.Workers),
		logger:  logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Close shuts down the runner's worker pool.
func (r *Runner) Close() {
	r.pool.Close()
}

// RunWCC runs weakly connected components on the named graph. Zero-valued
// option fields fall back to the configured defaults.
func (r *Runner) RunWCC(graphName string, opts WCCOptions) (*WCCResult, error) {
	graph, err := r.catalog.Get(graphName)
	if err != nil {
		return nil, err
	}
	if opts.MaxIterations == 0 {
		opts.MaxIterations = r.cfg.WCCMaxIterations
	}
	if opts.DenseThreshold == 0 {
		opts.DenseThreshold = r.cfg.DenseThreshold
	}

	log, finish := r.runStarted(AlgorithmWCC, graphName)
	start := time.Now()

	result, err := WCC(graph, r.pool, opts)
	if err != nil {
		err = &AnalyticsError{Algorithm: AlgorithmWCC, Graph: graphName, Cause: err}
		finish(err, start, 0, 0)
		return nil, err
	}
	finish(nil, start, result.Iterations, len(result.Rows))

	if !result.Converged {
		log.Warn("stopped at iteration cap before convergence",
			logging.Int("max_iterations", opts.MaxIterations))
	}
	return result, nil
}

// RunKCore runs k-core decomposition on the named graph.
func (r *Runner) RunKCore(graphName string) (*KCoreResult, error) {
	graph, err := r.catalog.Get(graphName)
	if err != nil {
		return nil, err
	}

	_, finish := r.runStarted(AlgorithmKCore, graphName)
	start := time.Now()

	result, err := KCore(graph, r.pool)
	if err != nil {
		err = &AnalyticsError{Algorithm: AlgorithmKCore, Graph: graphName, Cause: err}
		finish(err, start, 0, 0)
		return nil, err
	}
	finish(nil, start, result.Rounds, len(result.Rows))
	return result, nil
}

// RunLouvain runs Louvain community detection on the named graph.
// Zero-valued option fields fall back to the configured defaults.
func (r *Runner) RunLouvain(graphName string, opts LouvainOptions) (*LouvainResult, error) {
	graph, err := r.catalog.Get(graphName)
	if err != nil {
		return nil, err
	}
	if opts.MaxPhases == 0 {
		opts.MaxPhases = r.cfg.LouvainMaxPhases
	}
	if opts.MaxIterations == 0 {
		opts.MaxIterations = r.cfg.LouvainMaxIterations
	}

	log, finish := r.runStarted(AlgorithmLouvain, graphName)
	start := time.Now()

	result, err := Louvain(graph, r.pool, opts)
	if err != nil {
		err = &AnalyticsError{Algorithm: AlgorithmLouvain, Graph: graphName, Cause: err}
		finish(err, start, 0, 0)
		return nil, err
	}
	finish(nil, start, result.Phases, len(result.Rows))

	if !result.Converged {
		log.Warn("stopped at phase cap before convergence",
			logging.Int("max_phases", opts.MaxPhases))
	}
	return result, nil
}

// runStarted sets up per-run logging and metrics. The returned finish func
// records the outcome exactly once.
func (r *Runner) runStarted(algorithm, graphName string) (logging.Logger, func(err error, start time.Time, rounds, rows int)) {
	log := r.logger.With(
		logging.RunID(uuid.NewString()),
		logging.Algorithm(algorithm),
		logging.GraphName(graphName),
	)
	log.Debug("algorithm run starting")

	var done func()
	if r.metrics != nil {
		done = r.metrics.RunStarted()
	}

	finish := func(err error, start time.Time, rounds, rows int) {
		elapsed := time.Since(start)
		if done != nil {
			done()
		}
		if err != nil {
			if r.metrics != nil {
				r.metrics.RecordRun(algorithm, "error", elapsed, rounds, rows)
			}
			log.Error("algorithm run failed", logging.Error(err), logging.Latency(elapsed))
			return
		}
		if r.metrics != nil {
			r.metrics.RecordRun(algorithm, "success", elapsed, rounds, rows)
		}
		log.Info("algorithm run complete",
			logging.Rounds(rounds),
			logging.Int("rows", rows),
			logging.Latency(elapsed))
	}
	return log, finish
}
