package frontier

import (
	"github.com/dd0wney/cluso-analytics/pkg/parallel"
	"github.com/dd0wney/cluso-analytics/pkg/projection"
)

// Operator is applied to every active node exactly once per round. It may
// read shared algorithm state through atomics and marks nodes for the next
// round through the accumulator. Operators run concurrently and must not
// block.
type Operator func(node uint32, next *Accumulator)

// Engine drives round-based parallel computation over a projected graph:
// apply the operator to all active nodes, wait for the round barrier, swap in
// the accumulated next frontier, repeat until the frontier is empty or the
// round cap is reached.
type Engine struct {
	graph          *projection.Graph
	pool           *parallel.WorkerPool
	denseThreshold float64
}

// NewEngine creates an engine over the given graph and worker pool.
// A non-positive denseThreshold selects DefaultDenseThreshold.
func NewEngine(graph *projection.Graph, pool *parallel.WorkerPool, denseThreshold float64) *Engine {
	if denseThreshold <= 0 {
		denseThreshold = DefaultDenseThreshold
	}
	return &Engine{
		graph:          graph,
		pool:           pool,
		denseThreshold: denseThreshold,
	}
}

// Graph returns the projected graph the engine runs over.
func (e *Engine) Graph() *projection.Graph { return e.graph }

// Run iterates rounds from the initial frontier until an empty frontier
// (converged) or maxRounds rounds have run (maxRounds <= 0 means no cap).
// The engine takes ownership of the initial frontier. Round effects are fully
// visible before the next round starts.
func (e *Engine) Run(initial *Frontier, maxRounds int, op Operator) (rounds int, converged bool, err error) {
	n := e.graph.NumNodes()
	current := initial

	for {
		if current.IsEmpty() {
			current.Release()
			return rounds, true, nil
		}
		if maxRounds > 0 && rounds >= maxRounds {
			current.Release()
			return rounds, false, nil
		}

		next := NewAccumulator(n)

		if current.IsDense() {
			// Bitmap scan over all nodes guarded by the active check; more
			// cache-friendly than a sparse list at high density.
			err = e.pool.ForRange(n, func(start, end int) {
				for u := start; u < end; u++ {
					if current.Contains(uint32(u)) {
						op(uint32(u), next)
					}
				}
			})
		} else {
			active := current.Nodes()
			err = e.pool.ForRange(len(active), func(start, end int) {
				for _, u := range active[start:end] {
					op(u, next)
				}
			})
		}
		if err != nil {
			current.Release()
			return rounds, false, err
		}

		rounds++
		nf := next.Frontier(e.denseThreshold)
		current.Release()
		current = nf
	}
}
