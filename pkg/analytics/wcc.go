// Package analytics implements the parallel graph algorithms that run over a
// projected graph: weakly connected components, k-core decomposition and
// Louvain community detection. All per-node shared state on the hot path is
// updated through lock-free atomics; rounds are separated by barriers.
package analytics

import (
	"sync/atomic"

	"github.com/dd0wney/cluso-analytics/pkg/frontier"
	"github.com/dd0wney/cluso-analytics/pkg/parallel"
	"github.com/dd0wney/cluso-analytics/pkg/projection"
)

// WCCOptions configures weakly connected components.
type WCCOptions struct {
	// MaxIterations caps label-propagation rounds. On reaching the cap the
	// labels computed so far are returned with Converged=false.
	MaxIterations int

	// DenseThreshold overrides the frontier density switch; 0 selects the
	// engine default.
	DenseThreshold float64
}

// DefaultWCCOptions returns the default WCC configuration.
func DefaultWCCOptions() WCCOptions {
	return WCCOptions{MaxIterations: 100}
}

// WCCResult contains component labels for all nodes.
type WCCResult struct {
	Rows       []Row // Value is the group_id; equal group_id means same component
	Iterations int   // Rounds executed
	Converged  bool  // False when MaxIterations stopped propagation early
}

// WCC computes weakly connected components by parallel minimum-label
// propagation, treating edges as undirected. Two nodes end with the same
// group_id iff an undirected path connects them; the canonical group_id is
// the component member with the minimum dense id. A nil pool runs on a
// temporary one sized to the CPU count.
func WCC(graph *projection.Graph, pool *parallel.WorkerPool, opts WCCOptions) (*WCCResult, error) {
	if opts.MaxIterations <= 0 {
		return nil, invalidParameter("maxIterations", opts.MaxIterations)
	}
	if pool == nil {
		pool = parallel.NewWorkerPool(0)
		defer pool.Close()
	}

	n := graph.NumNodes()
	if n == 0 {
		return &WCCResult{Rows: []Row{}, Converged: true}, nil
	}

	// Every node starts in its own singleton component.
	labels := make([]uint64, n)
	for i := range labels {
		labels[i] = uint64(i)
	}

	op := func(u uint32, next *frontier.Accumulator) {
		min := atomic.LoadUint64(&labels[u])
		for _, v := range graph.OutNeighbors(u) {
			if l := atomic.LoadUint64(&labels[v]); l < min {
				min = l
			}
		}
		for _, v := range graph.InNeighbors(u) {
			if l := atomic.LoadUint64(&labels[v]); l < min {
				min = l
			}
		}

		if !lowerLabel(labels, u, min) {
			return
		}
		// The label changed, so the neighbors may now need to adopt it too.
		next.Add(u)
		for _, v := range graph.OutNeighbors(u) {
			next.Add(v)
		}
		for _, v := range graph.InNeighbors(u) {
			next.Add(v)
		}
	}

	engine := frontier.NewEngine(graph, pool, opts.DenseThreshold)
	rounds, converged, err := engine.Run(frontier.All(n), opts.MaxIterations, op)
	if err != nil {
		return nil, err
	}

	rows := materializeRows(graph, func(u uint32) int64 {
		// Report the representative's external id as the group id.
		return int64(graph.Key(uint32(labels[u])))
	})

	return &WCCResult{
		Rows:       rows,
		Iterations: rounds,
		Converged:  converged,
	}, nil
}

// lowerLabel lowers labels[u] to v with a compare-and-swap minimum loop;
// a plain overwrite would lose concurrent updates. Returns true if the
// stored label decreased.
func lowerLabel(labels []uint64, u uint32, v uint64) bool {
	for {
		cur := atomic.LoadUint64(&labels[u])
		if v >= cur {
			return false
		}
		if atomic.CompareAndSwapUint64(&labels[u], cur, v) {
			return true
		}
	}
}
