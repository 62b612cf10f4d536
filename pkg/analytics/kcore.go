package analytics

import (
	"sync"
	"sync/atomic"

	"github.com/dd0wney/cluso-analytics/pkg/parallel"
	"github.com/dd0wney/cluso-analytics/pkg/projection"
)

// KCoreResult contains the coreness of every node.
type KCoreResult struct {
	Rows    []Row // Value is k_degree: the largest k for which the node survives in a k-core
	MaxCore int   // Largest coreness in the graph
	Rounds  int   // Peel waves executed
}

// bucketMove records a pending transition of a node to a strictly lower
// degree bucket, applied after the wave barrier.
type bucketMove struct {
	node   uint32
	degree int32
}

// KCore computes the coreness of every node by parallel bucket peeling.
// Residual degrees start at the undirected degree; the smallest nonempty
// bucket is peeled wave by wave, decrementing surviving neighbors with
// atomic fetch-and-add. Peeling within a bucket is order-independent, so the
// result is deterministic. A nil pool runs on a temporary one.
func KCore(graph *projection.Graph, pool *parallel.WorkerPool) (*KCoreResult, error) {
	if pool == nil {
		pool = parallel.NewWorkerPool(0)
		defer pool.Close()
	}

	n := graph.NumNodes()
	if n == 0 {
		return &KCoreResult{Rows: []Row{}}, nil
	}

	deg := make([]int32, n)             // residual degree, atomic
	core := make([]uint32, n)           // assigned coreness
	peeled := make([]uint64, (n+63)/64) // atomic claim bitmap

	maxDeg := graph.MaxDegree()
	buckets := make([][]uint32, maxDeg+1)
	for u := 0; u < n; u++ {
		d := graph.Degree(uint32(u))
		deg[u] = int32(d)
		buckets[d] = append(buckets[d], uint32(u))
	}

	claim := func(v uint32) bool {
		mask := uint64(1) << (v & 63)
		word := &peeled[v>>6]
		// atomic.OrUint64 requires Go 1.23; emulate it with a CAS loop.
		for {
			old := atomic.LoadUint64(word)
			if old&mask != 0 {
				return false
			}
			if atomic.CompareAndSwapUint64(word, old, old|mask) {
				return true
			}
		}
	}
	isPeeled := func(v uint32) bool {
		return atomic.LoadUint64(&peeled[v>>6])&(uint64(1)<<(v&63)) != 0
	}

	remaining := n
	rounds := 0
	maxCore := 0

	for k := 0; k <= maxDeg && remaining > 0; k++ {
		// Seed the wave from bucket k. Lazy re-bucketing leaves stale
		// entries behind; the residual-degree check and the claim bitmap
		// filter them out, so every node is peeled exactly once.
		var wave []uint32
		for _, u := range buckets[k] {
			if atomic.LoadInt32(&deg[u]) <= int32(k) && claim(u) {
				wave = append(wave, u)
			}
		}
		buckets[k] = nil

		var pendingMoves []bucketMove

		// Peeling nodes of this bucket can drag neighbors down into it;
		// those cascade as sub-waves at the same coreness value.
		for len(wave) > 0 {
			rounds++
			maxCore = k

			var (
				mu       sync.Mutex
				nextWave []uint32
			)

			err := pool.ForRange(len(wave), func(start, end int) {
				var localNext []uint32
				var localMoves []bucketMove

				peelNeighbor := func(v uint32) {
					if isPeeled(v) {
						return
					}
					nd := atomic.AddInt32(&deg[v], -1)
					if nd <= int32(k) {
						// Dragged into the current bucket: exactly one
						// decrementer claims it for the next sub-wave.
						if claim(v) {
							localNext = append(localNext, v)
						}
					} else {
						localMoves = append(localMoves, bucketMove{node: v, degree: nd})
					}
				}

				for _, u := range wave[start:end] {
					core[u] = uint32(k)
					for _, v := range graph.OutNeighbors(u) {
						peelNeighbor(v)
					}
					for _, v := range graph.InNeighbors(u) {
						peelNeighbor(v)
					}
				}

				mu.Lock()
				nextWave = append(nextWave, localNext...)
				pendingMoves = append(pendingMoves, localMoves...)
				mu.Unlock()
			})
			if err != nil {
				return nil, err
			}

			remaining -= len(wave)
			wave = nextWave

			// Apply bucket transitions after the barrier. A node may leave
			// several stale entries in higher buckets; they are filtered at
			// seed time.
			for _, mv := range pendingMoves {
				buckets[mv.degree] = append(buckets[mv.degree], mv.node)
			}
			pendingMoves = pendingMoves[:0]
		}
	}

	rows := materializeRows(graph, func(u uint32) int64 {
		return int64(core[u])
	})

	return &KCoreResult{
		Rows:    rows,
		MaxCore: maxCore,
		Rounds:  rounds,
	}, nil
}
