package analytics

import (
	"sync"

	"github.com/dd0wney/cluso-analytics/pkg/parallel"
	"github.com/dd0wney/cluso-analytics/pkg/projection"
)

// gainEps is the modularity-gain threshold below which a move is treated as
// neutral and the node stays put, keeping sweeps strictly improving.
const gainEps = 1e-12

// LouvainOptions configures Louvain community detection.
type LouvainOptions struct {
	// MaxPhases caps contraction phases.
	MaxPhases int

	// MaxIterations caps local-move sweeps within one phase.
	MaxIterations int
}

// DefaultLouvainOptions returns the default Louvain configuration.
func DefaultLouvainOptions() LouvainOptions {
	return LouvainOptions{MaxPhases: 20, MaxIterations: 20}
}

// LouvainResult contains the final community assignment.
type LouvainResult struct {
	Rows              []Row     // Value is the louvain_id of the node's community
	Phases            int       // Contraction phases executed
	Iterations        int       // Total local-move sweeps across all phases
	Modularity        float64   // Modularity of the final assignment
	PhaseModularities []float64 // Modularity after each phase, non-decreasing
	NumCommunities    int
	Converged         bool // False when MaxPhases stopped refinement early
}

// workGraph is the weighted undirected multigraph Louvain refines in place.
// Phase one builds it from the projection; later phases build it by
// contracting the previous one. Edge weights appear once per direction in
// adj/wts; self[u] holds the full weight of u's self-loops.
type workGraph struct {
	n    int
	adj  [][]uint32
	wts  [][]float64
	self []float64
	deg  []float64 // weighted degree, self-loops counted twice
	m    float64   // total edge weight of the graph
}

// communityState tracks the running aggregates the local-move gain formula
// needs: per-community weighted degree and doubled internal weight.
type communityState struct {
	nodeToComm   []uint32
	commDeg      []float64
	commInternal []float64 // sum of internal edge weights, doubled
	size         []int
}

// Louvain detects communities by modularity maximization: sweeps of single
// node moves until no move improves modularity, then contraction of each
// community into a super-node, repeated until the partition stops shrinking.
// Equal-id nodes in the output share a community; ids are compact in
// [0, NumCommunities). A nil pool runs on a temporary one.
func Louvain(graph *projection.Graph, pool *parallel.WorkerPool, opts LouvainOptions) (*LouvainResult, error) {
	if opts.MaxPhases <= 0 {
		return nil, invalidParameter("maxPhases", opts.MaxPhases)
	}
	if opts.MaxIterations <= 0 {
		return nil, invalidParameter("maxIterations", opts.MaxIterations)
	}
	if pool == nil {
		pool = parallel.NewWorkerPool(0)
		defer pool.Close()
	}

	n := graph.NumNodes()
	if n == 0 {
		return &LouvainResult{Rows: []Row{}, PhaseModularities: []float64{}, Converged: true}, nil
	}

	g, err := buildWorkGraph(graph, pool)
	if err != nil {
		return nil, err
	}

	// assign maps original nodes to their community in the current phase's
	// work graph; each contraction composes the new mapping into it.
	assign := make([]uint32, n)
	for i := range assign {
		assign[i] = uint32(i)
	}

	result := &LouvainResult{}

	if g.m == 0 {
		// No edges: every node is its own community and no move can help.
		result.Rows = materializeRows(graph, func(u uint32) int64 { return int64(u) })
		result.PhaseModularities = []float64{}
		result.NumCommunities = n
		result.Converged = true
		return result, nil
	}

	converged := false
	for phase := 0; phase < opts.MaxPhases; phase++ {
		cs := newCommunityState(g)

		moved := false
		for sweep := 0; sweep < opts.MaxIterations; sweep++ {
			result.Iterations++
			if localMoveSweep(g, cs) == 0 {
				break
			}
			moved = true
		}
		result.Phases++

		ng, compact, err := contract(g, cs, pool)
		if err != nil {
			return nil, err
		}

		for i := range assign {
			assign[i] = compact[cs.nodeToComm[assign[i]]]
		}
		result.PhaseModularities = append(result.PhaseModularities, modularity(cs, g.m))

		if !moved || ng.n == g.n {
			converged = true
			break
		}
		g = ng
	}

	result.Converged = converged
	result.Modularity = result.PhaseModularities[len(result.PhaseModularities)-1]
	result.NumCommunities = g.n
	if !converged {
		// Stopped at the phase cap; count communities from the mapping.
		seen := make(map[uint32]struct{}, g.n)
		for _, c := range assign {
			seen[c] = struct{}{}
		}
		result.NumCommunities = len(seen)
	}

	result.Rows = materializeRows(graph, func(u uint32) int64 {
		return int64(assign[u])
	})
	return result, nil
}

// buildWorkGraph flattens the projection's two CSR directions into one
// undirected weighted adjacency. Self-loops are taken from the forward lists
// only so they are not counted twice.
func buildWorkGraph(graph *projection.Graph, pool *parallel.WorkerPool) (*workGraph, error) {
	n := graph.NumNodes()
	g := &workGraph{
		n:    n,
		adj:  make([][]uint32, n),
		wts:  make([][]float64, n),
		self: make([]float64, n),
		deg:  make([]float64, n),
	}

	err := pool.ForRange(n, func(start, end int) {
		for u := start; u < end; u++ {
			uu := uint32(u)
			outN, outW := graph.OutNeighbors(uu), graph.OutWeights(uu)
			inN, inW := graph.InNeighbors(uu), graph.InWeights(uu)

			adj := make([]uint32, 0, len(outN)+len(inN))
			wts := make([]float64, 0, len(outN)+len(inN))
			for i, v := range outN {
				if v == uu {
					g.self[u] += outW[i]
					continue
				}
				adj = append(adj, v)
				wts = append(wts, outW[i])
			}
			for i, v := range inN {
				if v == uu {
					continue // already counted from the forward list
				}
				adj = append(adj, v)
				wts = append(wts, inW[i])
			}
			g.adj[u], g.wts[u] = adj, wts

			d := 2 * g.self[u]
			for _, w := range wts {
				d += w
			}
			g.deg[u] = d
		}
	})
	if err != nil {
		return nil, err
	}

	for u := 0; u < n; u++ {
		g.m += g.deg[u]
	}
	g.m /= 2
	return g, nil
}

func newCommunityState(g *workGraph) *communityState {
	cs := &communityState{
		nodeToComm:   make([]uint32, g.n),
		commDeg:      make([]float64, g.n),
		commInternal: make([]float64, g.n),
		size:         make([]int, g.n),
	}
	for u := 0; u < g.n; u++ {
		cs.nodeToComm[u] = uint32(u)
		cs.commDeg[u] = g.deg[u]
		cs.commInternal[u] = 2 * g.self[u]
		cs.size[u] = 1
	}
	return cs
}

// modularity evaluates Q = sum_c [ in_c/2m - (deg_c/2m)^2 ] over nonempty
// communities, with in_c the doubled internal weight.
func modularity(cs *communityState, m float64) float64 {
	q := 0.0
	for c := range cs.commDeg {
		if cs.size[c] == 0 {
			continue
		}
		q += cs.commInternal[c]/(2*m) - (cs.commDeg[c]/(2*m))*(cs.commDeg[c]/(2*m))
	}
	return q
}

// localMoveSweep visits every node once in dense-id order, removes it from
// its community and re-inserts it where modularity gain is highest. The
// sequential sweep keeps the aggregates exact, so modularity never
// decreases. Returns the number of nodes moved.
func localMoveSweep(g *workGraph, cs *communityState) int {
	moves := 0
	nbrWeight := make(map[uint32]float64, 16)

	for u := 0; u < g.n; u++ {
		cur := cs.nodeToComm[u]

		clear(nbrWeight)
		for i, v := range g.adj[u] {
			nbrWeight[cs.nodeToComm[v]] += g.wts[u][i]
		}

		// Remove u from its community so the gain formula compares against
		// the node standing alone.
		du := g.deg[u]
		cs.commDeg[cur] -= du
		cs.commInternal[cur] -= 2*nbrWeight[cur] + 2*g.self[u]
		cs.size[cur]--

		best := cur
		bestGain := nbrWeight[cur]/g.m - du*cs.commDeg[cur]/(2*g.m*g.m)
		for c, w := range nbrWeight {
			if c == cur {
				continue
			}
			gain := w/g.m - du*cs.commDeg[c]/(2*g.m*g.m)
			if gain > bestGain+gainEps || (gain > bestGain-gainEps && c < best) {
				// Ties between candidates resolve to the lowest community id;
				// staying wins against an equal-gain move.
				if gain > bestGain+gainEps || best != cur {
					best, bestGain = c, gain
				}
			}
		}

		cs.nodeToComm[u] = best
		cs.commDeg[best] += du
		cs.commInternal[best] += 2*nbrWeight[best] + 2*g.self[u]
		cs.size[best]++
		if best != cur {
			moves++
		}
	}
	return moves
}

// contract collapses each nonempty community into a super-node and returns
// the contracted graph plus the community-to-super-node renumbering.
// Inter-community weight is accumulated once per unordered pair; intra
// weight and old self-loops become the super-node's self-loop. Total edge
// weight is preserved.
func contract(g *workGraph, cs *communityState, pool *parallel.WorkerPool) (*workGraph, []uint32, error) {
	compact := make([]uint32, g.n)
	nc := uint32(0)
	for c := 0; c < g.n; c++ {
		if cs.size[c] > 0 {
			compact[c] = nc
			nc++
		}
	}

	ng := &workGraph{
		n:    int(nc),
		adj:  make([][]uint32, nc),
		wts:  make([][]float64, nc),
		self: make([]float64, nc),
		deg:  make([]float64, nc),
		m:    g.m,
	}

	type superEdge struct{ a, b uint32 }
	merged := make(map[superEdge]float64)
	selfW := make([]float64, nc)
	var mu sync.Mutex

	err := pool.ForRange(g.n, func(start, end int) {
		local := make(map[superEdge]float64)
		localSelf := make(map[uint32]float64)

		for u := start; u < end; u++ {
			cu := compact[cs.nodeToComm[u]]
			if g.self[u] > 0 {
				localSelf[cu] += g.self[u]
			}
			for i, v := range g.adj[u] {
				cv := compact[cs.nodeToComm[v]]
				switch {
				case cu == cv:
					// Each intra edge appears from both endpoints.
					localSelf[cu] += g.wts[u][i] / 2
				case cu < cv:
					// Count each unordered pair from the lower side only.
					local[superEdge{cu, cv}] += g.wts[u][i]
				}
			}
		}

		mu.Lock()
		for e, w := range local {
			merged[e] += w
		}
		for c, w := range localSelf {
			selfW[c] += w
		}
		mu.Unlock()
	})
	if err != nil {
		return nil, nil, err
	}

	copy(ng.self, selfW)
	for e, w := range merged {
		ng.adj[e.a] = append(ng.adj[e.a], e.b)
		ng.wts[e.a] = append(ng.wts[e.a], w)
		ng.adj[e.b] = append(ng.adj[e.b], e.a)
		ng.wts[e.b] = append(ng.wts[e.b], w)
	}
	for u := 0; u < ng.n; u++ {
		d := 2 * ng.self[u]
		for _, w := range ng.wts[u] {
			d += w
		}
		ng.deg[u] = d
	}
	return ng, compact, nil
}
