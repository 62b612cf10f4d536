// Package projection provides the in-memory projected graph consumed by the
// analytics algorithms: an immutable CSR adjacency structure over a dense,
// contiguous node-id space, plus a catalog of named projections.
package projection

// Graph is an immutable projected subgraph in compressed sparse row form.
// Node ids are dense in [0, NumNodes); Keys maps them back to the external
// node identities they were projected from. A Graph is never mutated after
// Build and is safe for concurrent readers without locking.
type Graph struct {
	name     string
	numNodes int
	numEdges int

	// Forward adjacency: targets[fwdOffsets[u]:fwdOffsets[u+1]] are the
	// out-neighbors of u, with parallel weights.
	fwdOffsets []uint32
	fwdTargets []uint32
	fwdWeights []float64

	// Reverse adjacency, same layout. Forward and reverse together give the
	// undirected neighborhood of a node.
	revOffsets []uint32
	revTargets []uint32
	revWeights []float64

	keys      []uint64 // dense id -> external node id
	maxDegree int      // max undirected degree, fixed at build
}

// Statistics summarizes a projected graph.
type Statistics struct {
	NodeCount int
	EdgeCount int
	MaxDegree int
	AvgDegree float64
}

// Name returns the projection name.
func (g *Graph) Name() string { return g.name }

// NumNodes returns the number of nodes in the dense id space.
func (g *Graph) NumNodes() int { return g.numNodes }

// NumEdges returns the number of projected edges.
func (g *Graph) NumEdges() int { return g.numEdges }

// Key returns the external node id for a dense node id.
func (g *Graph) Key(node uint32) uint64 { return g.keys[node] }

// OutNeighbors returns the forward adjacency list of a node. The returned
// slice aliases the graph's storage and must not be modified.
func (g *Graph) OutNeighbors(node uint32) []uint32 {
	return g.fwdTargets[g.fwdOffsets[node]:g.fwdOffsets[node+1]]
}

// OutWeights returns the edge weights parallel to OutNeighbors.
func (g *Graph) OutWeights(node uint32) []float64 {
	return g.fwdWeights[g.fwdOffsets[node]:g.fwdOffsets[node+1]]
}

// InNeighbors returns the reverse adjacency list of a node.
func (g *Graph) InNeighbors(node uint32) []uint32 {
	return g.revTargets[g.revOffsets[node]:g.revOffsets[node+1]]
}

// InWeights returns the edge weights parallel to InNeighbors.
func (g *Graph) InWeights(node uint32) []float64 {
	return g.revWeights[g.revOffsets[node]:g.revOffsets[node+1]]
}

// OutDegree returns the number of outgoing edges of a node.
func (g *Graph) OutDegree(node uint32) int {
	return int(g.fwdOffsets[node+1] - g.fwdOffsets[node])
}

// InDegree returns the number of incoming edges of a node.
func (g *Graph) InDegree(node uint32) int {
	return int(g.revOffsets[node+1] - g.revOffsets[node])
}

// Degree returns the undirected degree of a node (out plus in; a self-loop
// counts twice).
func (g *Graph) Degree(node uint32) int {
	return g.OutDegree(node) + g.InDegree(node)
}

// MaxDegree returns the largest undirected degree in the graph.
func (g *Graph) MaxDegree() int { return g.maxDegree }

// Statistics returns summary statistics for the graph.
func (g *Graph) Statistics() Statistics {
	avg := 0.0
	if g.numNodes > 0 {
		// Each edge contributes to two endpoint degrees.
		avg = 2.0 * float64(g.numEdges) / float64(g.numNodes)
	}
	return Statistics{
		NodeCount: g.numNodes,
		EdgeCount: g.numEdges,
		MaxDegree: g.maxDegree,
		AvgDegree: avg,
	}
}
