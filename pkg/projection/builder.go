package projection

// Builder accumulates nodes and edges and materializes an immutable Graph.
// Dense ids are assigned in node-registration order; edges referencing a key
// that was never registered register it implicitly.
type Builder struct {
	name  string
	keys  []uint64
	index map[uint64]uint32
	from  []uint32
	to    []uint32
	wt    []float64
}

// NewBuilder creates a builder for a projection with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:  name,
		index: make(map[uint64]uint32),
	}
}

// AddNode registers an external node key and returns its dense id.
// Registering the same key twice returns the same id.
func (b *Builder) AddNode(key uint64) uint32 {
	if id, ok := b.index[key]; ok {
		return id
	}
	id := uint32(len(b.keys))
	b.keys = append(b.keys, key)
	b.index[key] = id
	return id
}

// AddEdge adds a directed edge between two external node keys with weight 1.
func (b *Builder) AddEdge(fromKey, toKey uint64) error {
	return b.AddWeightedEdge(fromKey, toKey, 1.0)
}

// AddWeightedEdge adds a directed edge with the given positive weight.
func (b *Builder) AddWeightedEdge(fromKey, toKey uint64, weight float64) error {
	if weight <= 0 {
		return &ProjectionError{Op: "build", Graph: b.name, Cause: ErrInvalidWeight}
	}
	b.from = append(b.from, b.AddNode(fromKey))
	b.to = append(b.to, b.AddNode(toKey))
	b.wt = append(b.wt, weight)
	return nil
}

// NumNodes returns the number of nodes registered so far.
func (b *Builder) NumNodes() int { return len(b.keys) }

// Build materializes the CSR adjacency structure. The builder can be reused
// afterwards; the returned graph does not share storage with it.
func (b *Builder) Build() (*Graph, error) {
	if b.name == "" {
		return nil, &ProjectionError{Op: "build", Cause: ErrEmptyName}
	}

	n := len(b.keys)
	m := len(b.from)

	g := &Graph{
		name:     b.name,
		numNodes: n,
		numEdges: m,
		keys:     append([]uint64(nil), b.keys...),
	}

	g.fwdOffsets, g.fwdTargets, g.fwdWeights = buildCSR(n, b.from, b.to, b.wt)
	g.revOffsets, g.revTargets, g.revWeights = buildCSR(n, b.to, b.from, b.wt)

	for u := uint32(0); u < uint32(n); u++ {
		if d := g.Degree(u); d > g.maxDegree {
			g.maxDegree = d
		}
	}

	return g, nil
}

// buildCSR packs an edge list into offset+target arrays via counting sort.
func buildCSR(n int, src, dst []uint32, wt []float64) ([]uint32, []uint32, []float64) {
	offsets := make([]uint32, n+1)
	for _, u := range src {
		offsets[u+1]++
	}
	for i := 1; i <= n; i++ {
		offsets[i] += offsets[i-1]
	}

	targets := make([]uint32, len(src))
	weights := make([]float64, len(src))
	cursor := make([]uint32, n)
	for i, u := range src {
		pos := offsets[u] + cursor[u]
		targets[pos] = dst[i]
		weights[pos] = wt[i]
		cursor[u]++
	}
	return offsets, targets, weights
}
