// Package frontier implements the shared parallel-traversal primitive: an
// active node set with adaptive sparse/dense representation, and a round
// engine that applies a per-node operator to every active node in parallel
// with a barrier between rounds.
package frontier

import (
	"math/bits"
	"sync/atomic"

	"github.com/dd0wney/cluso-analytics/pkg/pools"
)

// DefaultDenseThreshold is the active fraction above which the next frontier
// is kept as a bitmap instead of a sparse node list. The switch is a
// performance policy only; results are identical either way.
const DefaultDenseThreshold = 0.05

// Frontier is the set of nodes active in one round. It is created for a
// round, consumed by the operator, replaced by the next round's frontier and
// then discarded.
type Frontier struct {
	numNodes int
	dense    bool
	sparse   []uint32 // sparse representation: explicit node list
	words    []uint64 // dense representation: bitmap
	count    int
	pooled   bool // sparse slice came from the shared pool
}

// New creates an empty sparse frontier over a graph of numNodes nodes.
func New(numNodes int) *Frontier {
	return &Frontier{numNodes: numNodes}
}

// All creates a dense frontier with every node active.
func All(numNodes int) *Frontier {
	words := make([]uint64, (numNodes+63)/64)
	for i := range words {
		words[i] = ^uint64(0)
	}
	// Clear the bits past numNodes in the last word.
	if rem := numNodes % 64; rem != 0 && len(words) > 0 {
		words[len(words)-1] = (uint64(1) << rem) - 1
	}
	return &Frontier{numNodes: numNodes, dense: true, words: words, count: numNodes}
}

// FromNodes creates a sparse frontier from an explicit node list.
// The slice is not retained.
func FromNodes(numNodes int, nodes []uint32) *Frontier {
	return &Frontier{
		numNodes: numNodes,
		sparse:   append([]uint32(nil), nodes...),
		count:    len(nodes),
	}
}

// Count returns the number of active nodes.
func (f *Frontier) Count() int { return f.count }

// IsEmpty reports whether no nodes are active (the terminal state).
func (f *Frontier) IsEmpty() bool { return f.count == 0 }

// IsDense reports whether the frontier uses the bitmap representation.
func (f *Frontier) IsDense() bool { return f.dense }

// Contains reports whether a node is active.
func (f *Frontier) Contains(node uint32) bool {
	if f.dense {
		return f.words[node>>6]&(uint64(1)<<(node&63)) != 0
	}
	for _, v := range f.sparse {
		if v == node {
			return true
		}
	}
	return false
}

// ForEach calls fn for every active node, sequentially.
func (f *Frontier) ForEach(fn func(node uint32)) {
	if f.dense {
		for w, word := range f.words {
			for word != 0 {
				bit := bits.TrailingZeros64(word)
				fn(uint32(w*64 + bit))
				word &= word - 1
			}
		}
		return
	}
	for _, v := range f.sparse {
		fn(v)
	}
}

// Nodes returns the active nodes as a slice. For dense frontiers the slice is
// freshly materialized; for sparse frontiers it aliases internal storage.
func (f *Frontier) Nodes() []uint32 {
	if !f.dense {
		return f.sparse
	}
	out := make([]uint32, 0, f.count)
	f.ForEach(func(node uint32) { out = append(out, node) })
	return out
}

// Release returns pooled storage. The frontier must not be used afterwards.
func (f *Frontier) Release() {
	if f.pooled {
		pools.PutUint32s(f.sparse)
		f.pooled = false
	}
	f.sparse = nil
	f.words = nil
	f.count = 0
}

// Accumulator collects the next round's active set from concurrent writers.
// Adds go through an atomic bitmap, so a node activated by several neighbors
// in the same round still appears exactly once in the produced frontier.
type Accumulator struct {
	numNodes int
	words    []uint64
	added    atomic.Int64
}

// NewAccumulator creates an empty accumulator over numNodes nodes.
func NewAccumulator(numNodes int) *Accumulator {
	return &Accumulator{
		numNodes: numNodes,
		words:    make([]uint64, (numNodes+63)/64),
	}
}

// Add marks a node active for the next round. Safe for concurrent use.
func (a *Accumulator) Add(node uint32) {
	mask := uint64(1) << (node & 63)
	word := &a.words[node>>6]
	// atomic.OrUint64 requires Go 1.23; emulate it with a CAS loop.
	var old uint64
	for {
		old = atomic.LoadUint64(word)
		if atomic.CompareAndSwapUint64(word, old, old|mask) {
			break
		}
	}
	if old&mask == 0 {
		a.added.Add(1)
	}
}

// Count returns the number of distinct nodes added so far.
func (a *Accumulator) Count() int { return int(a.added.Load()) }

// Frontier compacts the accumulated set into a Frontier, choosing the dense
// bitmap when the active fraction exceeds denseThreshold and a sparse list
// otherwise. The accumulator must not be reused afterwards.
func (a *Accumulator) Frontier(denseThreshold float64) *Frontier {
	count := int(a.added.Load())
	if count == 0 {
		return New(a.numNodes)
	}

	if denseThreshold <= 0 {
		denseThreshold = DefaultDenseThreshold
	}
	if float64(count) >= denseThreshold*float64(a.numNodes) {
		return &Frontier{
			numNodes: a.numNodes,
			dense:    true,
			words:    a.words,
			count:    count,
		}
	}

	sparse := pools.GetUint32s(count)
	for w, word := range a.words {
		for word != 0 {
			bit := bits.TrailingZeros64(word)
			sparse = append(sparse, uint32(w*64+bit))
			word &= word - 1
		}
	}
	return &Frontier{
		numNodes: a.numNodes,
		sparse:   sparse,
		count:    count,
		pooled:   true,
	}
}
