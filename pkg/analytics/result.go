package analytics

import (
	"github.com/dd0wney/cluso-analytics/pkg/projection"
)

// Row pairs a node's external identity with the value an algorithm computed
// for it. Row order within a result is unspecified.
type Row struct {
	NodeID uint64 // external node id from the projection
	Value  int64  // group_id, k_degree or louvain_id
}

// materializeRows maps per-dense-node values back to external node ids,
// producing one row per node of the projected graph.
func materializeRows(g *projection.Graph, value func(node uint32) int64) []Row {
	rows := make([]Row, g.NumNodes())
	for u := 0; u < g.NumNodes(); u++ {
		rows[u] = Row{
			NodeID: g.Key(uint32(u)),
			Value:  value(uint32(u)),
		}
	}
	return rows
}
