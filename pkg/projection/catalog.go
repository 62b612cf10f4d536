package projection

import "sync"

// Catalog is a registry of named projected graphs. Algorithms resolve their
// input graph through it; an unknown name fails before any work starts.
type Catalog struct {
	mu     sync.RWMutex
	graphs map[string]*Graph
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{graphs: make(map[string]*Graph)}
}

// Register adds a projected graph under its name.
func (c *Catalog) Register(g *Graph) error {
	if g.Name() == "" {
		return &ProjectionError{Op: "register", Cause: ErrEmptyName}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.graphs[g.Name()]; ok {
		return &ProjectionError{Op: "register", Graph: g.Name(), Cause: ErrGraphExists}
	}
	c.graphs[g.Name()] = g
	return nil
}

// Get returns the projected graph registered under name.
func (c *Catalog) Get(name string) (*Graph, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	g, ok := c.graphs[name]
	if !ok {
		return nil, GraphNotFoundError(name)
	}
	return g, nil
}

// Drop removes a projected graph from the catalog. Running algorithms keep
// their reference; the graph itself stays valid until released.
func (c *Catalog) Drop(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.graphs[name]; !ok {
		return GraphNotFoundError(name)
	}
	delete(c.graphs, name)
	return nil
}

// Names returns the names of all registered projections.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.graphs))
	for name := range c.graphs {
		names = append(names, name)
	}
	return names
}

// Len returns the number of registered projections.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.graphs)
}
