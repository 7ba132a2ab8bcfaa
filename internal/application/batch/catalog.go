package batch

import (
	"sort"
	"sync"

	"github.com/erp/revrec/internal/domain/shared"
)

// Factory builds a runnable from the parameters of one submission
type Factory func(params Params) (Runnable, error)

// Catalog maps job names to their factories
type Catalog struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory of a job
func (c *Catalog) Register(name string, f Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[name] = f
}

// Has reports whether the job is registered
func (c *Catalog) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.factories[name]
	return ok
}

// Build creates the runnable of a job
func (c *Catalog) Build(name string, params Params) (Runnable, error) {
	c.mu.RLock()
	f, ok := c.factories[name]
	c.mu.RUnlock()
	if !ok {
		return nil, shared.NewDomainError("UNKNOWN_JOB", "unknown job: "+name)
	}
	return f(params)
}

// Names returns the registered job names in order
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.factories))
	for n := range c.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
