package response

import "sync"

// cacheKey identifies one loaded dataset.
type cacheKey struct {
	version   int
	path      string
	preLaunch bool
}

// Cache loads calibration tables lazily, at most once per selection, and
// hands out the shared immutable table thereafter.  It is an explicit object
// so the conversion engine can be tested with an injected table instead of a
// filesystem; see Inject.
type Cache struct {
	mu     sync.Mutex
	tables map[cacheKey]*Table

	// Dir is the archive directory applied to version selections.
	Dir string

	// load is swappable for tests.
	load func(Options) (*Table, error)
}

// NewCache returns an empty cache over the given archive directory.
func NewCache(dir string) *Cache {
	return &Cache{
		tables: map[cacheKey]*Table{},
		Dir:    dir,
		load:   Load,
	}
}

// Get returns the table for the given options, loading it on first use.
// Concurrent callers are safe; the table is loaded once per selection.
func (c *Cache) Get(opts Options) (*Table, error) {
	if opts.Dir == "" {
		opts.Dir = c.Dir
	}
	key := cacheKey{version: opts.Version, path: opts.Path, preLaunch: opts.PreLaunch}
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.tables[key]; ok {
		return t, nil
	}
	t, err := c.load(opts)
	if err != nil {
		return nil, err
	}
	c.tables[key] = t
	return t, nil
}

// Inject places a table in the cache under the given selection without
// touching the filesystem.
func (c *Cache) Inject(opts Options, t *Table) {
	key := cacheKey{version: opts.Version, path: opts.Path, preLaunch: opts.PreLaunch}
	c.mu.Lock()
	c.tables[key] = t
	c.mu.Unlock()
}
