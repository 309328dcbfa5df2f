package services

import (
	"sync"

	"github.com/golang/groupcache/lru"

	"sspyviz/internal/config"
)

// resultCache memoizes pipeline results per dataset and options.
// Datasets are immutable once stored, so the dataset ID identifies its
// version and a delete is the only invalidation. Each invalidation bumps the
// dataset generation; results computed under an older generation are dropped.
type resultCache struct {
	mu          sync.Mutex
	cache       *lru.Cache
	byDataset   map[string]map[string]struct{}
	generations map[string]uint64
}

type cacheKey struct {
	datasetID string
	options   string
}

func newResultCache(size int) *resultCache {
	if size <= 0 {
		size = config.DefaultResultCacheSize
	}
	c := &resultCache{
		cache:       lru.New(size),
		byDataset:   make(map[string]map[string]struct{}),
		generations: make(map[string]uint64),
	}
	c.cache.OnEvicted = func(key lru.Key, _ interface{}) {
		k := key.(cacheKey)
		if keys, ok := c.byDataset[k.datasetID]; ok {
			delete(keys, k.options)
			if len(keys) == 0 {
				delete(c.byDataset, k.datasetID)
			}
		}
	}
	return c
}

func (c *resultCache) get(datasetID string, opts ProcessOptions) (*ProcessResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.cache.Get(cacheKey{datasetID, opts.cacheKey()})
	if !ok {
		return nil, false
	}
	return v.(*ProcessResult), true
}

// generation returns the current generation of a dataset. Capture it before
// computing a result and hand it back to add.
func (c *resultCache) generation(datasetID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[datasetID]
}

// add stores result unless the dataset was invalidated after gen was read.
// It reports whether the result was kept.
func (c *resultCache) add(datasetID string, gen uint64, opts ProcessOptions, result *ProcessResult) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[datasetID] != gen {
		return false
	}
	key := cacheKey{datasetID, opts.cacheKey()}
	c.cache.Add(key, result)
	keys, ok := c.byDataset[datasetID]
	if !ok {
		keys = make(map[string]struct{})
		c.byDataset[datasetID] = keys
	}
	keys[key.options] = struct{}{}
	return true
}

// invalidate drops every entry of a dataset
func (c *resultCache) invalidate(datasetID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for options := range c.byDataset[datasetID] {
		c.cache.Remove(cacheKey{datasetID, options})
	}
	delete(c.byDataset, datasetID)
	c.generations[datasetID]++
}

func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}
