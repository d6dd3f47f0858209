package pipeline

import (
	"path/filepath"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache memoizes pipeline results for the process lifetime, keyed by the
// absolute input paths. Concurrent first-time callers for the same key share
// a single build. Errors are never memoized.
type Cache struct {
	opts Options

	mu      sync.RWMutex
	results map[string]*Result
	gen     uint64
	group   singleflight.Group

	prepare func(rawPath, processedPath string, opts Options) (*Result, error)
	load    func(processedPath string, opts Options) (*Result, error)
}

// NewCache returns an empty cache that reads files with opts.
func NewCache(opts Options) *Cache {
	return &Cache{
		opts:    opts,
		results: make(map[string]*Result),
		prepare: PrepareFromPaths,
		load:    LoadCanonical,
	}
}

// Prepare returns the memoized PrepareFromPaths result for the path pair.
func (c *Cache) Prepare(rawPath, processedPath string) (*Result, error) {
	raw := absPath(rawPath)
	proc := absPath(processedPath)
	return c.get("prepare\x00"+raw+"\x00"+proc, func() (*Result, error) {
		return c.prepare(raw, proc, c.opts)
	})
}

// Load returns the memoized LoadCanonical result for the path.
func (c *Cache) Load(processedPath string) (*Result, error) {
	proc := absPath(processedPath)
	return c.get("load\x00"+proc, func() (*Result, error) {
		return c.load(proc, c.opts)
	})
}

// Invalidate drops every memoized result so the next call rebuilds. A build
// already in flight still answers its own callers but is not memoized.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	n := len(c.results)
	c.results = make(map[string]*Result)
	c.gen++
	c.mu.Unlock()
	zap.L().Debug("pipeline cache invalidated", zap.Int("entries", n))
}

func (c *Cache) get(key string, build func() (*Result, error)) (*Result, error) {
	c.mu.RLock()
	res, ok := c.results[key]
	gen := c.gen
	c.mu.RUnlock()
	if ok {
		return res, nil
	}
	// Builds are shared per generation, so callers arriving after an
	// Invalidate never join a build that started before it.
	flight := strconv.FormatUint(gen, 10) + "\x00" + key
	v, err, _ := c.group.Do(flight, func() (any, error) {
		c.mu.RLock()
		res, ok := c.results[key]
		c.mu.RUnlock()
		if ok {
			return res, nil
		}
		res, err := build()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.results[key] = res
		}
		c.mu.Unlock()
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func absPath(p string) string {
	if p == "" {
		return ""
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
