package pipeline

import (
	"sync"

	"go.uber.org/zap"
)

// Cache keeps one Pipeline per configuration key. It is created once by the binary and handed
// to whoever needs pipelines; there is no package level instance.
type Cache struct {
	mu        sync.Mutex
	logger    *zap.Logger
	pipelines map[string]*Pipeline
}

// NewCache creates an empty cache. Pipelines it builds log through logger.
func NewCache(logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		logger:    logger,
		pipelines: make(map[string]*Pipeline),
	}
}

// Get returns the pipeline for opts, building it on first use
func (c *Cache) Get(opts Options) (*Pipeline, error) {
	key := opts.Key()
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pipelines[key]; ok {
		return p, nil
	}
	p, err := New(opts, c.logger)
	if err != nil {
		return nil, err
	}
	c.pipelines[key] = p
	c.logger.Info("Pipeline created", zap.String("key", key), zap.Int("cached", len(c.pipelines)))
	return p, nil
}

// Len returns the number of cached pipelines
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pipelines)
}
