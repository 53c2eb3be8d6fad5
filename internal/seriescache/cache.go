// Package seriescache serves reference bar series keyed by (instrument,
// period). Lookups try process memory, then the optional remote backend,
// then the loader; a loaded series is written back to both layers.
package seriescache

import (
	"context"
	"fmt"
	"log"
	"sync"

	"trading-featuresv1/internal/metrics"
	"trading-featuresv1/internal/model"
)

// Loader produces a series from the bar store, e.g. read and resample.
type Loader func(ctx context.Context, key model.SeriesKey) ([]model.Bar, error)

type entry struct {
	ready chan struct{}
	bars  []model.Bar
	err   error
}

// Cache is safe for concurrent use. Concurrent requests for the same key
// share one load.
type Cache struct {
	load    Loader
	backend model.SeriesBackend // may be nil
	metrics *metrics.Metrics    // may be nil

	mu      sync.Mutex
	entries map[model.SeriesKey]*entry
}

// New creates a cache. backend and m may be nil.
func New(load Loader, backend model.SeriesBackend, m *metrics.Metrics) *Cache {
	return &Cache{
		load:    load,
		backend: backend,
		metrics: m,
		entries: make(map[model.SeriesKey]*entry),
	}
}

// Get returns the series for key. The returned slice is shared and must
// not be modified.
func (c *Cache) Get(ctx context.Context, key model.SeriesKey) ([]model.Bar, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		select {
		case <-e.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if e.err == nil {
			c.hit("memory")
		}
		return e.bars, e.err
	}
	e := &entry{ready: make(chan struct{})}
	c.entries[key] = e
	c.mu.Unlock()

	e.bars, e.err = c.fetch(ctx, key)
	if e.err != nil {
		// failed loads are not cached
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
	}
	close(e.ready)
	return e.bars, e.err
}

func (c *Cache) fetch(ctx context.Context, key model.SeriesKey) ([]model.Bar, error) {
	if c.backend != nil {
		bars, found, err := c.backend.GetSeries(ctx, key)
		switch {
		case err != nil:
			log.Printf("[seriescache] backend get %s: %v", key, err)
		case found:
			c.hit("redis")
			return bars, nil
		}
	}

	if c.metrics != nil {
		c.metrics.CacheMisses.Inc()
	}
	bars, err := c.load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("seriescache load %s: %w", key, err)
	}
	if c.backend != nil {
		if err := c.backend.PutSeries(ctx, key, bars); err != nil {
			log.Printf("[seriescache] backend put %s: %v", key, err)
		}
	}
	return bars, nil
}

func (c *Cache) hit(layer string) {
	if c.metrics != nil {
		c.metrics.CacheHits.WithLabelValues(layer).Inc()
	}
}

// Invalidate drops key from memory. The backend copy expires on its own.
func (c *Cache) Invalidate(key model.SeriesKey) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of series held in memory.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
