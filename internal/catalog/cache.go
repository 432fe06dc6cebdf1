package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// cacheEntry holds a search result with its expiration time
type cacheEntry struct {
	scenes    []Scene
	expiresAt time.Time
}

// CachingSource wraps a SceneSource with an in-memory TTL cache keyed
// by search parameters. Suitable for single-instance deployments; for
// distributed deployments use a shared cache backend instead.
type CachingSource struct {
	source   SceneSource
	mu       sync.RWMutex
	entries  map[string]cacheEntry
	ttl      time.Duration
	stopChan chan struct{}
}

// NewCachingSource wraps source with a cache.
// ttl specifies how long search results are kept before expiration.
// cleanupInterval specifies how often to run the cleanup routine.
func NewCachingSource(source SceneSource, ttl, cleanupInterval time.Duration) *CachingSource {
	c := &CachingSource{
		source:   source,
		entries:  make(map[string]cacheEntry),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}

	go c.cleanupLoop(cleanupInterval)

	return c
}

// Name implements SceneSource, reporting the wrapped source's name.
func (c *CachingSource) Name() string { return c.source.Name() }

// Search returns a cached result when a fresh one exists for the same
// parameters, otherwise delegates to the wrapped source.
func (c *CachingSource) Search(ctx context.Context, params SearchParams) ([]Scene, error) {
	key := cacheKey(params)

	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()
	if exists && time.Now().Before(entry.expiresAt) {
		return entry.scenes, nil
	}

	scenes, err := c.source.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{
		scenes:    scenes,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()

	return scenes, nil
}

// Stop stops the background cleanup goroutine.
func (c *CachingSource) Stop() {
	close(c.stopChan)
}

// Stats returns the number of cached searches.
func (c *CachingSource) Stats() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// cleanupLoop periodically removes expired entries.
func (c *CachingSource) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopChan:
			return
		}
	}
}

// cleanup removes all expired entries.
func (c *CachingSource) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// cacheKey builds a stable string key from search parameters.
func cacheKey(p SearchParams) string {
	var b strings.Builder
	fmt.Fprintf(&b, "c=%s", p.Collection)
	if p.Start != nil {
		fmt.Fprintf(&b, "|s=%d", p.Start.Unix())
	}
	if p.End != nil {
		fmt.Fprintf(&b, "|e=%d", p.End.Unix())
	}
	if len(p.BBox) > 0 {
		bbox := make([]string, len(p.BBox))
		for i, v := range p.BBox {
			bbox[i] = fmt.Sprintf("%.6f", v)
		}
		fmt.Fprintf(&b, "|b=%s", strings.Join(bbox, ","))
	}
	fmt.Fprintf(&b, "|cc=%.2f|l=%d", p.MaxCloudCover, p.Limit)
	return b.String()
}
