package mapbox

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/rockfall-risk-service/internal/domain"
	"github.com/couchcryptid/rockfall-risk-service/internal/observability"
)

// CachedLocator wraps a SiteLocator with an in-memory LRU keyed by the
// coordinate rounded to ~100 m, so repeated submissions of the same site do
// not hit the API.
type CachedLocator struct {
	inner   domain.SiteLocator
	metrics *observability.Metrics

	mu         sync.Mutex
	maxEntries int
	order      *list.List // front = most recently used
	entries    map[string]*list.Element
}

type cacheEntry struct {
	key   string
	label domain.SiteLabel
}

// NewCachedLocator creates a cache decorator around a locator.
func NewCachedLocator(inner domain.SiteLocator, maxEntries int, metrics *observability.Metrics) *CachedLocator {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &CachedLocator{
		inner:      inner,
		metrics:    metrics,
		maxEntries: maxEntries,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

// ReverseGeocode implements domain.SiteLocator.
func (c *CachedLocator) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.SiteLabel, error) {
	key := fmt.Sprintf("%.3f,%.3f", lat, lon)
	if label, ok := c.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return label, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	label, err := c.inner.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return label, err
	}
	// Only cache matches so a transient "not found" can be retried.
	if label.FormattedAddress != "" {
		c.put(key, label)
	}
	return label, nil
}

// Len reports the number of cached labels.
func (c *CachedLocator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *CachedLocator) get(key string) (domain.SiteLabel, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return domain.SiteLabel{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).label, true
}

func (c *CachedLocator) put(key string, label domain.SiteLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).label = label
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, label: label})
	if c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}
