package mapbox

import (
	"container/list"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/couchcryptid/disaster-hotspots/internal/domain"
	"github.com/couchcryptid/disaster-hotspots/internal/observability"
)

// CachedGeocoder memoizes non-empty lookups in a bounded LRU.
type CachedGeocoder struct {
	inner   domain.Geocoder
	metrics *observability.Metrics
	cache   *lru
}

// NewCachedGeocoder wraps inner with a cache holding at most size entries.
func NewCachedGeocoder(inner domain.Geocoder, size int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{inner: inner, metrics: metrics, cache: newLRU(size)}
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, name, region string) (domain.GeocodingResult, error) {
	key := "fwd:" + strings.ToLower(strings.TrimSpace(name)) + "|" + strings.ToLower(strings.TrimSpace(region))
	return c.cached("forward", key, func() (domain.GeocodingResult, error) {
		return c.inner.ForwardGeocode(ctx, name, region)
	})
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	key := fmt.Sprintf("rev:%.6f,%.6f", lat, lon)
	return c.cached("reverse", key, func() (domain.GeocodingResult, error) {
		return c.inner.ReverseGeocode(ctx, lat, lon)
	})
}

func (c *CachedGeocoder) cached(method, key string, miss func() (domain.GeocodingResult, error)) (domain.GeocodingResult, error) {
	if result, ok := c.cache.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues(method, "hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues(method, "miss").Inc()

	result, err := miss()
	if err != nil {
		return result, err
	}
	// Empty answers are not cached so they are retried next time.
	if result.FormattedAddress != "" {
		c.cache.put(key, result)
	}
	return result, nil
}

type lru struct {
	mu    sync.Mutex
	size  int
	order *list.List // front is most recently used
	items map[string]*list.Element
}

type lruItem struct {
	key   string
	value domain.GeocodingResult
}

func newLRU(size int) *lru {
	if size < 1 {
		size = 1
	}
	return &lru{size: size, order: list.New(), items: make(map[string]*list.Element)}
}

func (l *lru) get(key string) (domain.GeocodingResult, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	el, ok := l.items[key]
	if !ok {
		return domain.GeocodingResult{}, false
	}
	l.order.MoveToFront(el)
	return el.Value.(*lruItem).value, true
}

func (l *lru) put(key string, value domain.GeocodingResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if el, ok := l.items[key]; ok {
		el.Value.(*lruItem).value = value
		l.order.MoveToFront(el)
		return
	}
	l.items[key] = l.order.PushFront(&lruItem{key: key, value: value})
	for l.order.Len() > l.size {
		oldest := l.order.Back()
		l.order.Remove(oldest)
		delete(l.items, oldest.Value.(*lruItem).key)
	}
}

func (l *lru) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.order.Len()
}
