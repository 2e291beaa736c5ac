package cache

import "github.com/prometheus/client_golang/prometheus"

// instrumentedCache counts reads around another Cache. Evictions are counted
// by the OnEvict hook New installs, and the entry gauge is read at scrape time.
type instrumentedCache struct {
	Cache
	group  string
	hits   prometheus.Counter
	misses prometheus.Counter
}

func newInstrumentedCache(inner Cache, group string) *instrumentedCache {
	registerEntries(group, inner.Len)
	return &instrumentedCache{
		Cache:  inner,
		group:  group,
		hits:   HitsTotal.WithLabelValues(group),
		misses: MissesTotal.WithLabelValues(group),
	}
}

func (c *instrumentedCache) Get(key string) ([]byte, bool) {
	val, ok := c.Cache.Get(key)
	if ok {
		c.hits.Inc()
	} else {
		c.misses.Inc()
	}
	return val, ok
}

// Close drops the entry gauge before closing the wrapped cache.
func (c *instrumentedCache) Close() error {
	unregisterEntries(c.group)
	return c.Cache.Close()
}
