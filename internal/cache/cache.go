// Package cache stores parsed subtitle payloads so a re-fetched payload does
// not have to be parsed again. Providers are pluggable: an in-process LRU, or
// Redis/Valkey when several browser profiles share one bridge.
package cache

// EvictCallback is invoked when an entry leaves the cache because of capacity.
// Providers that evict server-side pass a nil value.
type EvictCallback func(key string, value []byte)

// Cache is a bounded key-value store with least-recently-used eviction.
type Cache interface {
	// Get returns the value for key and refreshes its recency.
	Get(key string) ([]byte, bool)

	// Set stores value under key, replacing any previous value.
	Set(key string, value []byte)

	// Contains reports whether key is present without refreshing its recency.
	Contains(key string) bool

	// Len returns the number of entries. Shared backends count every entry
	// under the configured key prefix.
	Len() int

	// Close releases connections held by the provider.
	Close() error
}
