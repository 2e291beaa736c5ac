package cache

import (
	"bytes"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

func init() {
	Register("memory", newMemoryCache)
}

// memoryCache keeps parsed payloads in-process. Entries expire TTL after they
// were written; when full, the least recently read entry goes first. Values
// are copied on write so callers may reuse their buffers.
type memoryCache struct {
	lru *expirable.LRU[string, []byte]
}

func newMemoryCache(cfg ProviderConfig) (Cache, error) {
	var onEvict expirable.EvictCallback[string, []byte]
	if cfg.OnEvict != nil {
		onEvict = expirable.EvictCallback[string, []byte](cfg.OnEvict)
	}
	return &memoryCache{lru: expirable.NewLRU(cfg.Size, onEvict, cfg.TTL)}, nil
}

func (m *memoryCache) Get(key string) ([]byte, bool) {
	return m.lru.Get(key)
}

func (m *memoryCache) Set(key string, value []byte) {
	m.lru.Add(key, bytes.Clone(value))
}

func (m *memoryCache) Contains(key string) bool {
	return m.lru.Contains(key)
}

func (m *memoryCache) Len() int {
	return m.lru.Len()
}

func (m *memoryCache) Close() error {
	return nil
}
