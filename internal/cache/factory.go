package cache

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Belphemur/CueLoop/internal/config"
)

// PayloadGroup labels the parsed-payload cache in metrics.
const PayloadGroup = "payloads"

// ProviderConfig configures a cache instance.
type ProviderConfig struct {
	// Size bounds the number of entries.
	Size int

	// TTL expires entries that were not rewritten in time.
	TTL time.Duration

	// OnEvict is called for capacity evictions when the provider supports it.
	OnEvict EvictCallback

	// Logger receives provider errors. Nil discards them.
	Logger Logger

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	// KeyPrefix namespaces the Redis keys. Defaults to "cueloop:".
	KeyPrefix string

	// Group, when set, wraps the cache with hit, miss, eviction and entry
	// metrics labelled cache=<Group>.
	Group string
}

// Provider builds a Cache from its configuration.
type Provider func(cfg ProviderConfig) (Cache, error)

var (
	mu        sync.RWMutex
	providers = make(map[string]Provider)
)

// Register makes a provider available under name. Registering nil or a name
// twice panics.
func Register(name string, p Provider) {
	mu.Lock()
	defer mu.Unlock()

	if p == nil {
		panic("cache: Register provider is nil")
	}
	if _, exists := providers[name]; exists {
		panic(fmt.Sprintf("cache: provider %q already registered", name))
	}
	providers[name] = p
}

// New builds a cache with the named provider. A non-empty cfg.Group adds
// metric instrumentation; evictions are counted before the caller's OnEvict
// runs.
func New(name string, cfg ProviderConfig) (Cache, error) {
	mu.RLock()
	p, ok := providers[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("cache: unknown provider %q (registered: %v)", name, RegisteredProviders())
	}

	if cfg.Group == "" {
		return p(cfg)
	}

	group := cfg.Group
	callerEvict := cfg.OnEvict
	cfg.OnEvict = func(key string, value []byte) {
		EvictionsTotal.WithLabelValues(group).Inc()
		if callerEvict != nil {
			callerEvict(key, value)
		}
	}

	inner, err := p(cfg)
	if err != nil {
		return nil, err
	}
	return newInstrumentedCache(inner, group), nil
}

// NewPayloadCache builds the parsed-payload cache from the application
// configuration.
func NewPayloadCache(cfg *config.Config) (Cache, error) {
	ttl := config.Duration(cfg.Cache.TTL, time.Hour)
	size := cfg.Cache.Size
	if size <= 0 {
		size = 64
	}
	provider := cfg.Cache.Provider
	if provider == "" {
		provider = "memory"
	}

	return New(provider, ProviderConfig{
		Size:          size,
		TTL:           ttl,
		Logger:        NewZerologLogger(config.GetLogger()),
		RedisAddress:  cfg.Cache.Redis.Address,
		RedisPassword: cfg.Cache.Redis.Password,
		RedisDB:       cfg.Cache.Redis.DB,
		KeyPrefix:     defaultKeyPrefix,
		Group:         PayloadGroup,
	})
}

// RegisteredProviders lists provider names in sorted order.
func RegisteredProviders() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
