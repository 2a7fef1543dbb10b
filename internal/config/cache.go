package config

import "time"

// CacheConfig controls the Redis cache in front of the supplier. Search
// results and autosuggest answers have separate lifetimes.
type CacheConfig struct {
	Enabled        bool
	Prefix         string
	SearchTTL      time.Duration
	AutosuggestTTL time.Duration
}

func LoadCacheConfig() CacheConfig {
	c := CacheConfig{
		Enabled:        envBool("CACHE_ENABLED", true),
		Prefix:         envStr("CACHE_PREFIX", "hotels"),
		SearchTTL:      envDur("CACHE_SEARCH_TTL", 300*time.Second),
		AutosuggestTTL: envDur("CACHE_AUTOSUGGEST_TTL", 7200*time.Second),
	}
	if c.SearchTTL <= 0 {
		c.SearchTTL = 300 * time.Second
	}
	if c.AutosuggestTTL <= 0 {
		c.AutosuggestTTL = 7200 * time.Second
	}
	return c
}
