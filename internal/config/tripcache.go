package config

import "time"

// TripCacheConfig controls the Redis read-through cache for trips used by
// the seat map and quote endpoints.
type TripCacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

func LoadTripCacheConfig() TripCacheConfig {
	cfg := TripCacheConfig{
		Enabled: envBool("TRIP_CACHE_ENABLED", true),
		TTL:     envDur("TRIP_CACHE_TTL", 30*time.Second),
		Prefix:  envStr("TRIP_CACHE_PREFIX", "trip"),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	return cfg
}
