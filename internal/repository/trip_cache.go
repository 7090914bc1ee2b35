package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/bus-ticket-reservation/internal/model"
)

// TripCache is a read-through Redis cache for trips.  Trips are immutable
// as far as the reservation engine is concerned, so the cache only serves
// display paths (seat maps and quotes); purchases always read the trip
// inside their own transaction.  A nil client turns every call into a
// miss so the service degrades to the database when Redis is down.
type TripCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewTripCache builds a cache storing entries under prefix for ttl.
func NewTripCache(rdb *redis.Client, ttl time.Duration, prefix string) *TripCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if prefix == "" {
		prefix = "trip"
	}
	return &TripCache{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (c *TripCache) key(tripID string) string { return c.prefix + ":" + tripID }

// Get returns the cached trip and true on a hit.  Redis or decoding
// errors count as misses.
func (c *TripCache) Get(ctx context.Context, tripID string) (model.Trip, bool) {
	if c == nil || c.rdb == nil {
		return model.Trip{}, false
	}
	raw, err := c.rdb.Get(ctx, c.key(tripID)).Bytes()
	if err != nil {
		return model.Trip{}, false
	}
	var trip model.Trip
	if err := json.Unmarshal(raw, &trip); err != nil {
		return model.Trip{}, false
	}
	return trip, true
}

// Set stores trip.  Failures are ignored; the next read falls back to the
// database.
func (c *TripCache) Set(ctx context.Context, trip model.Trip) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(trip)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, c.key(trip.ID), raw, c.ttl).Err()
}
