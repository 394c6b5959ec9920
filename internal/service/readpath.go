package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gatherhub/events-service/internal/cache"
)

// cacheAside serves a logical read through the cache. On a hit the previously
// serialized payload is returned verbatim, with no re-validation against the
// store. On a miss the payload is computed, serialized once, stored under key
// with the given TTL, and returned. Cache failures on either side never fail
// the read; the Store contract collapses them into misses and logged no-ops.
func cacheAside(ctx context.Context, store cache.Store, key string, ttl time.Duration, compute func() (interface{}, error)) (json.RawMessage, error) {
	if cached, ok := store.Get(ctx, key); ok {
		return json.RawMessage(cached), nil
	}

	payload, err := compute()
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	store.Set(ctx, key, string(data), ttl)
	return data, nil
}
