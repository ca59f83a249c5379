package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/fleettrack/fleettrack/pkg/fleetdf"
	"github.com/redis/go-redis/v9"
)

const bindingCacheExpiration = 30 * time.Minute

// unboundMarker is cached for vehicles with no binding so the hot path
// doesn't re-query the store on every transition of an unbound vehicle.
const unboundMarker = "N/A"

// CachedBindingSource caches vehicle binding lookups in redis as JSON
// strings in front of the backing store.
type CachedBindingSource struct {
	source BindingSource

	cache *cache.Cache[string]
}

func NewCachedBindingSource(client *redis.Client, source BindingSource) *CachedBindingSource {
	redisStore := redisstore.NewRedis(client, store.WithExpiration(bindingCacheExpiration))

	return &CachedBindingSource{
		source: source,
		cache:  cache.New[string](redisStore),
	}
}

func (c *CachedBindingSource) VehicleBinding(ctx context.Context, plateNumber string) (*fleetdf.VehicleBinding, error) {
	cacheKey := fmt.Sprintf("vehicle_binding:%s", plateNumber)

	cachedBinding, _ := c.cache.Get(ctx, cacheKey)

	if cachedBinding == unboundMarker {
		return nil, nil
	}

	if cachedBinding != "" {
		var binding fleetdf.VehicleBinding
		if err := json.Unmarshal([]byte(cachedBinding), &binding); err == nil {
			return &binding, nil
		}
	}

	binding, err := c.source.VehicleBinding(ctx, plateNumber)
	if err != nil {
		return nil, err
	}

	if binding == nil {
		c.cache.Set(ctx, cacheKey, unboundMarker)
		return nil, nil
	}

	bindingJSON, _ := json.Marshal(binding)
	c.cache.Set(ctx, cacheKey, string(bindingJSON))

	return binding, nil
}
