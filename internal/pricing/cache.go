package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pointfindr/points-cli/internal/model"
)

// QuoteCache persists quote payloads keyed by route/date/cabin. Implemented
// by the store; a cache miss is (nil, nil).
type QuoteCache interface {
	GetCachedQuote(ctx context.Context, key string) ([]byte, error)
	SetCachedQuote(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// Cached wraps an oracle with a TTL cache so repeated enrichment of the same
// (route, date, cabin) within the TTL window skips the network. Cache
// failures fall through to the live oracle and are never surfaced.
type Cached struct {
	oracle Oracle
	cache  QuoteCache
	ttl    time.Duration
}

// NewCached creates a caching oracle wrapper.
func NewCached(oracle Oracle, cache QuoteCache, ttl time.Duration) *Cached {
	return &Cached{oracle: oracle, cache: cache, ttl: ttl}
}

func (c *Cached) Name() string { return c.oracle.Name() }

func (c *Cached) Quote(ctx context.Context, route model.Route, date string, cabin model.Cabin) ([]Fare, error) {
	key := fmt.Sprintf("%s:%s:%s:%s", route.Origin, route.Destination, date, cabin)

	if data, err := c.cache.GetCachedQuote(ctx, key); err != nil {
		zap.L().Warn("pricing: quote cache read failed", zap.String("key", key), zap.Error(err))
	} else if data != nil {
		var fares []Fare
		if err := json.Unmarshal(data, &fares); err == nil {
			return fares, nil
		}
		zap.L().Warn("pricing: discarding corrupt cached quote", zap.String("key", key))
	}

	fares, err := c.oracle.Quote(ctx, route, date, cabin)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(fares); err == nil {
		if err := c.cache.SetCachedQuote(ctx, key, data, c.ttl); err != nil {
			zap.L().Warn("pricing: quote cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return fares, nil
}
