package membership

import (
	"context"
	"encoding/json"
	"time"

	"clinic-workers/internal/common/logger"
	"clinic-workers/internal/common/metrics"
	"clinic-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyPrefix = "membership:current:"
	// noneMarker caches the absence of a membership.
	noneMarker = "none"
)

// Loader fetches a customer's current membership from the system of record.
type Loader func(ctx context.Context, customerID string) (*models.MembershipRecord, error)

// Cache is a read-through cache of each customer's current membership. Redis
// failures degrade to the loader.
type Cache struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCache(rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Cache{rdb: rdb, ttl: ttl, logger: log}
}

// CacheKey is the Redis key holding customerID's current membership.
func CacheKey(customerID string) string {
	return cacheKeyPrefix + customerID
}

// CurrentMembership returns the cached record or loads and caches it. A nil record
// with a nil error means the customer has no membership.
func (c *Cache) CurrentMembership(ctx context.Context, customerID string, load Loader) (*models.MembershipRecord, error) {
	if rec, hit := c.get(ctx, customerID); hit {
		return rec, nil
	}

	rec, err := load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	c.put(ctx, customerID, rec)
	return rec, nil
}

// Invalidate drops customerID's entry.
func (c *Cache) Invalidate(ctx context.Context, customerID string) error {
	return c.rdb.Del(ctx, CacheKey(customerID)).Err()
}

func (c *Cache) get(ctx context.Context, customerID string) (*models.MembershipRecord, bool) {
	val, err := c.rdb.Get(ctx, CacheKey(customerID)).Result()
	switch {
	case err == redis.Nil:
		metrics.MembershipCacheRequests.WithLabelValues("miss").Inc()
		return nil, false
	case err != nil:
		metrics.MembershipCacheRequests.WithLabelValues("error").Inc()
		c.logger.Debug("membership cache read failed", map[string]interface{}{
			"customerId": customerID,
			"error":      err.Error(),
		})
		return nil, false
	}

	if val == noneMarker {
		metrics.MembershipCacheRequests.WithLabelValues("hit").Inc()
		return nil, true
	}

	var rec models.MembershipRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		metrics.MembershipCacheRequests.WithLabelValues("error").Inc()
		c.logger.Debug("discarding unreadable membership cache entry", map[string]interface{}{
			"customerId": customerID,
			"error":      err.Error(),
		})
		return nil, false
	}
	metrics.MembershipCacheRequests.WithLabelValues("hit").Inc()
	return &rec, true
}

func (c *Cache) put(ctx context.Context, customerID string, rec *models.MembershipRecord) {
	value := noneMarker
	if rec != nil {
		data, err := json.Marshal(rec)
		if err != nil {
			return
		}
		value = string(data)
	}
	if err := c.rdb.Set(ctx, CacheKey(customerID), value, c.ttl).Err(); err != nil {
		c.logger.Debug("membership cache write failed", map[string]interface{}{
			"customerId": customerID,
			"error":      err.Error(),
		})
	}
}
