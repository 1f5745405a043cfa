package cache

import (
	"context"
	"errors"
	"fmt"
	"freight-settlement-service/internal/platform/obs"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateKeyPrefix = "rate:"

// RedisRateCache is a Redis-backed cache of per-plate rates.
// Plate keys are expected to be normalized by the caller.
type RedisRateCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisRateCache(client *redis.Client, ttl time.Duration) *RedisRateCache {
	return &RedisRateCache{Client: client, TTL: ttl}
}

func rateKey(plate string) string {
	return rateKeyPrefix + plate
}

// Fetch cached rates for the given plates. Misses are absent from the map.
func (c *RedisRateCache) GetMany(ctx context.Context, plates []string) (_ map[string]float64, err error) {
	defer obs.Time(ctx, "rates.cache.GetMany")(&err)

	if c.Client == nil {
		return nil, errors.New("rate cache: client is nil")
	}

	if len(plates) == 0 {
		return map[string]float64{}, nil
	}

	keys := make([]string, len(plates))
	for i, p := range plates {
		keys[i] = rateKey(p)
	}

	vals, err := c.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get rate cache: mget: %w", err)
	}

	out := make(map[string]float64, len(plates))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("get rate cache: decode %q: %w", keys[i], err)
		}
		out[plates[i]] = f
	}
	return out, nil
}

// Put stores the current rate of a plate, replacing any cached value.
func (c *RedisRateCache) Put(ctx context.Context, plate string, v float64) (err error) {
	defer obs.Time(ctx, "rates.cache.Put")(&err)

	if c.Client == nil {
		return errors.New("rate cache: client is nil")
	}
	if strings.TrimSpace(plate) == "" {
		return errors.New("put rate cache: empty plate key")
	}
	if err := c.Client.Set(ctx, rateKey(plate), formatRate(v), c.TTL).Err(); err != nil {
		return fmt.Errorf("put rate cache plate=%s: %w", plate, err)
	}
	return nil
}

// FillMany caches rates read from the store, one round trip.
// Keys that already exist are left alone: a value written by Put after the
// store read is newer than anything the reader saw.
func (c *RedisRateCache) FillMany(ctx context.Context, rates map[string]float64) (err error) {
	defer obs.Time(ctx, "rates.cache.FillMany")(&err)

	if c.Client == nil {
		return errors.New("rate cache: client is nil")
	}

	if len(rates) == 0 {
		return nil
	}

	pipe := c.Client.Pipeline()
	for plate, v := range rates {
		if strings.TrimSpace(plate) == "" {
			return errors.New("fill rate cache: empty plate key")
		}
		pipe.SetNX(ctx, rateKey(plate), formatRate(v), c.TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("fill rate cache: exec pipeline: %w", err)
	}
	return nil
}

// Drop a plate so the next read goes to the backing store.
func (c *RedisRateCache) Invalidate(ctx context.Context, plate string) error {
	if c.Client == nil {
		return errors.New("rate cache: client is nil")
	}
	if err := c.Client.Del(ctx, rateKey(plate)).Err(); err != nil {
		return fmt.Errorf("invalidate rate cache plate=%s: %w", plate, err)
	}
	return nil
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
