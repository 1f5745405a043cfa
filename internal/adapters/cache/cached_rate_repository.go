package cache

import (
	"context"
	"errors"
	"fmt"
	"freight-settlement-service/internal/domain"
	"freight-settlement-service/internal/platform/metrics"
	"freight-settlement-service/internal/ports"
	"log"
	"strings"
)

// CachedRateRepository implements RateRepository as a read-through cache
// in front of another RateRepository.
//
// Cache failures never fail a request: reads fall through to the backing
// store and write errors are logged. Upserts write the store and then SET
// the new value; misses are filled with SETNX, so a reader that loaded an
// older rate from the store cannot overwrite the value of a later upsert.
type CachedRateRepository struct {
	next  ports.RateRepository
	cache *RedisRateCache
}

func NewCachedRateRepository(next ports.RateRepository, cache *RedisRateCache) (*CachedRateRepository, error) {
	if next == nil {
		return nil, errors.New("cached rate repository: backing repository is nil")
	}
	return &CachedRateRepository{next: next, cache: cache}, nil
}

func (c *CachedRateRepository) UpsertRate(ctx context.Context, rate domain.Rate) error {
	if err := c.next.UpsertRate(ctx, rate); err != nil {
		return err
	}
	if c.cache == nil {
		return nil
	}
	if err := c.cache.Put(ctx, rate.Plate, rate.PerKmValue); err != nil {
		log.Printf("rate cache put failed plate=%s err=%v", rate.Plate, err)
		metrics.IncRateCache("error")
		if err := c.cache.Invalidate(ctx, rate.Plate); err != nil {
			log.Printf("rate cache invalidate failed plate=%s err=%v", rate.Plate, err)
		}
	}
	return nil
}

// ListRates is not cached; it is an administrative listing.
func (c *CachedRateRepository) ListRates(ctx context.Context) ([]domain.Rate, error) {
	return c.next.ListRates(ctx)
}

func (c *CachedRateRepository) RatesForPlates(ctx context.Context, plates []string) (map[string]float64, error) {
	seen := make(map[string]struct{}, len(plates))
	uniq := make([]string, 0, len(plates))
	for _, p := range plates {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		uniq = append(uniq, p)
	}

	if len(uniq) == 0 {
		return map[string]float64{}, nil
	}

	hits := make(map[string]float64)
	// Check Redis before going to the database.
	if c.cache != nil {
		var err error
		hits, err = c.cache.GetMany(ctx, uniq)
		if err != nil {
			log.Printf("rate cache read failed, using store: %v", err)
			metrics.IncRateCache("error")
			hits = make(map[string]float64)
		}
	}

	misses := make([]string, 0, len(uniq))
	for _, p := range uniq {
		if _, ok := hits[p]; ok {
			metrics.IncRateCache("hit")
			continue
		}
		metrics.IncRateCache("miss")
		misses = append(misses, p)
	}

	if len(misses) == 0 {
		return hits, nil
	}

	fresh, err := c.next.RatesForPlates(ctx, misses)
	if err != nil {
		return nil, fmt.Errorf("rates for plates: %w", err)
	}

	if c.cache != nil && len(fresh) > 0 {
		if err := c.cache.FillMany(ctx, fresh); err != nil {
			log.Printf("rate cache write failed: %v", err)
		}
	}

	for k, v := range fresh {
		hits[k] = v
	}
	return hits, nil
}
