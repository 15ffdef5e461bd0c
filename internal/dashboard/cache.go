package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	statsCacheKey      = "dashboard:stats"
	statsGenerationKey = "dashboard:stats:gen"
)

// Stats is the full payload of the metrics view.
type Stats struct {
	Counters    PipelineCounters `json:"counters"`
	Charts      Charts           `json:"charts"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// StatsCache keeps the last computed Stats in Redis until the applicant
// table changes or the TTL passes.
type StatsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStatsCache(rdb *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached stats; ok is false on a miss.
func (c *StatsCache) Get(ctx context.Context) (*Stats, bool, error) {
	raw, err := c.rdb.Get(ctx, statsCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read stats cache: %w", err)
	}
	var s Stats
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false, fmt.Errorf("decode stats cache: %w", err)
	}
	return &s, true, nil
}

func (c *StatsCache) Set(ctx context.Context, s *Stats) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode stats cache: %w", err)
	}
	return c.rdb.Set(ctx, statsCacheKey, payload, c.ttl).Err()
}

// Generation is bumped by every Invalidate. Read it before computing stats
// and pass it to SetIfGeneration.
func (c *StatsCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, statsGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read stats generation: %w", err)
	}
	return gen, nil
}

// SetIfGeneration stores s only while no invalidation happened since gen
// was read. stored is false when the payload was discarded.
func (c *StatsCache) SetIfGeneration(ctx context.Context, s *Stats, gen int64) (stored bool, err error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return false, fmt.Errorf("encode stats cache: %w", err)
	}

	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, statsGenerationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, statsCacheKey, payload, c.ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, statsGenerationKey)

	switch {
	case errors.Is(err, redis.TxFailedErr):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("write stats cache: %w", err)
	}
	return stored, nil
}

// Invalidate drops the cached stats and bumps the generation so in-flight
// computations started earlier cannot write their result back.
func (c *StatsCache) Invalidate(ctx context.Context) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, statsGenerationKey)
		pipe.Del(ctx, statsCacheKey)
		return nil
	})
	return err
}
