package cache

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
)

const viewKeyPrefix = "views:"

// ViewCounter buffers public-page view increments in Redis until the flush
// job folds them into the sites table. Counts are approximate under crashes.
type ViewCounter struct {
	client *redis.Client
}

func NewViewCounter(client *redis.Client) *ViewCounter {
	return &ViewCounter{client: client}
}

func (v *ViewCounter) Record(ctx context.Context, slug string) error {
	return v.client.Incr(ctx, viewKeyPrefix+slug).Err()
}

// Drain atomically takes the buffered counts, keyed by slug. Slugs whose
// value fails to parse are skipped.
func (v *ViewCounter) Drain(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)

	iter := v.client.Scan(ctx, 0, viewKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		val, err := v.client.GetDel(ctx, key).Int64()
		if err != nil {
			continue
		}
		slug := strings.TrimPrefix(key, viewKeyPrefix)
		counts[slug] += val
	}
	if err := iter.Err(); err != nil {
		return counts, err
	}
	return counts, nil
}
