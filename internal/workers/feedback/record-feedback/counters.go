package recordfeedback

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Counters keeps a per-rate tally in a Redis hash.
type Counters struct {
	client *redis.Client
	key    string
}

func NewCounters(client *redis.Client, key string) *Counters {
	return &Counters{client: client, key: key}
}

func (c *Counters) Increment(ctx context.Context, rate int) error {
	return c.client.HIncrBy(ctx, c.key, strconv.Itoa(rate), 1).Err()
}

func (c *Counters) Load(ctx context.Context) (map[int]int64, error) {
	fields, err := c.client.HGetAll(ctx, c.key).Result()
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int64, len(fields))
	for field, value := range fields {
		rate, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", field, err)
		}
		counts[rate] = n
	}
	return counts, nil
}
