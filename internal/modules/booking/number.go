// README: Booking number generators (time + random suffix, or Redis sequence).
package booking

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

type NumberGenerator interface {
	Next(ctx context.Context) (string, error)
}

const numberPrefix = "BK"

// TimeRandomNumbers produces "BK" + unix millis + a 4-digit random suffix.
// Uniqueness is probabilistic; Service.Create retries on collision.
type TimeRandomNumbers struct {
	now func() time.Time
}

func NewTimeRandomNumbers() *TimeRandomNumbers {
	return &TimeRandomNumbers{now: time.Now}
}

func (g *TimeRandomNumbers) Next(ctx context.Context) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d%04d", numberPrefix, g.now().UnixMilli(), n.Int64()), nil
}

// RedisSequenceNumbers draws from a Redis counter, giving strictly
// increasing numbers shared by every API instance.
type RedisSequenceNumbers struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

func NewRedisSequenceNumbers(client *redis.Client, key string) *RedisSequenceNumbers {
	if key == "" {
		key = "booking:number:seq"
	}
	return &RedisSequenceNumbers{client: client, key: key, now: time.Now}
}

func (g *RedisSequenceNumbers) Next(ctx context.Context) (string, error) {
	seq, err := g.client.Incr(ctx, g.key).Result()
	if err != nil {
		return "", fmt.Errorf("incr %s: %w", g.key, err)
	}
	return fmt.Sprintf("%s%s%08d", numberPrefix, g.now().UTC().Format("20060102"), seq), nil
}
