package blacklist

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "blacklist:refresh:"

// Redis relies on key TTLs for pruning.
type Redis struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, now: time.Now}
}

// DialRedis parses a redis:// URL and checks the connection.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	const op = "blacklist.DialRedis"

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return client, nil
}

func (r *Redis) Add(ctx context.Context, jti, userID string, expiresAt time.Time) (bool, error) {
	const op = "blacklist.Redis.Add"

	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		// already expired: nothing to remember, but report it as revoked now
		return true, nil
	}

	ok, err := r.client.SetNX(ctx, redisKeyPrefix+jti, userID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}

func (r *Redis) Contains(ctx context.Context, jti string) (bool, error) {
	const op = "blacklist.Redis.Contains"

	n, err := r.client.Exists(ctx, redisKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}
