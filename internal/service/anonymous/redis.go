package anonymous

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "printshop:anon:"

// RedisSessions keeps sessions in Redis so every API instance sees them.
type RedisSessions struct {
	client *redis.Client
}

func NewRedisSessions(addr, password string, db int) *RedisSessions {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisSessions{client: client}
}

func (r *RedisSessions) Save(ctx context.Context, token string, ttl time.Duration) error {
	return r.client.Set(ctx, sessionKeyPrefix+token, time.Now().UTC().Format(time.RFC3339), ttl).Err()
}

func (r *RedisSessions) Exists(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *RedisSessions) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisSessions) Close() error {
	return r.client.Close()
}
