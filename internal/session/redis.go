package session

import (
	"context"
	"fmt"

	"arbpanel/internal/config"
	"arbpanel/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps the two credential fields as plain keys under a prefix.
type RedisStorage struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStorage(rdb *redis.Client, prefix string) *RedisStorage {
	return &RedisStorage{rdb: rdb, prefix: prefix}
}

// DialRedis connects and pings so a bad address fails at start-up.
func DialRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return rdb, nil
}

func (r *RedisStorage) keys() (string, string) {
	return r.prefix + KeyUser, r.prefix + KeySecret
}

func (r *RedisStorage) Load(ctx context.Context) (models.Credential, error) {
	userKey, secretKey := r.keys()
	vals, err := r.rdb.MGet(ctx, userKey, secretKey).Result()
	if err != nil {
		return models.Credential{}, fmt.Errorf("redis: mget: %w", err)
	}

	var cred models.Credential
	if s, ok := vals[0].(string); ok {
		cred.Username = s
	}
	if s, ok := vals[1].(string); ok {
		cred.Secret = s
	}
	return cred, nil
}

func (r *RedisStorage) Save(ctx context.Context, cred models.Credential) error {
	userKey, secretKey := r.keys()
	if err := r.rdb.MSet(ctx, userKey, cred.Username, secretKey, cred.Secret).Err(); err != nil {
		return fmt.Errorf("redis: mset: %w", err)
	}
	return nil
}

func (r *RedisStorage) Clear(ctx context.Context) error {
	userKey, secretKey := r.keys()
	if err := r.rdb.Del(ctx, userKey, secretKey).Err(); err != nil {
		return fmt.Errorf("redis: del: %w", err)
	}
	return nil
}
