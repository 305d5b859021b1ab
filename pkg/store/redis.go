package store

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisKeyPrefix namespaces every slot written to Redis.
const RedisKeyPrefix = "resumeforge:"

// RedisKV stores slots as plain Redis strings.
type RedisKV struct {
	client *redis.Client
	prefix string
}

// NewRedisKV parses redisURL, connects and verifies the connection with a ping.
func NewRedisKV(ctx context.Context, redisURL string) (kv *RedisKV, err error) {
	var opts *redis.Options
	opts, err = redis.ParseURL(redisURL)
	if err != nil {
		err = errors.Wrap(err, "failed to parse redis URL")
		return kv, err
	}

	client := redis.NewClient(opts)
	err = client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()
		err = errors.Wrap(err, "redis ping failed")
		return kv, err
	}

	kv = &RedisKV{
		client: client,
		prefix: RedisKeyPrefix,
	}
	return kv, err
}

// Load returns the value stored under key.
func (r *RedisKV) Load(ctx context.Context, key string) (value string, ok bool, err error) {
	value, err = r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		err = nil
		return value, ok, err
	}
	if err != nil {
		err = errors.Wrapf(err, "failed to load %s from redis", key)
		return value, ok, err
	}

	ok = true
	return value, ok, err
}

// Save stores value under key with no expiry.
func (r *RedisKV) Save(ctx context.Context, key, value string) (err error) {
	err = r.client.Set(ctx, r.prefix+key, value, 0).Err()
	if err != nil {
		err = errors.Wrapf(err, "failed to save %s to redis", key)
		return err
	}
	return err
}

// Delete removes key.
func (r *RedisKV) Delete(ctx context.Context, key string) (err error) {
	err = r.client.Del(ctx, r.prefix+key).Err()
	if err != nil {
		err = errors.Wrapf(err, "failed to delete %s from redis", key)
		return err
	}
	return err
}

// Close releases the connection pool.
func (r *RedisKV) Close() (err error) {
	err = r.client.Close()
	return err
}
