package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"crop-advisor/advisory"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "advisory:"

// Redis stores results as JSON under advisory:<key> with a server-side TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration

	hits   atomic.Uint64
	misses atomic.Uint64
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func redisKey(key string) string { return redisKeyPrefix + key }

func (r *Redis) Get(ctx context.Context, key string) (advisory.Result, bool, error) {
	raw, err := r.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.misses.Add(1)
		return advisory.Result{}, false, nil
	}
	if err != nil {
		return advisory.Result{}, false, fmt.Errorf("redis get: %w", err)
	}

	res, err := decodeResult(raw)
	if err != nil {
		r.misses.Add(1)
		return advisory.Result{}, false, err
	}
	r.hits.Add(1)
	return res, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, res advisory.Result) error {
	raw, err := encodeResult(res)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, redisKey(key), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Purge deletes every advisory:* key. It walks the keyspace with SCAN so a
// large cache does not block the server.
func (r *Redis) Purge(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(batch) > 0 {
		if err := r.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
	}
	return nil
}

// Stats counts entries with SCAN; -1 means the count could not be taken.
func (r *Redis) Stats(ctx context.Context) Stats {
	var n int64
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if iter.Err() != nil {
		n = -1
	}
	return Stats{
		Backend: "redis",
		Entries: n,
		Hits:    r.hits.Load(),
		Misses:  r.misses.Load(),
		TTL:     r.ttl,
	}
}

func encodeResult(res advisory.Result) ([]byte, error) {
	raw, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encode cached result: %w", err)
	}
	return raw, nil
}

func decodeResult(raw []byte) (advisory.Result, error) {
	var res advisory.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return advisory.Result{}, fmt.Errorf("decode cached result: %w", err)
	}
	return res, nil
}
