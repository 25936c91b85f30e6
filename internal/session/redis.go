package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/salesflow/internal/domain"
)

const defaultRedisPrefix = "salesflow:"

// RedisStore keeps each session as a JSON string with a native TTL and indexes
// tokens in a sorted set scored by expiry so Sweep can find stale entries.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore builds a store on client. A nil clock defaults to time.Now.
func NewRedisStore(client *redis.Client, now func() time.Time) *RedisStore {
	return &RedisStore{client: client, prefix: defaultRedisPrefix, now: clockOrDefault(now)}
}

func (r *RedisStore) key(token string) string {
	return r.prefix + "sess:" + token
}

func (r *RedisStore) indexKey() string {
	return r.prefix + "sess:expiry"
}

func (r *RedisStore) Put(ctx context.Context, s *domain.Session) error {
	if s == nil || s.Token == "" {
		return errors.New("session token required")
	}
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return r.Delete(ctx, s.Token)
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(s.Token), data, ttl)
		pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: float64(s.ExpiresAt.UnixMilli()), Member: s.Token})
		return nil
	})
	return err
}

func (r *RedisStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	data, err := r.client.Get(ctx, r.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if s.Expired(r.now()) {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *RedisStore) Delete(ctx context.Context, token string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key(token))
		pipe.ZRem(ctx, r.indexKey(), token)
		return nil
	})
	return err
}

func (r *RedisStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	tokens, err := r.client.ZRangeByScore(ctx, r.indexKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, err
	}
	if len(tokens) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(tokens))
	members := make([]any, 0, len(tokens))
	for _, token := range tokens {
		keys = append(keys, r.key(token))
		members = append(members, token)
	}

	var removed *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		removed = pipe.ZRem(ctx, r.indexKey(), members...)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(removed.Val()), nil
}
