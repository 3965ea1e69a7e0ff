package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/debemdeboas/mediafront/internal/model"
	"github.com/debemdeboas/mediafront/internal/util/compression"
)

const redisKeyPrefix = "mediafront:session:"

func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: addr,
	})
}

type RedisStore struct {
	client *redis.Client
	codec  compression.Compressor
	ttl    time.Duration
}

// NewRedisStore relies on key expiry for the ttl; zero keeps keys forever.
func NewRedisStore(client *redis.Client, codec compression.Compressor, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, codec: codec, ttl: ttl}
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

func (s *RedisStore) get(ctx context.Context, id string) (*model.ControllerState, error) {
	blob, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	return decode(s.codec, blob)
}

func (s *RedisStore) Load(ctx context.Context, id string) (*model.ControllerState, error) {
	state, err := s.get(ctx, id)
	return loadOrFresh(id, state, err)
}

func (s *RedisStore) Save(ctx context.Context, id string, state *model.ControllerState) error {
	blob, err := encode(s.codec, state)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisKey(id), blob, s.ttl).Err(); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
