// README: Conversation store backed by Redis with a sliding TTL.
package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"wander/internal/types"
)

const sessionKeyPrefix = "conversation:session:%s"

// RedisStore keeps contexts under a per-session key. The TTL matches the
// idle timeout so abandoned sessions expire on their own.
type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{redis: client, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, c *Context) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, sessionKey(c.SessionID), raw, s.ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id types.ID) (*Context, error) {
	val, err := s.redis.Get(ctx, sessionKey(id)).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var c Context
	if err := json.Unmarshal([]byte(val), &c); err != nil {
		return nil, ErrBadContext
	}
	return &c, nil
}

func (s *RedisStore) Delete(ctx context.Context, id types.ID) error {
	return s.redis.Del(ctx, sessionKey(id)).Err()
}

func sessionKey(id types.ID) string {
	return fmt.Sprintf(sessionKeyPrefix, string(id))
}
