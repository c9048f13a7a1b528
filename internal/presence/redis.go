package presence

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "presence:"

// RedisStore keeps presence entries as presence:<userId> keys with a TTL,
// shared across all server processes.
type RedisStore struct {
	client redis.UniversalClient
	log    *zap.SugaredLogger
}

func NewRedisStore(client redis.UniversalClient, log *zap.SugaredLogger) *RedisStore {
	return &RedisStore{client: client, log: log}
}

func (s *RedisStore) Set(ctx context.Context, userID, socketID string) {
	if err := s.client.Set(ctx, keyPrefix+userID, socketID, TTL).Err(); err != nil {
		s.log.Warnf("[Presence] set failed for user %s: %v", userID, err)
	}
}

func (s *RedisStore) RemoveBySocket(ctx context.Context, socketID string) {
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		val, err := s.client.Get(ctx, key).Result()
		if err != nil {
			if err != redis.Nil {
				s.log.Warnf("[Presence] get %s failed: %v", key, err)
			}
			continue
		}
		if val == socketID {
			if err := s.client.Del(ctx, key).Err(); err != nil {
				s.log.Warnf("[Presence] del %s failed: %v", key, err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		s.log.Warnf("[Presence] scan failed: %v", err)
	}
}

func (s *RedisStore) Get(ctx context.Context, userID string) (string, bool) {
	val, err := s.client.Get(ctx, keyPrefix+userID).Result()
	if err != nil {
		if err != redis.Nil {
			s.log.Warnf("[Presence] get failed for user %s: %v", userID, err)
		}
		return "", false
	}
	return val, true
}
