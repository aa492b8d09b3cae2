package countstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisCountPrefix string = "guard/count/"

// counters decay after a day of inactivity; violation escalation operates on
// much shorter horizons
var redisCountTTL = 24 * time.Hour

// RedisCountStore shares counters between processes. INCR returns the
// post-increment value server-side, which keeps the read-modify-write atomic
// without any client locking.
type RedisCountStore struct {
	Client *redis.Client
}

func NewRedisCountStore(redisURL string) (*RedisCountStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(context.TODO()).Result()
	if err != nil {
		return nil, err
	}
	rcs := RedisCountStore{
		Client: rdb,
	}
	return &rcs, nil
}

var _ CountStore = (*RedisCountStore)(nil)

func (s *RedisCountStore) GetCount(ctx context.Context, name, val string) (int, error) {
	c, err := s.Client.Get(ctx, redisCountPrefix+countKey(name, val)).Int()
	if err == redis.Nil {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return c, nil
}

func (s *RedisCountStore) Increment(ctx context.Context, name, val string) (int, error) {
	key := redisCountPrefix + countKey(name, val)

	// increment and refresh expiry in a single redis round-trip
	multi := s.Client.Pipeline()
	incr := multi.Incr(ctx, key)
	multi.Expire(ctx, key, redisCountTTL)
	if _, err := multi.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

func (s *RedisCountStore) Reset(ctx context.Context, name, val string) error {
	return s.Client.Del(ctx, redisCountPrefix+countKey(name, val)).Err()
}
