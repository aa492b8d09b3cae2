package windowstore

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisWindowPrefix string = "guard/window/"

// RedisWindowStore shares windows between processes, using a sorted set per
// key scored by timestamp. The append, purge, cap, and count run in one
// pipeline; members are nanosecond timestamps, so near-simultaneous events
// remain distinct entries.
type RedisWindowStore struct {
	Client    *redis.Client
	Retention time.Duration
	Capacity  int
}

func NewRedisWindowStore(redisURL string, retention time.Duration, capacity int) (*RedisWindowStore, error) {
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
	rws := RedisWindowStore{
		Client:    rdb,
		Retention: retention,
		Capacity:  capacity,
	}
	return &rws, nil
}

var _ WindowStore = (*RedisWindowStore)(nil)

func (s *RedisWindowStore) Observe(ctx context.Context, name, val string, now time.Time) (int, error) {
	key := redisWindowPrefix + windowKey(name, val)
	score := float64(now.UnixNano())
	cutoff := strconv.FormatInt(now.Add(-s.Retention).UnixNano(), 10)

	multi := s.Client.Pipeline()
	multi.ZAdd(ctx, key, redis.Z{Score: score, Member: strconv.FormatInt(now.UnixNano(), 10)})
	multi.ZRemRangeByScore(ctx, key, "-inf", "("+cutoff)
	if s.Capacity > 0 {
		multi.ZRemRangeByRank(ctx, key, 0, int64(-(s.Capacity + 1)))
	}
	card := multi.ZCard(ctx, key)
	multi.Expire(ctx, key, 2*s.Retention)
	if _, err := multi.Exec(ctx); err != nil {
		return 0, err
	}
	return int(card.Val()), nil
}
