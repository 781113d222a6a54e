package storage

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the ledger of article URLs this bot has posted, as a
// sorted set scored by post time.
type RedisStore struct {
	rdb       *redis.Client
	key       string
	retention time.Duration
	now       func() time.Time
}

func NewRedisStore(rdb *redis.Client, key string, retention time.Duration) *RedisStore {
	if key == "" {
		key = "hackersky:posted"
	}
	return &RedisStore{rdb: rdb, key: key, retention: retention, now: time.Now}
}

// RecordPosted adds url to the ledger and trims entries older than the
// retention window.
func (s *RedisStore) RecordPosted(ctx context.Context, url string) error {
	now := s.now()
	if err := s.rdb.ZAdd(ctx, s.key, redis.Z{Score: float64(now.Unix()), Member: url}).Err(); err != nil {
		return err
	}
	return s.trim(ctx, now)
}

// PostedURLs returns every URL still inside the retention window.
func (s *RedisStore) PostedURLs(ctx context.Context) ([]string, error) {
	lo := "-inf"
	if s.retention > 0 {
		lo = strconv.FormatInt(s.now().Add(-s.retention).Unix(), 10)
	}
	return s.rdb.ZRangeByScore(ctx, s.key, &redis.ZRangeBy{Min: lo, Max: "+inf"}).Result()
}

func (s *RedisStore) trim(ctx context.Context, now time.Time) error {
	if s.retention <= 0 {
		return nil
	}
	cutoff := now.Add(-s.retention).Unix()
	return s.rdb.ZRemRangeByScore(ctx, s.key, "-inf", "("+strconv.FormatInt(cutoff, 10)).Err()
}
