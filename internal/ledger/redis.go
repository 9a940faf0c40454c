package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	logx "arxivdigest/pkg/logx"
)

const defaultRedisKey = "arxivdigest:processed"

// redisStore keeps membership in a set and order in a list. The set is the
// source of truth for idempotency: SADD decides whether RPUSH happens.
type redisStore struct {
	rdb     *redis.Client
	setKey  string
	listKey string
	log     logx.Logger
}

func openRedis(cfg Config, log logx.Logger) (Store, error) {
	addr := strings.TrimSpace(cfg.Redis.Addr)
	if addr == "" {
		return nil, errors.New("ledger.redis.addr is required for redis driver")
	}
	key := strings.TrimSpace(cfg.Redis.Key)
	if key == "" {
		key = defaultRedisKey
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	s := &redisStore{rdb: rdb, log: log}
	s.setKey, s.listKey = redisKeys(key)
	return s, nil
}

func redisKeys(prefix string) (setKey, listKey string) {
	return prefix + ":set", prefix + ":order"
}

func (s *redisStore) Load(ctx context.Context) (Set, error) {
	ids, err := s.rdb.SMembers(ctx, s.setKey).Result()
	if err != nil {
		return nil, err
	}
	return NewSet(ids...), nil
}

func (s *redisStore) List(ctx context.Context) ([]string, error) {
	return s.rdb.LRange(ctx, s.listKey, 0, -1).Result()
}

func (s *redisStore) Record(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("empty id")
	}
	added, err := s.rdb.SAdd(ctx, s.setKey, id).Result()
	if err != nil {
		return err
	}
	if added == 0 {
		return nil
	}
	if err := s.rdb.RPush(ctx, s.listKey, id).Err(); err != nil {
		// Keep the two keys consistent so a later Record can retry.
		_ = s.rdb.SRem(ctx, s.setKey, id).Err()
		return err
	}
	s.log.Debug("ledger updated", logx.String("id", id))
	return nil
}

func (s *redisStore) Close() error { return s.rdb.Close() }
