package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"medibook-console/internal/model"
)

// Redis keeps sessions under medibook:session:<profile>.
type Redis struct {
	rdb *redis.Client
	key string
}

func NewRedis(ctx context.Context, url, profile string) (*Redis, error) {
	if url == "" {
		return nil, errors.New("store: REDIS_URL is required for the redis driver")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("store: redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("store: redis ping: %w", err)
	}
	return &Redis{rdb: rdb, key: "medibook:session:" + profile}, nil
}

func (r *Redis) Load(ctx context.Context) (*model.User, error) {
	data, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u := &model.User{}
	if err := json.Unmarshal(data, u); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return u, nil
}

func (r *Redis) Save(ctx context.Context, u *model.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.key, data, 0).Err()
}

func (r *Redis) Clear(ctx context.Context) error {
	return r.rdb.Del(ctx, r.key).Err()
}

func (r *Redis) Close() error { return r.rdb.Close() }
