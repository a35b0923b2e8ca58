package docstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores each record as a string value under Prefix+record.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend connects to addr and verifies the connection with PING.
func NewRedisBackend(ctx context.Context, addr, password string, db int, prefix string) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &RedisBackend{client: client, prefix: prefix}, nil
}

func (b *RedisBackend) Load(ctx context.Context, record string) ([]byte, error) {
	data, err := b.client.Get(ctx, b.prefix+record).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return data, err
}

func (b *RedisBackend) Save(ctx context.Context, record string, data []byte) error {
	return b.client.Set(ctx, b.prefix+record, data, 0).Err()
}

func (b *RedisBackend) Close() error { return b.client.Close() }
