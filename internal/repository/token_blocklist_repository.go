package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlocklist records revoked access tokens until they would have expired anyway.
type TokenBlocklist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type redisTokenBlocklist struct {
	client *redis.Client
	prefix string
}

// NewRedisTokenBlocklist stores revocations under <prefix>:revoked:<jti>.
func NewRedisTokenBlocklist(client *redis.Client, prefix string) TokenBlocklist {
	return &redisTokenBlocklist{client: client, prefix: prefix}
}

func (b *redisTokenBlocklist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, b.key(tokenID), "1", ttl).Err()
}

func (b *redisTokenBlocklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	count, err := b.client.Exists(ctx, b.key(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (b *redisTokenBlocklist) key(tokenID string) string {
	return b.prefix + ":revoked:" + tokenID
}
