package redis

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"auction-hub/internal/domain"
)

// RedisTokenStore is the display access-token capability: opaque tokens
// issued to displays map to display IDs in redis, so a token can be
// unwrapped without the hub knowing how it was minted.
type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func tokenKey(token string) string {
	return fmt.Sprintf("display:token:%s", token)
}

func (r *RedisTokenStore) UnprotectAccessToken(ctx context.Context, token string) (string, error) {
	displayID, err := r.client.Get(ctx, tokenKey(token)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", domain.ErrInvalidAccessToken
		}
		return "", err
	}
	return displayID, nil
}

// ProtectAccessToken mints a fresh opaque token for a display. Used by the
// back office when provisioning screens.
func (r *RedisTokenStore) ProtectAccessToken(ctx context.Context, displayID string) (string, error) {
	token := uuid.NewString()
	if err := r.client.Set(ctx, tokenKey(token), displayID, 0).Err(); err != nil {
		return "", err
	}
	return token, nil
}
