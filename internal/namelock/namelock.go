// Package namelock reserves a team name from before the uniqueness check
// until after the insert, so two submissions for the same name on
// different instances do not both reach the store.
package namelock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"devthon-registration/internal/store"
)

const keyPrefix = "devthon:team:"

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Client is the part of redis.UniversalClient a reservation needs.
type Client interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	redis.Scripter
}

type Redis struct {
	client Client
	ttl    time.Duration
}

const defaultTTL = 30 * time.Second

func NewRedis(client Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// Reserve claims name until release is called or the TTL passes. ok is false
// when another submission holds the name.
func (r *Redis) Reserve(ctx context.Context, name string) (release func(), ok bool, err error) {
	key := keyPrefix + store.NameKey(name)
	token := uuid.NewString()

	ok, err = r.client.SetNX(ctx, key, token, r.ttl).Result()
	if err != nil {
		return func() {}, false, fmt.Errorf("reserve team name: %w", err)
	}
	if !ok {
		return func() {}, false, nil
	}
	release = func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, r.client, []string{key}, token).Err()
	}
	return release, true, nil
}
