package redislease

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "casegraph:lease:"

// RedisManager uses SET NX PX to acquire and a token-checked script to release,
// so one writer can never free another writer's lease.
type RedisManager struct {
	Client redis.UniversalClient
	Prefix string
}

func NewRedisManager(client redis.UniversalClient, prefix string) (*RedisManager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultPrefix
	}
	return &RedisManager{Client: client, Prefix: prefix}, nil
}

// Dial connects to addr and pings it before returning a manager.
func Dial(ctx context.Context, addr, prefix string) (*RedisManager, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisManager(rdb, prefix)
}

func (m *RedisManager) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lease, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("lease key cannot be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	token, err := randomToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	ok, err := m.Client.SetNX(ctx, m.Prefix+key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLeaseConflict
	}
	return &Lease{Key: key, Token: token, ExpiresAt: now.Add(ttl)}, nil
}

// Release runs on a fresh context: a cancelled request must still free the key.
func (m *RedisManager) Release(_ context.Context, lease *Lease) error {
	if lease == nil || lease.Key == "" || lease.Token == "" {
		return nil
	}
	rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := releaseScript.Run(rctx, m.Client, []string{m.Prefix + lease.Key}, lease.Token).Int()
	return err
}

func (m *RedisManager) Close() error {
	if m == nil || m.Client == nil {
		return nil
	}
	return m.Client.Close()
}

var releaseScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current == ARGV[1] then
  redis.call('DEL', KEYS[1])
  return 1
end
return 0
`)
