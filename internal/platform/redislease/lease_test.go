package redislease

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestManagers(t *testing.T) {
	factories := map[string]func(t *testing.T) (Manager, func(time.Duration)){
		"memory": func(t *testing.T) (Manager, func(time.Duration)) {
			m := NewMemoryManager()
			base := time.Now()
			offset := time.Duration(0)
			m.now = func() time.Time { return base.Add(offset) }
			return m, func(d time.Duration) { offset += d }
		},
		"redis": func(t *testing.T) (Manager, func(time.Duration)) {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = client.Close() })
			m, err := NewRedisManager(client, "")
			require.NoError(t, err)
			return m, mr.FastForward
		},
	}

	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("conflict_then_release", func(t *testing.T) {
				mgr, _ := factory(t)
				lease, err := mgr.Acquire(ctx, "person:dup", time.Second)
				require.NoError(t, err)
				require.NotEmpty(t, lease.Token)

				_, err = mgr.Acquire(ctx, "person:dup", time.Second)
				require.ErrorIs(t, err, ErrLeaseConflict)

				require.NoError(t, mgr.Release(ctx, lease))
				_, err = mgr.Acquire(ctx, "person:dup", time.Second)
				require.NoError(t, err)
			})

			t.Run("foreign_token_does_not_release", func(t *testing.T) {
				mgr, _ := factory(t)
				lease, err := mgr.Acquire(ctx, "person:a", time.Second)
				require.NoError(t, err)

				require.NoError(t, mgr.Release(ctx, &Lease{Key: lease.Key, Token: "not-mine"}))
				_, err = mgr.Acquire(ctx, "person:a", time.Second)
				require.ErrorIs(t, err, ErrLeaseConflict)
			})

			t.Run("expiry_frees_key", func(t *testing.T) {
				mgr, advance := factory(t)
				_, err := mgr.Acquire(ctx, "person:b", 200*time.Millisecond)
				require.NoError(t, err)
				advance(time.Second)
				_, err = mgr.Acquire(ctx, "person:b", 200*time.Millisecond)
				require.NoError(t, err)
			})

			t.Run("empty_key_rejected", func(t *testing.T) {
				mgr, _ := factory(t)
				_, err := mgr.Acquire(ctx, " ", time.Second)
				require.Error(t, err)
			})
		})
	}
}
