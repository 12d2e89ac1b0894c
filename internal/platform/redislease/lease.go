// Package redislease hands out short-lived, token-owned write leases keyed by
// entity ID. The merge resolver takes one on the duplicate so two merges never
// delete the same node concurrently.
package redislease

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

const DefaultTTL = 30 * time.Second

var ErrLeaseConflict = errors.New("write lease held by another writer")

type Lease struct {
	Key       string
	Token     string
	ExpiresAt time.Time
}

type Manager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (*Lease, error)
	Release(ctx context.Context, lease *Lease) error
}

// MemoryManager is the single-process Manager used when Redis is not configured.
type MemoryManager struct {
	mu     sync.Mutex
	leases map[string]*Lease
	now    func() time.Time
}

func NewMemoryManager() *MemoryManager {
	return &MemoryManager{leases: make(map[string]*Lease), now: time.Now}
}

func (m *MemoryManager) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lease, error) {
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

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if cur, ok := m.leases[key]; ok && now.Before(cur.ExpiresAt) {
		return nil, ErrLeaseConflict
	}
	lease := &Lease{Key: key, Token: token, ExpiresAt: now.Add(ttl)}
	m.leases[key] = lease
	return lease, nil
}

func (m *MemoryManager) Release(_ context.Context, lease *Lease) error {
	if lease == nil || lease.Key == "" || lease.Token == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.leases[lease.Key]; ok && cur.Token == lease.Token {
		delete(m.leases, lease.Key)
	}
	return nil
}

func randomToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate lease token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
