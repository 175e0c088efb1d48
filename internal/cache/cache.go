package cache

import (
	"context"
	"sync"
	"time"
)

// SessionRecord is the durable pointer to the signed-in session.
type SessionRecord struct {
	Token        string    `json:"token"`
	UserID       string    `json:"user_id"`
	LastActivity time.Time `json:"last_activity"`
}

type SessionCache interface {
	Load(ctx context.Context) (*SessionRecord, bool, error)
	Save(ctx context.Context, record SessionRecord, ttl time.Duration) error
	Clear(ctx context.Context) error
}

type NoopSessionCache struct{}

func (NoopSessionCache) Load(_ context.Context) (*SessionRecord, bool, error) {
	return nil, false, nil
}

func (NoopSessionCache) Save(_ context.Context, _ SessionRecord, _ time.Duration) error {
	return nil
}

func (NoopSessionCache) Clear(_ context.Context) error {
	return nil
}

// MemorySessionCache keeps the session pointer for the life of the process.
type MemorySessionCache struct {
	mu      sync.Mutex
	record  *SessionRecord
	expires time.Time
	now     func() time.Time
}

func NewMemorySessionCache() *MemorySessionCache {
	return &MemorySessionCache{now: time.Now}
}

func (c *MemorySessionCache) Load(_ context.Context) (*SessionRecord, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.record == nil {
		return nil, false, nil
	}
	if !c.expires.IsZero() && !c.now().Before(c.expires) {
		c.record = nil
		return nil, false, nil
	}
	out := *c.record
	return &out, true, nil
}

func (c *MemorySessionCache) Save(_ context.Context, record SessionRecord, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record = &record
	c.expires = time.Time{}
	if ttl > 0 {
		c.expires = c.now().Add(ttl)
	}
	return nil
}

func (c *MemorySessionCache) Clear(_ context.Context) error {
	c.mu.Lock()
	c.record = nil
	c.mu.Unlock()
	return nil
}
