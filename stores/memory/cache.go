package memory

import (
	"context"
	"sync"

	"github.com/Henry5410858/design-sub000/core"
)

// cacheStore is the size-bounded client cache tier: one entry per design
// key, with a total byte budget. Writes that would blow the budget are
// rejected with ErrQuotaExceeded so the caller can skip the tier.
type cacheStore struct {
	mu      sync.Mutex
	quota   int
	used    int
	entries map[string][]byte
}

// NewCache creates a cache tier with the given byte quota.
func NewCache(quota int) *cacheStore {
	return &cacheStore{
		quota:   quota,
		entries: make(map[string][]byte),
	}
}

func (c *cacheStore) Put(ctx context.Context, key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.used - len(c.entries[key]) + len(data)
	if next > c.quota {
		return core.ErrQuotaExceeded
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	c.entries[key] = cp
	c.used = next
	return nil
}

func (c *cacheStore) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	if !ok {
		return nil, core.ErrBlobNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
