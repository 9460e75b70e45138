package cache

import (
	"context"
	"sync"

	"github.com/TheB2D/Glass/internal/domain"
)

// MemoryCache is the default PhotoCache: a process-lifetime map keyed by
// user id.
type MemoryCache struct {
	mu     sync.RWMutex
	photos map[string]*domain.Photo
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{photos: make(map[string]*domain.Photo)}
}

func (c *MemoryCache) Put(_ context.Context, userID string, photo *domain.Photo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.photos[userID] = photo
	return nil
}

func (c *MemoryCache) Latest(_ context.Context, userID string) (*domain.Photo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.photos[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (c *MemoryCache) ByRequestID(_ context.Context, userID, requestID string) (*domain.Photo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.photos[userID]
	if !ok || p.RequestID != requestID {
		return nil, ErrNotFound
	}
	return p, nil
}
