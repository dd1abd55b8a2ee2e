package memory

import (
	"context"
	"sync"
	"time"

	"nihongo-quiz-service/internal/domain"
)

// LeaderboardCache keeps rendered leaderboard pages until the next invalidation or TTL.
type LeaderboardCache struct {
	ttl   time.Duration
	clock func() time.Time

	mu    sync.RWMutex
	pages map[domain.PageRequest]cachedLeaderboard
}

type cachedLeaderboard struct {
	lb        domain.Leaderboard
	expiresAt time.Time
}

func NewLeaderboardCache(ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{ttl: ttl, clock: time.Now, pages: make(map[domain.PageRequest]cachedLeaderboard)}
}

func (c *LeaderboardCache) Get(_ context.Context, page domain.PageRequest) (domain.Leaderboard, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.pages[page]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.Leaderboard{}, false, nil
	}
	return entry.lb, true, nil
}

func (c *LeaderboardCache) Set(_ context.Context, page domain.PageRequest, lb domain.Leaderboard) error {
	if c.ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	c.pages[page] = cachedLeaderboard{lb: lb, expiresAt: c.clock().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

func (c *LeaderboardCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	c.pages = make(map[domain.PageRequest]cachedLeaderboard)
	c.mu.Unlock()
	return nil
}
