package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"nihongo-quiz-service/internal/domain"
)

const rankingVersionKey = "ranking:version"

// LeaderboardCache stores rendered global leaderboard pages so that instances behind a load
// balancer share one read path between score updates.
// Pages live under ranking:global:v{version}:{page}:{limit}.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{client: client, ttl: ttl}
}

func (c *LeaderboardCache) Get(ctx context.Context, page domain.PageRequest) (domain.Leaderboard, bool, error) {
	version, err := currentVersion(ctx, c.client, rankingVersionKey)
	if err != nil {
		return domain.Leaderboard{}, false, fmt.Errorf("read ranking version: %w", err)
	}
	payload, err := c.client.Get(ctx, c.key(version, page)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Leaderboard{}, false, nil
	}
	if err != nil {
		return domain.Leaderboard{}, false, fmt.Errorf("read leaderboard page: %w", err)
	}
	var lb domain.Leaderboard
	if err := json.Unmarshal(payload, &lb); err != nil {
		return domain.Leaderboard{}, false, fmt.Errorf("decode leaderboard page: %w", err)
	}
	return lb, true, nil
}

func (c *LeaderboardCache) Set(ctx context.Context, page domain.PageRequest, lb domain.Leaderboard) error {
	if c.ttl <= 0 {
		return nil
	}
	version, err := currentVersion(ctx, c.client, rankingVersionKey)
	if err != nil {
		return fmt.Errorf("read ranking version: %w", err)
	}
	payload, err := json.Marshal(lb)
	if err != nil {
		return fmt.Errorf("encode leaderboard page: %w", err)
	}
	return c.client.Set(ctx, c.key(version, page), payload, c.ttl).Err()
}

// Invalidate retires every cached page; old versions expire with their TTL.
func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, rankingVersionKey).Err(); err != nil {
		return fmt.Errorf("bump ranking version: %w", err)
	}
	return nil
}

func (c *LeaderboardCache) key(version int64, page domain.PageRequest) string {
	return fmt.Sprintf("ranking:global:v%d:%d:%d", version, page.Page, page.Limit)
}
