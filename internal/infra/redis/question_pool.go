package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"nihongo-quiz-service/internal/domain"
)

const poolVersionKey = "questions:pool:version"

// PoolLoader fetches the active question pool for a filter from a backing store (e.g. Postgres).
type PoolLoader interface {
	LoadPool(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error)
}

// QuestionPool caches active pools in Redis and falls back to a loader on cache miss.
// Pools are stored as JSON under questions:pool:v{version}:{level}:{type}; Invalidate bumps
// the version so every instance stops reading the old keys at once.
type QuestionPool struct {
	client *redis.Client
	loader PoolLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionPool(client *redis.Client, loader PoolLoader, ttl time.Duration) *QuestionPool {
	return &QuestionPool{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (p *QuestionPool) ActivePool(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	version, err := currentVersion(ctx, p.client, poolVersionKey)
	if err != nil {
		// cache unavailable; serve from the store
		return p.loader.LoadPool(ctx, filter)
	}
	key := poolKey(version, filter)
	if questions, ok := p.lookup(ctx, key); ok {
		return questions, nil
	}

	result, err, _ := p.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := p.lookup(ctx, key); ok {
			return questions, nil
		}

		questions, err := p.loader.LoadPool(ctx, filter)
		if err != nil {
			return nil, err
		}
		if questions == nil {
			questions = []domain.Question{}
		}

		if payload, err := json.Marshal(questions); err == nil {
			_ = p.client.Set(ctx, key, payload, p.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate retires every cached pool by moving to a new key version.
func (p *QuestionPool) Invalidate(ctx context.Context) error {
	if err := p.client.Incr(ctx, poolVersionKey).Err(); err != nil {
		return fmt.Errorf("bump question pool version: %w", err)
	}
	return nil
}

func (p *QuestionPool) lookup(ctx context.Context, key string) ([]domain.Question, bool) {
	payload, err := p.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(payload, &questions); err != nil {
		return nil, false
	}
	return questions, true
}

func (p *QuestionPool) ttlWithJitter() time.Duration {
	if p.ttl <= 0 {
		return 0
	}
	jitterMax := int64(p.ttl) / 10
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ttl + time.Duration(p.rnd.Int63n(jitterMax+1))
}

func poolKey(version int64, filter domain.QuestionFilter) string {
	return fmt.Sprintf("questions:pool:v%d:%s:%s", version, filter.Level, filter.Type)
}

// currentVersion reads a version counter; a missing counter is version 0.
func currentVersion(ctx context.Context, client *redis.Client, key string) (int64, error) {
	version, err := client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return version, err
}
