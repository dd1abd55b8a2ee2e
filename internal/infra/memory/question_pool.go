package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"nihongo-quiz-service/internal/domain"
)

// PoolLoader fetches the active question pool for a filter from a backing store.
type PoolLoader interface {
	LoadPool(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error)
}

// QuestionPool caches active pools with TTL to avoid repeated store hits.
type QuestionPool struct {
	loader PoolLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedPool
	// generation is bumped by Invalidate; fills started under an older generation are discarded.
	generation uint64
}

type cachedPool struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionPool(loader PoolLoader, ttl time.Duration) *QuestionPool {
	return &QuestionPool{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedPool),
	}
}

func (p *QuestionPool) ActivePool(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	key := poolKey(filter)
	if questions, ok := p.lookup(key); ok {
		return questions, nil
	}

	result, err, _ := p.sf.Do(key, func() (interface{}, error) {
		if questions, ok := p.lookup(key); ok {
			return questions, nil
		}

		p.mu.RLock()
		generation := p.generation
		p.mu.RUnlock()

		questions, err := p.loader.LoadPool(ctx, filter)
		if err != nil {
			return nil, err
		}

		p.mu.Lock()
		if p.generation == generation {
			p.cache[key] = cachedPool{
				questions: questions,
				expiresAt: p.clock().Add(p.ttlWithJitterLocked()),
			}
		}
		p.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops every cached pool.
func (p *QuestionPool) Invalidate(_ context.Context) error {
	p.mu.Lock()
	p.cache = make(map[string]cachedPool)
	p.generation++
	p.mu.Unlock()
	return nil
}

func (p *QuestionPool) lookup(key string) ([]domain.Question, bool) {
	now := p.clock()
	p.mu.RLock()
	defer p.mu.RUnlock()
	entry, ok := p.cache[key]
	if !ok || !entry.expiresAt.After(now) {
		return nil, false
	}
	return entry.questions, true
}

func (p *QuestionPool) ttlWithJitterLocked() time.Duration {
	if p.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(p.ttl) / 10
	return p.ttl + time.Duration(p.rnd.Int63n(jitterMax+1))
}

func poolKey(filter domain.QuestionFilter) string {
	return string(filter.Level) + "|" + string(filter.Type)
}
