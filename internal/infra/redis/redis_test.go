package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"nihongo-quiz-service/internal/domain"
	"nihongo-quiz-service/internal/infra/memory"
)

func TestQuestionPoolCachesInRedis(t *testing.T) {
	mr, client := newTestRedis(t)
	loader := &countingLoader{store: memory.NewQuestionStore(sampleQuestions()...)}
	pool := NewQuestionPool(client, loader, time.Minute)
	ctx := context.Background()
	filter := domain.QuestionFilter{Level: domain.LevelN5, Type: domain.TypeVocabulary}

	got, err := pool.ActivePool(ctx, filter)
	if err != nil {
		t.Fatalf("active pool: %v", err)
	}
	if len(got) != 1 || got[0].ID != "q1" || got[0].Correct != 1 {
		t.Fatalf("unexpected pool: %+v", got)
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader called once, got %d", loader.count())
	}
	if !mr.Exists("questions:pool:v0:N5:vocabulary") {
		t.Fatalf("expected pool key in redis, keys=%v", mr.Keys())
	}

	// Second call should hit cache, loader not incremented.
	_, _ = pool.ActivePool(ctx, filter)
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.count())
	}

	if err := pool.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = pool.ActivePool(ctx, filter)
	if loader.count() != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.count())
	}
}

func TestQuestionPoolCachesEmptyPool(t *testing.T) {
	_, client := newTestRedis(t)
	loader := &countingLoader{store: memory.NewQuestionStore()}
	pool := NewQuestionPool(client, loader, time.Minute)
	filter := domain.QuestionFilter{Level: domain.LevelN1}

	for i := 0; i < 2; i++ {
		got, err := pool.ActivePool(context.Background(), filter)
		if err != nil {
			t.Fatalf("active pool: %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("expected empty pool, got %#v", got)
		}
	}
	if loader.count() != 1 {
		t.Fatalf("expected empty pool cached, loader calls=%d", loader.count())
	}
}

func TestQuestionPoolExpires(t *testing.T) {
	mr, client := newTestRedis(t)
	loader := &countingLoader{store: memory.NewQuestionStore(sampleQuestions()...)}
	pool := NewQuestionPool(client, loader, time.Minute)
	filter := domain.QuestionFilter{Level: domain.LevelN5}

	_, _ = pool.ActivePool(context.Background(), filter)
	mr.FastForward(2 * time.Minute)
	_, _ = pool.ActivePool(context.Background(), filter)
	if loader.count() != 2 {
		t.Fatalf("expected reload after ttl, loader calls=%d", loader.count())
	}
}

func TestLeaderboardCacheRoundTripAndInvalidate(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewLeaderboardCache(client, time.Minute)
	ctx := context.Background()
	page := domain.PageRequest{Page: 1, Limit: 10}

	if _, ok, err := cache.Get(ctx, page); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	lb := domain.Leaderboard{
		Entries:    []domain.RankingEntry{{Rank: 1, UserID: "u1", Name: "Hana", Points: 120, Level: domain.LevelN5}},
		Pagination: page.Paginate(1),
		UpdatedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := cache.Set(ctx, page, lb); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("ranking:global:v0:1:10") {
		t.Fatalf("expected page key in redis, keys=%v", mr.Keys())
	}

	got, ok, err := cache.Get(ctx, page)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if len(got.Entries) != 1 || got.Entries[0].UserID != "u1" || !got.UpdatedAt.Equal(lb.UpdatedAt) {
		t.Fatalf("unexpected cached leaderboard: %+v", got)
	}

	if err := cache.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, ok, _ := cache.Get(ctx, page); ok {
		t.Fatalf("expected miss after invalidate")
	}
}

func TestLeaderboardCacheDisabledWithoutTTL(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewLeaderboardCache(client, 0)
	page := domain.PageRequest{Page: 1, Limit: 10}

	if err := cache.Set(context.Background(), page, domain.Leaderboard{}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("expected nothing written, keys=%v", mr.Keys())
	}
}

type countingLoader struct {
	store *memory.QuestionStore

	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadPool(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.store.LoadPool(ctx, filter)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", Type: domain.TypeVocabulary, Level: domain.LevelN5, Text: "犬", Options: []string{"cat", "dog"}, Correct: 1, IsActive: true},
		{ID: "q2", Type: domain.TypeKanji, Level: domain.LevelN5, Text: "山", Options: []string{"mountain", "river"}, Correct: 0, IsActive: true},
		{ID: "q3", Type: domain.TypeVocabulary, Level: domain.LevelN5, Text: "猫", Options: []string{"cat", "dog"}, Correct: 0, IsActive: false},
	}
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}
