package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"nihongo-quiz-service/internal/domain"
)

func TestProgressStoreConcurrentUpsertsConverge(t *testing.T) {
	store := NewProgressStore()
	key := domain.ProgressKey{UserID: "u1", Level: domain.LevelN5, SetType: domain.SetRegular, SetNumber: 1}
	scores := []int{40, 90, 60, 20, 55, 85}

	var wg sync.WaitGroup
	for _, s := range scores {
		wg.Add(1)
		go func(score int) {
			defer wg.Done()
			_, _ = store.Upsert(context.Background(), key, score, 10, time.Now())
		}(s)
	}
	wg.Wait()

	entry, ok, err := store.Get(context.Background(), key)
	if err != nil || !ok {
		t.Fatalf("expected entry, got ok=%v err=%v", ok, err)
	}
	if entry.BestScore != 90 || !entry.Completed || entry.Attempts != len(scores) || entry.TimeSpent != 60 {
		t.Fatalf("unexpected merged entry: %+v", entry)
	}
}
