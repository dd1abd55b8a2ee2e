package memory

import (
	"context"
	"sort"
	"sync"

	"nihongo-quiz-service/internal/domain"
)

// ResultStore is an in-memory, append-only implementation of app.ResultRepository.
type ResultStore struct {
	mu      sync.RWMutex
	results []domain.ExamResult
	byID    map[string]int
}

func NewResultStore() *ResultStore {
	return &ResultStore{byID: make(map[string]int)}
}

func (s *ResultStore) Create(_ context.Context, r domain.ExamResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[r.ID] = len(s.results)
	s.results = append(s.results, r)
	return nil
}

func (s *ResultStore) Get(_ context.Context, id string) (domain.ExamResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[id]
	if !ok {
		return domain.ExamResult{}, domain.ErrResultNotFound
	}
	return s.results[idx], nil
}

func (s *ResultStore) History(_ context.Context, userID string, skip, limit int) ([]domain.ExamResult, int, error) {
	s.mu.RLock()
	var mine []domain.ExamResult
	for _, r := range s.results {
		if r.UserID == userID {
			mine = append(mine, r)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(mine, func(i, j int) bool {
		return mine[i].CompletedAt.After(mine[j].CompletedAt)
	})
	return window(mine, skip, limit), len(mine), nil
}

func (s *ResultStore) Top(_ context.Context, level domain.Level, limit int) ([]domain.ExamResult, error) {
	s.mu.RLock()
	var matches []domain.ExamResult
	for _, r := range s.results {
		if level == "" || r.Level == level {
			r.Answers = nil
			matches = append(matches, r)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].TimeSpent < matches[j].TimeSpent
	})
	return window(matches, 0, limit), nil
}
