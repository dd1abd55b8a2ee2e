package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"nihongo-quiz-service/internal/domain"
)

// ProgressStore is an in-memory implementation of app.ProgressRepository.
type ProgressStore struct {
	mu      sync.Mutex
	entries map[domain.ProgressKey]domain.ProgressEntry
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{entries: make(map[domain.ProgressKey]domain.ProgressEntry)}
}

func (s *ProgressStore) Upsert(_ context.Context, key domain.ProgressKey, percentage, timeSpent int, at time.Time) (domain.ProgressEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		entry = domain.ProgressEntry{ProgressKey: key}
	}
	entry = entry.Merge(percentage, timeSpent, at)
	s.entries[key] = entry
	return entry, nil
}

func (s *ProgressStore) Get(_ context.Context, key domain.ProgressKey) (domain.ProgressEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	return entry, ok, nil
}

func (s *ProgressStore) ListForUser(_ context.Context, userID string, level domain.Level) ([]domain.ProgressEntry, error) {
	s.mu.Lock()
	var out []domain.ProgressEntry
	for key, entry := range s.entries {
		if key.UserID == userID && (level == "" || key.Level == level) {
			out = append(out, entry)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].SetType != out[j].SetType {
			return out[i].SetType < out[j].SetType
		}
		return out[i].SetNumber < out[j].SetNumber
	})
	return out, nil
}
