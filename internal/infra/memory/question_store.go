package memory

import (
	"context"
	"sort"
	"sync"

	"nihongo-quiz-service/internal/domain"
)

// QuestionStore is an in-memory question bank. It implements app.QuestionRepository and PoolLoader.
type QuestionStore struct {
	mu        sync.RWMutex
	questions map[string]domain.Question
}

func NewQuestionStore(seed ...domain.Question) *QuestionStore {
	s := &QuestionStore{questions: make(map[string]domain.Question, len(seed))}
	for _, q := range seed {
		s.questions[q.ID] = q
	}
	return s
}

func (s *QuestionStore) Page(_ context.Context, filter domain.QuestionFilter, offset, limit int) ([]domain.Question, error) {
	matches := s.matching(filter)
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID < matches[j].ID
	})
	return window(matches, offset, limit), nil
}

func (s *QuestionStore) Count(_ context.Context, filter domain.QuestionFilter) (int, error) {
	return len(s.matching(filter)), nil
}

func (s *QuestionStore) LoadPool(_ context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	return s.matching(filter), nil
}

func (s *QuestionStore) FindByIDs(_ context.Context, ids []string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := s.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *QuestionStore) Get(_ context.Context, id string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, nil
}

func (s *QuestionStore) Create(_ context.Context, questions ...domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range questions {
		s.questions[q.ID] = q
	}
	return nil
}

func (s *QuestionStore) Update(_ context.Context, q domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[q.ID]; !ok {
		return domain.ErrQuestionNotFound
	}
	s.questions[q.ID] = q
	return nil
}

func (s *QuestionStore) matching(filter domain.QuestionFilter) []domain.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		if filter.Matches(q) {
			out = append(out, q)
		}
	}
	return out
}

func window[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
