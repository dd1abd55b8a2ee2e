package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"nihongo-quiz-service/internal/domain"
)

// UserStore is an in-memory implementation of app.UserRepository and app.RankingRepository.
type UserStore struct {
	clock func() time.Time

	mu    sync.RWMutex
	users map[string]*domain.User
}

func NewUserStore() *UserStore {
	return &UserStore{clock: time.Now, users: make(map[string]*domain.User)}
}

// NewUserStoreWithClock is for deterministic streak tests.
func NewUserStoreWithClock(now func() time.Time) *UserStore {
	return &UserStore{clock: now, users: make(map[string]*domain.User)}
}

func (s *UserStore) Create(_ context.Context, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return domain.ErrDuplicateUsername
		}
	}
	stored := cloneUser(u)
	s.users[u.ID] = &stored
	return nil
}

func (s *UserStore) Get(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return cloneUser(*u), nil
}

func (s *UserStore) ApplyScore(_ context.Context, userID string, score domain.QuizScore) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	now := s.clock()
	u.QuizScores = append(u.QuizScores, score)
	u.Points += score.Score
	u.Streak = domain.NextStreak(u.Streak, u.LastActive, now)
	u.LastActive = now
	return cloneUser(*u), nil
}

func (s *UserStore) GrantAchievements(_ context.Context, userID string, achievements []domain.Achievement) ([]domain.Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	var granted []domain.Achievement
	for _, a := range achievements {
		if u.HasAchievement(a.Name) {
			continue
		}
		u.Achievements = append(u.Achievements, a)
		granted = append(granted, a)
	}
	return granted, nil
}

func (s *UserStore) GlobalPage(_ context.Context, offset, limit int) ([]domain.RankingEntry, error) {
	s.mu.RLock()
	entries := make([]domain.RankingEntry, 0, len(s.users))
	for _, u := range s.users {
		entries = append(entries, domain.RankingEntry{
			UserID:            u.ID,
			Name:              u.Name,
			Avatar:            u.Avatar,
			Points:            u.Points,
			Level:             u.Level(),
			AchievementsCount: len(u.Achievements),
			QuizzesTaken:      len(u.QuizScores),
		})
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].UserID < entries[j].UserID
	})
	return window(entries, offset, limit), nil
}

func (s *UserStore) CountUsers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

func (s *UserStore) LevelPage(_ context.Context, level domain.Level, offset, limit int) ([]domain.LevelRankingEntry, error) {
	entries := s.levelEntries(level)
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].MaxScore != entries[j].MaxScore {
			return entries[i].MaxScore > entries[j].MaxScore
		}
		if !entries[i].LastAttempt.Equal(entries[j].LastAttempt) {
			return entries[i].LastAttempt.Before(entries[j].LastAttempt)
		}
		return entries[i].UserID < entries[j].UserID
	})
	return window(entries, offset, limit), nil
}

func (s *UserStore) CountLevelUsers(_ context.Context, level domain.Level) (int, error) {
	return len(s.levelEntries(level)), nil
}

func (s *UserStore) CountAhead(_ context.Context, points int, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, u := range s.users {
		if u.Points > points || (u.Points == points && u.ID < userID) {
			n++
		}
	}
	return n, nil
}

func (s *UserStore) CountLevelAhead(_ context.Context, level domain.Level, best int, userID string) (int, error) {
	n := 0
	for _, e := range s.levelEntries(level) {
		if e.UserID != userID && e.MaxScore > best {
			n++
		}
	}
	return n, nil
}

// levelEntries aggregates each user's scores at level; users without any are excluded.
func (s *UserStore) levelEntries(level domain.Level) []domain.LevelRankingEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var entries []domain.LevelRankingEntry
	for _, u := range s.users {
		entry := domain.LevelRankingEntry{UserID: u.ID, Name: u.Name, Avatar: u.Avatar, Level: u.Level()}
		for _, score := range u.QuizScores {
			if score.Level != level {
				continue
			}
			if entry.Attempts == 0 || score.Score > entry.MaxScore {
				entry.MaxScore = score.Score
			}
			if score.Date.After(entry.LastAttempt) {
				entry.LastAttempt = score.Date
			}
			entry.Attempts++
		}
		if entry.Attempts > 0 {
			entries = append(entries, entry)
		}
	}
	return entries
}

func cloneUser(u domain.User) domain.User {
	u.QuizScores = append([]domain.QuizScore{}, u.QuizScores...)
	u.Achievements = append([]domain.Achievement{}, u.Achievements...)
	return u
}
