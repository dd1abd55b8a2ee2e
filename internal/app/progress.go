package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"nihongo-quiz-service/internal/domain"
	"nihongo-quiz-service/internal/logging"
)

// ProgressTracker records set attempts and derives unlock state.
type ProgressTracker struct {
	repo ProgressRepository
	now  func() time.Time
}

func NewProgressTracker(repo ProgressRepository) *ProgressTracker {
	return &ProgressTracker{repo: repo, now: time.Now}
}

// RecordAttempt merges one attempt into the user's entry for the set.
// Every call counts as an attempt; best score and completion never regress.
func (t *ProgressTracker) RecordAttempt(ctx context.Context, key domain.ProgressKey, percentage, timeSpent int) (domain.ProgressEntry, error) {
	if err := key.Validate(); err != nil {
		return domain.ProgressEntry{}, err
	}
	if percentage < 0 || percentage > 100 {
		return domain.ProgressEntry{}, domain.Invalid("percentage", "must be between 0 and 100")
	}
	if timeSpent < 0 {
		return domain.ProgressEntry{}, domain.Invalid("timeSpent", "must not be negative")
	}

	entry, err := t.repo.Upsert(ctx, key, percentage, timeSpent, t.now())
	if err != nil {
		return domain.ProgressEntry{}, err
	}
	logging.FromContext(ctx).WithFields(logrus.Fields{
		"user_id":    key.UserID,
		"level":      key.Level,
		"set_type":   key.SetType,
		"set_number": key.SetNumber,
		"best_score": entry.BestScore,
		"completed":  entry.Completed,
	}).Info("attempt recorded")
	return entry, nil
}

// IsUnlocked reports whether the user may attempt the set.
func (t *ProgressTracker) IsUnlocked(ctx context.Context, key domain.ProgressKey) (bool, error) {
	if err := key.Validate(); err != nil {
		return false, err
	}
	if key.SetNumber == 1 {
		return true, nil
	}
	prev, ok, err := t.repo.Get(ctx, key.Previous())
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return domain.SetUnlocked(key.SetNumber, &prev), nil
}

// Overview lists every set of a level with its progress and lock state.
// Levels without content report their sets as unavailable rather than failing.
func (t *ProgressTracker) Overview(ctx context.Context, userID string, level domain.Level) ([]domain.SetStatus, error) {
	if userID == "" {
		return nil, domain.Invalid("userId", "is required")
	}
	entries, err := t.repo.ListForUser(ctx, userID, level)
	if err != nil {
		return nil, err
	}
	byKey := make(map[domain.ProgressKey]domain.ProgressEntry, len(entries))
	for _, e := range entries {
		byKey[e.ProgressKey] = e
	}

	statuses := make([]domain.SetStatus, 0, len(domain.SetTypes)*domain.SetsPerType)
	for _, setType := range domain.SetTypes {
		for n := 1; n <= domain.SetsPerType; n++ {
			key := domain.ProgressKey{UserID: userID, Level: level, SetType: setType, SetNumber: n}
			var prev *domain.ProgressEntry
			if e, ok := byKey[key.Previous()]; ok {
				prev = &e
			}
			e := byKey[key]
			statuses = append(statuses, domain.SetStatus{
				SetType:   setType,
				SetNumber: n,
				Unlocked:  domain.SetUnlocked(n, prev),
				Available: domain.SetAvailable(level, setType, n),
				BestScore: e.BestScore,
				Completed: e.Completed,
				Attempts:  e.Attempts,
				TimeSpent: e.TimeSpent,
				LastAt:    e.LastAttempted,
			})
		}
	}
	return statuses, nil
}
