package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"nihongo-quiz-service/internal/domain"
	"nihongo-quiz-service/internal/logging"
)

// AchievementEvaluator grants badges after an attempt. A badge is granted at most once per user.
type AchievementEvaluator struct {
	users UserRepository
	now   func() time.Time
}

func NewAchievementEvaluator(users UserRepository) *AchievementEvaluator {
	return &AchievementEvaluator{users: users, now: time.Now}
}

// Evaluate checks every rule against the user's updated stats and returns the newly granted badges.
// The store performs a set insertion keyed by name, so a stale user snapshot cannot duplicate a badge.
func (e *AchievementEvaluator) Evaluate(ctx context.Context, u domain.User, lastScore int) ([]domain.Achievement, error) {
	stats := domain.StatsFor(u, lastScore)
	now := e.now()

	var candidates []domain.Achievement
	for _, rule := range domain.AchievementRules {
		if !rule.Earned(stats) || u.HasAchievement(rule.Name) {
			continue
		}
		candidates = append(candidates, domain.Achievement{
			Name:        rule.Name,
			Description: rule.Description,
			Icon:        rule.Icon,
			DateEarned:  now,
		})
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	granted, err := e.users.GrantAchievements(ctx, u.ID, candidates)
	if err != nil {
		return nil, err
	}
	for _, a := range granted {
		logging.FromContext(ctx).WithFields(logrus.Fields{
			"user_id":     u.ID,
			"achievement": a.Name,
		}).Info("achievement granted")
	}
	return granted, nil
}
