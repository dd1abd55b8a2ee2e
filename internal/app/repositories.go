package app

import (
	"context"
	"time"

	"nihongo-quiz-service/internal/domain"
)

// QuestionRepository stores the question bank (in-memory, Postgres, etc).
type QuestionRepository interface {
	// Page returns active questions matching filter, newest first.
	Page(ctx context.Context, filter domain.QuestionFilter, offset, limit int) ([]domain.Question, error)
	Count(ctx context.Context, filter domain.QuestionFilter) (int, error)
	FindByIDs(ctx context.Context, ids []string) ([]domain.Question, error)
	Get(ctx context.Context, id string) (domain.Question, error)
	Create(ctx context.Context, questions ...domain.Question) error
	Update(ctx context.Context, q domain.Question) error
}

// QuestionPool serves the full active pool for a filter, typically from a cache.
type QuestionPool interface {
	ActivePool(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error)
	Invalidate(ctx context.Context) error
}

// UserRepository stores users with their score history and achievements.
type UserRepository interface {
	Create(ctx context.Context, u domain.User) error
	Get(ctx context.Context, id string) (domain.User, error)
	// ApplyScore appends score to the history, adds it to points and advances the streak
	// atomically, returning the updated user.
	ApplyScore(ctx context.Context, userID string, score domain.QuizScore) (domain.User, error)
	// GrantAchievements inserts badges the user does not hold yet and returns only those.
	GrantAchievements(ctx context.Context, userID string, achievements []domain.Achievement) ([]domain.Achievement, error)
}

// RankingRepository answers leaderboard aggregates over the stored users.
type RankingRepository interface {
	GlobalPage(ctx context.Context, offset, limit int) ([]domain.RankingEntry, error)
	CountUsers(ctx context.Context) (int, error)
	LevelPage(ctx context.Context, level domain.Level, offset, limit int) ([]domain.LevelRankingEntry, error)
	CountLevelUsers(ctx context.Context, level domain.Level) (int, error)
	// CountAhead counts users with more points, or equal points and a smaller id.
	CountAhead(ctx context.Context, points int, userID string) (int, error)
	// CountLevelAhead counts other users whose best score at level exceeds best.
	CountLevelAhead(ctx context.Context, level domain.Level, best int, userID string) (int, error)
}

// ResultRepository stores exam results; results are append-only.
type ResultRepository interface {
	Create(ctx context.Context, r domain.ExamResult) error
	Get(ctx context.Context, id string) (domain.ExamResult, error)
	History(ctx context.Context, userID string, skip, limit int) ([]domain.ExamResult, int, error)
	// Top returns results ordered by score desc, time spent asc; empty level means all.
	Top(ctx context.Context, level domain.Level, limit int) ([]domain.ExamResult, error)
}

// ProgressRepository stores per-set progress entries.
type ProgressRepository interface {
	// Upsert merges one attempt into the entry for key, creating it when absent.
	// Concurrent calls for the same key must converge to the Merge of all attempts.
	Upsert(ctx context.Context, key domain.ProgressKey, percentage, timeSpent int, at time.Time) (domain.ProgressEntry, error)
	Get(ctx context.Context, key domain.ProgressKey) (domain.ProgressEntry, bool, error)
	ListForUser(ctx context.Context, userID string, level domain.Level) ([]domain.ProgressEntry, error)
}

// LeaderboardCache keeps rendered global leaderboard pages between score updates.
type LeaderboardCache interface {
	Get(ctx context.Context, page domain.PageRequest) (domain.Leaderboard, bool, error)
	Set(ctx context.Context, page domain.PageRequest, lb domain.Leaderboard) error
	Invalidate(ctx context.Context) error
}
