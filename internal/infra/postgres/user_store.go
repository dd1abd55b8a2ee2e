package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"nihongo-quiz-service/internal/domain"
)

// UserStore is the bun-backed implementation of app.UserRepository and app.RankingRepository.
// Ids are compared with the C collation so ties break in byte order on every backend.
type UserStore struct {
	db    *bun.DB
	clock func() time.Time
}

func NewUserStore(db *bun.DB) *UserStore {
	return &UserStore{db: db, clock: time.Now}
}

func (s *UserStore) Create(ctx context.Context, u domain.User) error {
	for _, check := range []struct {
		column string
		value  string
		err    error
	}{
		{"email", u.Email, domain.ErrDuplicateEmail},
		{"username", u.Username, domain.ErrDuplicateUsername},
	} {
		taken, err := s.db.NewSelect().Model((*userRow)(nil)).Where("? = ?", bun.Ident(check.column), check.value).Exists(ctx)
		if err != nil {
			return fmt.Errorf("check %s: %w", check.column, err)
		}
		if taken {
			return check.err
		}
	}

	row := &userRow{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Name:       u.Name,
		Avatar:     u.Avatar,
		Points:     u.Points,
		Streak:     u.Streak,
		LastActive: u.LastActive,
		CreatedAt:  u.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		// lost a race with a concurrent registration
		switch violatedConstraint(err) {
		case "users_email_key":
			return domain.ErrDuplicateEmail
		case "users_username_key":
			return domain.ErrDuplicateUsername
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *UserStore) Get(ctx context.Context, id string) (domain.User, error) {
	row := new(userRow)
	err := s.db.NewSelect().
		Model(row).
		Relation("Scores", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("qs.taken_at ASC", "qs.id ASC")
		}).
		Relation("Achievements", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("ua.date_earned ASC", "ua.name ASC")
		}).
		Where("u.id = ?", id).
		Scan(ctx)
	if err != nil {
		return domain.User{}, notFound(err, domain.ErrUserNotFound, "get user")
	}
	return row.toDomain(), nil
}

// ApplyScore locks the user row so concurrent submissions serialize their point and streak updates.
func (s *UserStore) ApplyScore(ctx context.Context, userID string, score domain.QuizScore) (domain.User, error) {
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := new(userRow)
		if err := tx.NewSelect().Model(row).Where("u.id = ?", userID).For("UPDATE").Scan(ctx); err != nil {
			return notFound(err, domain.ErrUserNotFound, "lock user")
		}

		now := s.clock()
		row.Points += score.Score
		row.Streak = domain.NextStreak(row.Streak, row.LastActive, now)
		row.LastActive = now
		if _, err := tx.NewUpdate().Model(row).Column("points", "streak", "last_active").WherePK().Exec(ctx); err != nil {
			return fmt.Errorf("update user score: %w", err)
		}

		_, err := tx.NewInsert().Model(&quizScoreRow{
			UserID:         userID,
			Level:          string(score.Level),
			Score:          score.Score,
			TimeSpent:      score.TimeSpent,
			TotalQuestions: score.TotalQuestions,
			TakenAt:        score.Date,
		}).Exec(ctx)
		if err != nil {
			return fmt.Errorf("insert quiz score: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return s.Get(ctx, userID)
}

// GrantAchievements relies on the (user_id, name) key; a conflicting insert means the badge is held.
func (s *UserStore) GrantAchievements(ctx context.Context, userID string, achievements []domain.Achievement) ([]domain.Achievement, error) {
	exists, err := s.db.NewSelect().Model((*userRow)(nil)).Where("u.id = ?", userID).Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return nil, domain.ErrUserNotFound
	}

	var granted []domain.Achievement
	for _, a := range achievements {
		res, err := s.db.NewInsert().
			Model(&achievementRow{
				UserID:      userID,
				Name:        a.Name,
				Description: a.Description,
				Icon:        a.Icon,
				DateEarned:  a.DateEarned,
			}).
			On("CONFLICT (user_id, name) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return granted, fmt.Errorf("grant %s: %w", a.Name, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 1 {
			granted = append(granted, a)
		}
	}
	return granted, nil
}

type globalRankRow struct {
	UserID            string `bun:"user_id"`
	Name              string `bun:"name"`
	Avatar            string `bun:"avatar"`
	Points            int    `bun:"points"`
	AchievementsCount int    `bun:"achievements_count"`
	QuizzesTaken      int    `bun:"quizzes_taken"`
}

func (s *UserStore) GlobalPage(ctx context.Context, offset, limit int) ([]domain.RankingEntry, error) {
	var rows []globalRankRow
	err := s.db.NewRaw(`
		SELECT u.id AS user_id, u.name, u.avatar, u.points,
			(SELECT count(*) FROM user_achievements ua WHERE ua.user_id = u.id) AS achievements_count,
			(SELECT count(*) FROM quiz_scores qs WHERE qs.user_id = u.id) AS quizzes_taken
		FROM users u
		ORDER BY u.points DESC, u.id COLLATE "C" ASC
		OFFSET ? LIMIT ?`, offset, limit).Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("global leaderboard: %w", err)
	}
	entries := make([]domain.RankingEntry, len(rows))
	for i, r := range rows {
		entries[i] = domain.RankingEntry{
			UserID:            r.UserID,
			Name:              r.Name,
			Avatar:            r.Avatar,
			Points:            r.Points,
			Level:             domain.LevelForPoints(r.Points),
			AchievementsCount: r.AchievementsCount,
			QuizzesTaken:      r.QuizzesTaken,
		}
	}
	return entries, nil
}

func (s *UserStore) CountUsers(ctx context.Context) (int, error) {
	n, err := s.db.NewSelect().Model((*userRow)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

type levelRankRow struct {
	UserID      string    `bun:"user_id"`
	Name        string    `bun:"name"`
	Avatar      string    `bun:"avatar"`
	Points      int       `bun:"points"`
	MaxScore    int       `bun:"max_score"`
	LastAttempt time.Time `bun:"last_attempt"`
	Attempts    int       `bun:"attempts"`
}

func (s *UserStore) LevelPage(ctx context.Context, level domain.Level, offset, limit int) ([]domain.LevelRankingEntry, error) {
	var rows []levelRankRow
	err := s.db.NewRaw(`
		SELECT u.id AS user_id, u.name, u.avatar, u.points, s.max_score, s.last_attempt, s.attempts
		FROM (
			SELECT user_id, max(score) AS max_score, max(taken_at) AS last_attempt, count(*) AS attempts
			FROM quiz_scores
			WHERE level = ?
			GROUP BY user_id
		) s
		JOIN users u ON u.id = s.user_id
		ORDER BY s.max_score DESC, s.last_attempt ASC, u.id COLLATE "C" ASC
		OFFSET ? LIMIT ?`, string(level), offset, limit).Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("level leaderboard: %w", err)
	}
	entries := make([]domain.LevelRankingEntry, len(rows))
	for i, r := range rows {
		entries[i] = domain.LevelRankingEntry{
			UserID:      r.UserID,
			Name:        r.Name,
			Avatar:      r.Avatar,
			Level:       domain.LevelForPoints(r.Points),
			MaxScore:    r.MaxScore,
			LastAttempt: r.LastAttempt,
			Attempts:    r.Attempts,
		}
	}
	return entries, nil
}

func (s *UserStore) CountLevelUsers(ctx context.Context, level domain.Level) (int, error) {
	var n int
	err := s.db.NewRaw(`SELECT count(DISTINCT user_id) FROM quiz_scores WHERE level = ?`, string(level)).Scan(ctx, &n)
	if err != nil {
		return 0, fmt.Errorf("count level users: %w", err)
	}
	return n, nil
}

func (s *UserStore) CountAhead(ctx context.Context, points int, userID string) (int, error) {
	var n int
	err := s.db.NewRaw(`
		SELECT count(*) FROM users
		WHERE points > ? OR (points = ? AND id COLLATE "C" < ?)`, points, points, userID).Scan(ctx, &n)
	if err != nil {
		return 0, fmt.Errorf("count users ahead: %w", err)
	}
	return n, nil
}

func (s *UserStore) CountLevelAhead(ctx context.Context, level domain.Level, best int, userID string) (int, error) {
	var n int
	err := s.db.NewRaw(`
		SELECT count(*) FROM (
			SELECT max(score) AS best
			FROM quiz_scores
			WHERE level = ? AND user_id <> ?
			GROUP BY user_id
		) s
		WHERE s.best > ?`, string(level), userID, best).Scan(ctx, &n)
	if err != nil {
		return 0, fmt.Errorf("count level ahead: %w", err)
	}
	return n, nil
}
