package app

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"nihongo-quiz-service/internal/domain"
	"nihongo-quiz-service/internal/logging"
)

// FeedPage is the leaderboard page pushed to live subscribers.
var FeedPage = domain.PageRequest{Page: 1, Limit: 10}

// RankingService computes leaderboards and user standings from stored scores.
// Results are point-in-time views; concurrent submissions may be partially reflected.
type RankingService struct {
	ranking RankingRepository
	users   UserRepository
	results ResultRepository
	cache   LeaderboardCache
	hub     *LeaderboardHub
	now     func() time.Time
}

func NewRankingService(ranking RankingRepository, users UserRepository, results ResultRepository, cache LeaderboardCache, hub *LeaderboardHub) *RankingService {
	return &RankingService{
		ranking: ranking,
		users:   users,
		results: results,
		cache:   cache,
		hub:     hub,
		now:     time.Now,
	}
}

// GlobalLeaderboard ranks every user by points desc, then id asc.
func (s *RankingService) GlobalLeaderboard(ctx context.Context, page domain.PageRequest) (domain.Leaderboard, error) {
	log := logging.FromContext(ctx)
	if lb, ok, err := s.cache.Get(ctx, page); err != nil {
		log.WithError(err).Warn("leaderboard cache read failed")
	} else if ok {
		return lb, nil
	}

	var (
		entries []domain.RankingEntry
		total   int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = s.ranking.GlobalPage(gctx, page.Offset(), page.Limit)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.ranking.CountUsers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Leaderboard{}, err
	}
	if entries == nil {
		entries = []domain.RankingEntry{}
	}
	for i := range entries {
		entries[i].Rank = page.Offset() + i + 1
	}

	lb := domain.Leaderboard{
		Entries:    entries,
		Pagination: page.Paginate(total),
		UpdatedAt:  s.now(),
	}
	if err := s.cache.Set(ctx, page, lb); err != nil {
		log.WithError(err).Warn("leaderboard cache write failed")
	}
	return lb, nil
}

// LevelLeaderboard ranks users with at least one score at level by best score desc,
// then earliest last attempt, then id.
func (s *RankingService) LevelLeaderboard(ctx context.Context, level domain.Level, page domain.PageRequest) (domain.LevelLeaderboard, error) {
	var (
		entries []domain.LevelRankingEntry
		total   int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = s.ranking.LevelPage(gctx, level, page.Offset(), page.Limit)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.ranking.CountLevelUsers(gctx, level)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.LevelLeaderboard{}, err
	}
	if entries == nil {
		entries = []domain.LevelRankingEntry{}
	}
	for i := range entries {
		entries[i].Rank = page.Offset() + i + 1
	}
	return domain.LevelLeaderboard{Level: level, Entries: entries, Pagination: page.Paginate(total)}, nil
}

// UserRank returns the user's global rank, per-level ranks and stats.
func (s *RankingService) UserRank(ctx context.Context, userID string) (domain.UserRanking, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return domain.UserRanking{}, err
	}

	best := make(map[domain.Level]int, len(domain.Levels))
	sum := 0
	for _, score := range u.QuizScores {
		sum += score.Score
		if score.Score > best[score.Level] {
			best[score.Level] = score.Score
		}
	}

	var globalRank int
	levelRanks := make([]int, len(domain.Levels))
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ahead, err := s.ranking.CountAhead(gctx, u.Points, u.ID)
		globalRank = ahead + 1
		return err
	})
	for i, level := range domain.Levels {
		i, level := i, level
		g.Go(func() error {
			ahead, err := s.ranking.CountLevelAhead(gctx, level, best[level], u.ID)
			levelRanks[i] = ahead + 1
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return domain.UserRanking{}, err
	}

	ranks := make(map[domain.Level]int, len(domain.Levels))
	for i, level := range domain.Levels {
		ranks[level] = levelRanks[i]
	}
	attempts := len(u.QuizScores)
	divisor := attempts
	if divisor == 0 {
		divisor = 1
	}
	return domain.UserRanking{
		GlobalRank: globalRank,
		LevelRanks: ranks,
		Stats: domain.UserStats{
			TotalQuizzes:  attempts,
			TotalPoints:   u.Points,
			Achievements:  len(u.Achievements),
			CurrentStreak: u.Streak,
			AverageScore:  float64(sum) / float64(divisor),
		},
		User: domain.UserSummary{
			Name:   u.Name,
			Avatar: u.Avatar,
			Level:  u.Level(),
			Points: u.Points,
		},
	}, nil
}

// TopResults lists the best individual exam results, optionally for one level.
func (s *RankingService) TopResults(ctx context.Context, level domain.Level, limit int) ([]domain.ExamResult, error) {
	if limit < 1 || limit > domain.MaxPageLimit {
		return nil, domain.Invalid("limit", "must be between 1 and %d", domain.MaxPageLimit)
	}
	results, err := s.results.Top(ctx, level, limit)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []domain.ExamResult{}
	}
	return results, nil
}

// ScoresChanged drops cached leaderboards and pushes a fresh first page to live subscribers.
// Failures are logged only: the scores are already committed and caches expire on their own.
func (s *RankingService) ScoresChanged(ctx context.Context) {
	log := logging.FromContext(ctx)
	if err := s.cache.Invalidate(ctx); err != nil {
		log.WithError(err).Error("invalidate leaderboard cache")
	}
	if s.hub == nil || !s.hub.HasSubscribers() {
		return
	}
	lb, err := s.GlobalLeaderboard(ctx, FeedPage)
	if err != nil {
		log.WithError(err).Error("refresh leaderboard feed")
		return
	}
	s.hub.Publish(lb)
}
