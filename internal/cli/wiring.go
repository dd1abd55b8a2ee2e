package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"nihongo-quiz-service/internal/app"
	"nihongo-quiz-service/internal/auth"
	"nihongo-quiz-service/internal/config"
	"nihongo-quiz-service/internal/infra/memory"
	"nihongo-quiz-service/internal/infra/postgres"
	infraredis "nihongo-quiz-service/internal/infra/redis"
	"nihongo-quiz-service/internal/logging"
	transport "nihongo-quiz-service/internal/transport/http"
)

type userStore interface {
	app.UserRepository
	app.RankingRepository
}

// backends are the stores selected by config: Postgres when a URL is set, memory otherwise;
// Redis caches when an address is set, in-process caches otherwise.
type backends struct {
	questions app.QuestionRepository
	loader    memory.PoolLoader
	users     userStore
	results   app.ResultRepository
	progress  app.ProgressRepository
	pool      app.QuestionPool
	ranking   app.LeaderboardCache
	closers   []func()
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	log := logging.FromContext(ctx)
	b := &backends{}

	if cfg.Postgres.URL != "" {
		db := postgres.Open(cfg.Postgres.URL)
		b.closers = append(b.closers, func() { _ = db.Close() })
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)

		b.questions = postgres.NewQuestionStore(db)
		b.loader = postgres.NewQuestionLoader(pool)
		b.users = postgres.NewUserStore(db)
		b.results = postgres.NewResultStore(db)
		b.progress = postgres.NewProgressStore(db)
		log.Info("using postgres stores")
	} else {
		questions := memory.NewQuestionStore()
		users := memory.NewUserStore()
		b.questions = questions
		b.loader = questions
		b.users = users
		b.results = memory.NewResultStore()
		b.progress = memory.NewProgressStore()
		log.Warn("postgres url not configured, using in-memory stores")
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	rankingTTL := config.TTLDuration(cfg.Ranking.TTL, 30*time.Second)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = client.Close() })
		b.pool = infraredis.NewQuestionPool(client, b.loader, questionTTL)
		b.ranking = infraredis.NewLeaderboardCache(client, rankingTTL)
		log.WithField("addr", cfg.Redis.Addr).Info("using redis caches")
	} else {
		b.pool = memory.NewQuestionPool(b.loader, questionTTL)
		b.ranking = memory.NewLeaderboardCache(rankingTTL)
	}
	return b, nil
}

func newServices(cfg config.Config, b *backends) (transport.Services, error) {
	tokens, err := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if err != nil {
		return transport.Services{}, err
	}
	hub := app.NewLeaderboardHub()
	progress := app.NewProgressTracker(b.progress)
	rankings := app.NewRankingService(b.users, b.users, b.results, b.ranking, hub)
	return transport.Services{
		Questions:  app.NewQuestionBank(b.questions, b.pool),
		Exams:      app.NewExamService(b.questions, b.results, b.users, progress, app.NewAchievementEvaluator(b.users), rankings),
		Progress:   progress,
		Rankings:   rankings,
		Users:      app.NewUserService(b.users),
		Hub:        hub,
		Tokens:     tokens,
		Production: cfg.Production(),
	}, nil
}
