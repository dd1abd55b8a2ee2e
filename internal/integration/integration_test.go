package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"

	"nihongo-quiz-service/internal/app"
	"nihongo-quiz-service/internal/domain"
	"nihongo-quiz-service/internal/infra/postgres"
	infraredis "nihongo-quiz-service/internal/infra/redis"
	"nihongo-quiz-service/internal/logging"
)

type stack struct {
	bank     *app.QuestionBank
	exams    *app.ExamService
	progress *app.ProgressTracker
	rankings *app.RankingService
	users    *app.UserService
}

func TestSubmitEndToEnd(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, ctx)

	questions := seedQuestions(t, ctx, s.bank, 5)
	alice := register(t, ctx, s.users, "alice")

	answers := make([]domain.AnswerSubmission, len(questions))
	for i, q := range questions {
		answers[i] = domain.AnswerSubmission{QuestionID: q.ID, Selected: q.Correct}
	}
	outcome, err := s.exams.Submit(ctx, app.SubmitRequest{
		UserID:    alice.ID,
		UserName:  alice.Name,
		Level:     domain.LevelN5,
		SetType:   domain.SetRegular,
		SetNumber: 1,
		Answers:   answers,
		TimeSpent: 90,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.Result.Percentage != 100 || outcome.User.Points != 100 || outcome.User.Streak != 1 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(outcome.Achievements) != 2 {
		t.Fatalf("expected first steps and perfect score, got %+v", outcome.Achievements)
	}

	stored, err := s.exams.Result(ctx, outcome.Result.ID)
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if len(stored.Answers) != len(questions) {
		t.Fatalf("expected stored answers, got %+v", stored.Answers)
	}

	again, err := s.exams.Submit(ctx, app.SubmitRequest{
		UserID: alice.ID, UserName: alice.Name, Level: domain.LevelN5, Answers: answers, TimeSpent: 30,
	})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if len(again.Achievements) != 0 {
		t.Fatalf("achievements granted twice: %+v", again.Achievements)
	}
	user, err := s.users.Get(ctx, alice.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if len(user.QuizScores) != 2 || len(user.Achievements) != 2 || user.Points != 200 {
		t.Fatalf("unexpected user state: %+v", user)
	}

	unlocked, err := s.progress.IsUnlocked(ctx, domain.ProgressKey{UserID: alice.ID, Level: domain.LevelN5, SetType: domain.SetRegular, SetNumber: 2})
	if err != nil || !unlocked {
		t.Fatalf("expected set 2 unlocked, got %v %v", unlocked, err)
	}
}

func TestConcurrentAttemptsConverge(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, ctx)
	user := register(t, ctx, s.users, "bob")
	key := domain.ProgressKey{UserID: user.ID, Level: domain.LevelN5, SetType: domain.SetGrammar, SetNumber: 1}

	scores := []int{20, 80, 55, 40, 65, 10, 90, 30}
	var g errgroup.Group
	for _, score := range scores {
		score := score
		g.Go(func() error {
			_, err := s.progress.RecordAttempt(ctx, key, score, 10)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("record attempts: %v", err)
	}

	overview, err := s.progress.Overview(ctx, user.ID, domain.LevelN5)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	var found bool
	for _, st := range overview {
		if st.SetType != domain.SetGrammar || st.SetNumber != 1 {
			continue
		}
		found = true
		if st.BestScore != 90 || !st.Completed || st.Attempts != len(scores) || st.TimeSpent != 10*len(scores) {
			t.Fatalf("progress did not converge: %+v", st)
		}
	}
	if !found {
		t.Fatalf("grammar set 1 missing from overview: %+v", overview)
	}
}

func TestConcurrentSubmitsKeepPointsConsistent(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, ctx)
	questions := seedQuestions(t, ctx, s.bank, 2)
	user := register(t, ctx, s.users, "carol")

	answers := []domain.AnswerSubmission{
		{QuestionID: questions[0].ID, Selected: questions[0].Correct},
		{QuestionID: questions[1].ID, Selected: (questions[1].Correct + 1) % len(questions[1].Options)},
	}
	const n = 6
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.exams.Submit(ctx, app.SubmitRequest{UserID: user.ID, UserName: user.Name, Level: domain.LevelN5, Answers: answers, TimeSpent: 5})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	got, err := s.users.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Points != 50*n || len(got.QuizScores) != n {
		t.Fatalf("expected %d points over %d scores, got %d over %d", 50*n, n, got.Points, len(got.QuizScores))
	}
	var firstSteps int
	for _, a := range got.Achievements {
		if a.Name == "First Steps" {
			firstSteps++
		}
	}
	if firstSteps > 1 {
		t.Fatalf("first steps granted %d times", firstSteps)
	}
}

func TestGlobalRankingTiebreak(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, ctx)
	questions := seedQuestions(t, ctx, s.bank, 1)
	perfect := []domain.AnswerSubmission{{QuestionID: questions[0].ID, Selected: questions[0].Correct}}

	var ids []string
	for _, name := range []string{"dave", "erin", "frank"} {
		u := register(t, ctx, s.users, name)
		ids = append(ids, u.ID)
		if _, err := s.exams.Submit(ctx, app.SubmitRequest{UserID: u.ID, UserName: u.Name, Level: domain.LevelN5, Answers: perfect}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	page, _ := domain.NewPageRequest(1, 10)
	lb, err := s.rankings.GlobalLeaderboard(ctx, page)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(lb.Entries) != 3 || lb.Pagination.Total != 3 {
		t.Fatalf("unexpected leaderboard: %+v", lb)
	}
	for i := 1; i < len(lb.Entries); i++ {
		if lb.Entries[i-1].UserID >= lb.Entries[i].UserID {
			t.Fatalf("ties must be ordered by id: %+v", lb.Entries)
		}
		if lb.Entries[i].Rank != i+1 {
			t.Fatalf("unexpected rank numbering: %+v", lb.Entries)
		}
	}
	for _, id := range ids {
		rank, err := s.rankings.UserRank(ctx, id)
		if err != nil {
			t.Fatalf("user rank: %v", err)
		}
		if lb.Entries[rank.GlobalRank-1].UserID != id {
			t.Fatalf("user rank %d disagrees with leaderboard for %s", rank.GlobalRank, id)
		}
	}

	levelBoard, err := s.rankings.LevelLeaderboard(ctx, domain.LevelN5, page)
	if err != nil {
		t.Fatalf("level leaderboard: %v", err)
	}
	if len(levelBoard.Entries) != 3 || levelBoard.Entries[0].UserID != ids[0] {
		t.Fatalf("level ties must favour the earliest attempt: %+v", levelBoard.Entries)
	}
}

func TestDeactivatedQuestionLeavesPool(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, ctx)
	questions := seedQuestions(t, ctx, s.bank, 3)
	filter := domain.QuestionFilter{Level: domain.LevelN5}

	picked, err := s.bank.Random(ctx, filter, 10)
	if err != nil || len(picked) != 3 {
		t.Fatalf("expected full pool, got %d %v", len(picked), err)
	}
	if err := s.bank.Deactivate(ctx, questions[0].ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	picked, err = s.bank.Random(ctx, filter, 10)
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	if len(picked) != 2 {
		t.Fatalf("expected deactivated question to leave the pool, got %d", len(picked))
	}
	for _, q := range picked {
		if q.ID == questions[0].ID {
			t.Fatalf("deactivated question still served")
		}
	}

	// history rows stay readable after deactivation
	if _, err := s.bank.Get(ctx, questions[0].ID); err != nil {
		t.Fatalf("deactivated question should remain stored: %v", err)
	}
}

func TestDuplicateRegistration(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, ctx)
	register(t, ctx, s.users, "gina")

	_, err := s.users.Register(ctx, app.RegisterRequest{Username: "other", Email: "GINA@example.com", Name: "G"})
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected duplicate email, got %v", err)
	}
	_, err = s.users.Register(ctx, app.RegisterRequest{Username: "gina", Email: "new@example.com", Name: "G"})
	if !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected duplicate username, got %v", err)
	}
}

func newStack(t *testing.T, ctx context.Context) stack {
	t.Helper()
	requireDocker(t)
	logging.SetBase(logging.Discard())

	pgURL, pgCleanup := startPostgres(t, ctx)
	t.Cleanup(pgCleanup)
	redisURL, redisCleanup := startRedis(t, ctx)
	t.Cleanup(redisCleanup)

	db := postgres.Open(pgURL)
	t.Cleanup(func() { _ = db.Close() })
	if _, err := postgres.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	t.Cleanup(pool.Close)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	t.Cleanup(func() { _ = redisClient.Close() })

	questions := postgres.NewQuestionStore(db)
	users := postgres.NewUserStore(db)
	results := postgres.NewResultStore(db)
	progress := app.NewProgressTracker(postgres.NewProgressStore(db))
	hub := app.NewLeaderboardHub()
	rankings := app.NewRankingService(users, users, results, infraredis.NewLeaderboardCache(redisClient, time.Minute), hub)
	pooled := infraredis.NewQuestionPool(redisClient, postgres.NewQuestionLoader(pool), 5*time.Minute)

	return stack{
		bank:     app.NewQuestionBank(questions, pooled),
		exams:    app.NewExamService(questions, results, users, progress, app.NewAchievementEvaluator(users), rankings),
		progress: progress,
		rankings: rankings,
		users:    app.NewUserService(users),
	}
}

func seedQuestions(t *testing.T, ctx context.Context, bank *app.QuestionBank, n int) []domain.Question {
	t.Helper()
	out := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		q, err := bank.Create(ctx, domain.Question{
			Type:    domain.TypeVocabulary,
			Level:   domain.LevelN5,
			Text:    fmt.Sprintf("word %d", i),
			Options: []string{"a", "b", "c", "d"},
			Correct: i % 4,
		}, "admin")
		if err != nil {
			t.Fatalf("create question: %v", err)
		}
		out = append(out, q)
	}
	return out
}

func register(t *testing.T, ctx context.Context, users *app.UserService, name string) domain.User {
	t.Helper()
	u, err := users.Register(ctx, app.RegisterRequest{Username: name, Email: name + "@example.com", Name: name})
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return u
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
