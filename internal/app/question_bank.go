package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"nihongo-quiz-service/internal/domain"
	"nihongo-quiz-service/internal/logging"
)

// QuestionPage is one page of the question bank.
type QuestionPage struct {
	Items      []domain.Question
	Pagination domain.Pagination
}

// QuestionBank serves, samples and authors questions.
type QuestionBank struct {
	repo  QuestionRepository
	pool  QuestionPool
	now   func() time.Time
	newID func() string

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionBank(repo QuestionRepository, pool QuestionPool) *QuestionBank {
	return &QuestionBank{
		repo:  repo,
		pool:  pool,
		now:   time.Now,
		newID: uuid.NewString,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// List returns active questions matching filter, newest first.
func (b *QuestionBank) List(ctx context.Context, filter domain.QuestionFilter, page domain.PageRequest) (QuestionPage, error) {
	var (
		items []domain.Question
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = b.repo.Page(gctx, filter, page.Offset(), page.Limit)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = b.repo.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return QuestionPage{}, err
	}
	if items == nil {
		items = []domain.Question{}
	}
	return QuestionPage{Items: items, Pagination: page.Paginate(total)}, nil
}

// Random samples up to count active questions uniformly without replacement.
// Fewer matches than count yields every match; no matches yields an empty slice.
func (b *QuestionBank) Random(ctx context.Context, filter domain.QuestionFilter, count int) ([]domain.Question, error) {
	if count < 1 {
		return nil, domain.Invalid("limit", "must be at least 1")
	}
	pool, err := b.pool.ActivePool(ctx, filter)
	if err != nil {
		return nil, err
	}
	return b.sample(pool, count), nil
}

// ExamQuestions samples like Random but returns the answer-free view.
func (b *QuestionBank) ExamQuestions(ctx context.Context, filter domain.QuestionFilter, count int) ([]domain.PublicQuestion, error) {
	questions, err := b.Random(ctx, filter, count)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PublicQuestion, len(questions))
	for i, q := range questions {
		out[i] = q.Public()
	}
	return out, nil
}

// sample runs a partial Fisher-Yates shuffle over a copy; pools may be shared cache entries.
func (b *QuestionBank) sample(pool []domain.Question, count int) []domain.Question {
	picked := make([]domain.Question, len(pool))
	copy(picked, pool)
	if count > len(picked) {
		count = len(picked)
	}

	b.mu.Lock()
	for i := 0; i < count; i++ {
		j := i + b.rnd.Intn(len(picked)-i)
		picked[i], picked[j] = picked[j], picked[i]
	}
	b.mu.Unlock()

	return picked[:count]
}

// Get returns a question by id, active or not.
func (b *QuestionBank) Get(ctx context.Context, id string) (domain.Question, error) {
	return b.repo.Get(ctx, id)
}

// Create validates and stores a new active question.
func (b *QuestionBank) Create(ctx context.Context, q domain.Question, createdBy string) (domain.Question, error) {
	q = b.prepare(q, createdBy)
	if err := q.Validate(); err != nil {
		return domain.Question{}, err
	}
	if err := b.repo.Create(ctx, q); err != nil {
		return domain.Question{}, err
	}
	b.invalidate(ctx)
	return q, nil
}

// Import validates every question before storing any of them.
func (b *QuestionBank) Import(ctx context.Context, questions []domain.Question, createdBy string) (int, error) {
	if len(questions) == 0 {
		return 0, domain.Invalid("questions", "at least one question is required")
	}
	prepared := make([]domain.Question, len(questions))
	for i, q := range questions {
		prepared[i] = b.prepare(q, createdBy)
		if err := prepared[i].Validate(); err != nil {
			return 0, domain.Invalid("questions", "question %d: %v", i, err)
		}
	}
	if err := b.repo.Create(ctx, prepared...); err != nil {
		return 0, err
	}
	b.invalidate(ctx)
	return len(prepared), nil
}

// Update applies a partial edit and re-validates the whole question.
func (b *QuestionBank) Update(ctx context.Context, id string, patch domain.QuestionPatch) (domain.Question, error) {
	current, err := b.repo.Get(ctx, id)
	if err != nil {
		return domain.Question{}, err
	}
	updated := patch.Apply(current)
	if err := updated.Validate(); err != nil {
		return domain.Question{}, err
	}
	updated.UpdatedAt = b.now()
	if err := b.repo.Update(ctx, updated); err != nil {
		return domain.Question{}, err
	}
	b.invalidate(ctx)
	return updated, nil
}

// Deactivate soft-deletes a question.
func (b *QuestionBank) Deactivate(ctx context.Context, id string) error {
	current, err := b.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	current.IsActive = false
	current.UpdatedAt = b.now()
	if err := b.repo.Update(ctx, current); err != nil {
		return err
	}
	b.invalidate(ctx)
	return nil
}

func (b *QuestionBank) prepare(q domain.Question, createdBy string) domain.Question {
	now := b.now()
	q.ID = b.newID()
	q.IsActive = true
	q.CreatedBy = createdBy
	q.CreatedAt = now
	q.UpdatedAt = now
	return q
}

// invalidate drops cached pools; a failure only delays visibility until the cache TTL.
func (b *QuestionBank) invalidate(ctx context.Context) {
	if err := b.pool.Invalidate(ctx); err != nil {
		logging.FromContext(ctx).WithError(err).Error("invalidate question pool cache")
	}
}
