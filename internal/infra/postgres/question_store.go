package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"nihongo-quiz-service/internal/domain"
)

// QuestionStore is the bun-backed question bank.
type QuestionStore struct {
	db *bun.DB
}

func NewQuestionStore(db *bun.DB) *QuestionStore {
	return &QuestionStore{db: db}
}

func (s *QuestionStore) Page(ctx context.Context, filter domain.QuestionFilter, offset, limit int) ([]domain.Question, error) {
	var rows []*questionRow
	err := s.db.NewSelect().
		Model(&rows).
		Apply(activeMatching(filter)).
		Order("q.created_at DESC", "q.id ASC").
		Offset(offset).
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	out := make([]domain.Question, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *QuestionStore) Count(ctx context.Context, filter domain.QuestionFilter) (int, error) {
	n, err := s.db.NewSelect().
		Model((*questionRow)(nil)).
		Apply(activeMatching(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}

func (s *QuestionStore) FindByIDs(ctx context.Context, ids []string) ([]domain.Question, error) {
	if len(ids) == 0 {
		return []domain.Question{}, nil
	}
	var rows []*questionRow
	if err := s.db.NewSelect().Model(&rows).Where("q.id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		return nil, fmt.Errorf("find questions: %w", err)
	}
	out := make([]domain.Question, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *QuestionStore) Get(ctx context.Context, id string) (domain.Question, error) {
	row := new(questionRow)
	if err := s.db.NewSelect().Model(row).Where("q.id = ?", id).Scan(ctx); err != nil {
		return domain.Question{}, notFound(err, domain.ErrQuestionNotFound, "get question")
	}
	return row.toDomain(), nil
}

func (s *QuestionStore) Create(ctx context.Context, questions ...domain.Question) error {
	if len(questions) == 0 {
		return nil
	}
	rows := make([]*questionRow, len(questions))
	for i, q := range questions {
		rows[i] = questionFromDomain(q)
	}
	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("insert questions: %w", err)
	}
	return nil
}

func (s *QuestionStore) Update(ctx context.Context, q domain.Question) error {
	res, err := s.db.NewUpdate().
		Model(questionFromDomain(q)).
		ExcludeColumn("created_at", "created_by").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func activeMatching(filter domain.QuestionFilter) func(*bun.SelectQuery) *bun.SelectQuery {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		q = q.Where("q.is_active")
		if filter.Level != "" {
			q = q.Where("q.level = ?", string(filter.Level))
		}
		if filter.Type != "" {
			q = q.Where("q.type = ?", string(filter.Type))
		}
		return q
	}
}
