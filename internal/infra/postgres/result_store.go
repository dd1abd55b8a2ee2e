package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"nihongo-quiz-service/internal/domain"
)

// ResultStore persists exam results; rows are never updated.
type ResultStore struct {
	db *bun.DB
}

func NewResultStore(db *bun.DB) *ResultStore {
	return &ResultStore{db: db}
}

func (s *ResultStore) Create(ctx context.Context, r domain.ExamResult) error {
	if _, err := s.db.NewInsert().Model(resultFromDomain(r)).Exec(ctx); err != nil {
		return fmt.Errorf("insert exam result: %w", err)
	}
	return nil
}

func (s *ResultStore) Get(ctx context.Context, id string) (domain.ExamResult, error) {
	row := new(resultRow)
	if err := s.db.NewSelect().Model(row).Where("er.id = ?", id).Scan(ctx); err != nil {
		return domain.ExamResult{}, notFound(err, domain.ErrResultNotFound, "get exam result")
	}
	return row.toDomain(), nil
}

func (s *ResultStore) History(ctx context.Context, userID string, skip, limit int) ([]domain.ExamResult, int, error) {
	var rows []*resultRow
	total, err := s.db.NewSelect().
		Model(&rows).
		Where("er.user_id = ?", userID).
		Order("er.completed_at DESC").
		Offset(skip).
		Limit(limit).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("exam history: %w", err)
	}
	out := make([]domain.ExamResult, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, total, nil
}

func (s *ResultStore) Top(ctx context.Context, level domain.Level, limit int) ([]domain.ExamResult, error) {
	var rows []*resultRow
	err := s.db.NewSelect().
		Model(&rows).
		ExcludeColumn("answers").
		Apply(func(q *bun.SelectQuery) *bun.SelectQuery {
			if level != "" {
				q = q.Where("er.level = ?", string(level))
			}
			return q
		}).
		Order("er.score DESC", "er.time_spent ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("top results: %w", err)
	}
	out := make([]domain.ExamResult, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}
