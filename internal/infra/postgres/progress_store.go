package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"nihongo-quiz-service/internal/domain"
)

// ProgressStore keeps one row per (user, level, set type, set number).
type ProgressStore struct {
	db *bun.DB
}

func NewProgressStore(db *bun.DB) *ProgressStore {
	return &ProgressStore{db: db}
}

// Upsert merges an attempt in a single statement, so concurrent attempts on one set
// serialize on the row and none is lost.
func (s *ProgressStore) Upsert(ctx context.Context, key domain.ProgressKey, percentage, timeSpent int, at time.Time) (domain.ProgressEntry, error) {
	row := &progressRow{
		UserID:        key.UserID,
		Level:         string(key.Level),
		SetType:       string(key.SetType),
		SetNumber:     key.SetNumber,
		BestScore:     percentage,
		Completed:     domain.Passed(percentage),
		Attempts:      1,
		TimeSpent:     timeSpent,
		LastAttempted: at,
	}
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (user_id, level, set_type, set_number) DO UPDATE").
		Set("best_score = GREATEST(qp.best_score, EXCLUDED.best_score)").
		Set("completed = qp.completed OR EXCLUDED.completed").
		Set("attempts = qp.attempts + 1").
		Set("time_spent = qp.time_spent + EXCLUDED.time_spent").
		Set("last_attempted = EXCLUDED.last_attempted").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return domain.ProgressEntry{}, fmt.Errorf("upsert progress: %w", err)
	}
	return row.toDomain(), nil
}

func (s *ProgressStore) Get(ctx context.Context, key domain.ProgressKey) (domain.ProgressEntry, bool, error) {
	row := &progressRow{
		UserID:    key.UserID,
		Level:     string(key.Level),
		SetType:   string(key.SetType),
		SetNumber: key.SetNumber,
	}
	err := s.db.NewSelect().Model(row).WherePK().Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ProgressEntry{}, false, nil
	}
	if err != nil {
		return domain.ProgressEntry{}, false, fmt.Errorf("get progress: %w", err)
	}
	return row.toDomain(), true, nil
}

func (s *ProgressStore) ListForUser(ctx context.Context, userID string, level domain.Level) ([]domain.ProgressEntry, error) {
	var rows []*progressRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("qp.user_id = ?", userID).
		Apply(func(q *bun.SelectQuery) *bun.SelectQuery {
			if level != "" {
				q = q.Where("qp.level = ?", string(level))
			}
			return q
		}).
		Order("qp.level", "qp.set_type", "qp.set_number").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	out := make([]domain.ProgressEntry, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}
