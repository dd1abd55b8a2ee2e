package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"nihongo-quiz-service/internal/domain"
)

// QuestionLoader reads the active question pool for a filter straight from Postgres.
// It backs the pool caches, which only ever need whole pools.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadPool(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, type, level, question, kanji, options, correct, explanation, created_by, created_at, updated_at
		FROM questions
		WHERE is_active
		  AND ($1::text = '' OR level = $1::text)
		  AND ($2::text = '' OR type = $2::text)
		ORDER BY id`,
		string(filter.Level), string(filter.Type))
	if err != nil {
		return nil, fmt.Errorf("load question pool: %w", err)
	}
	defer rows.Close()

	questions := []domain.Question{}
	for rows.Next() {
		var (
			q                  domain.Question
			qType, level       string
			rawOptions         []byte
			createdAt, updated time.Time
		)
		if err := rows.Scan(&q.ID, &qType, &level, &q.Text, &q.Kanji, &rawOptions, &q.Correct,
			&q.Explanation, &q.CreatedBy, &createdAt, &updated); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(rawOptions, &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options of %s: %w", q.ID, err)
		}
		q.Type = domain.QuestionType(qType)
		q.Level = domain.Level(level)
		q.IsActive = true
		q.CreatedAt = createdAt
		q.UpdatedAt = updated
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load question pool: %w", err)
	}
	return questions, nil
}
