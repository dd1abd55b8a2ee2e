package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"nihongo-quiz-service/internal/domain"
)

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID         string    `bun:"id,pk"`
	Username   string    `bun:"username,notnull"`
	Email      string    `bun:"email,notnull"`
	Name       string    `bun:"name,notnull"`
	Avatar     string    `bun:"avatar,notnull"`
	Points     int       `bun:"points,notnull"`
	Streak     int       `bun:"streak,notnull"`
	LastActive time.Time `bun:"last_active,nullzero"`
	CreatedAt  time.Time `bun:"created_at,notnull"`

	Scores       []*quizScoreRow   `bun:"rel:has-many,join:id=user_id"`
	Achievements []*achievementRow `bun:"rel:has-many,join:id=user_id"`
}

type quizScoreRow struct {
	bun.BaseModel `bun:"table:quiz_scores,alias:qs"`

	ID             int64     `bun:"id,pk,autoincrement"`
	UserID         string    `bun:"user_id,notnull"`
	Level          string    `bun:"level,notnull"`
	Score          int       `bun:"score,notnull"`
	TimeSpent      int       `bun:"time_spent,notnull"`
	TotalQuestions int       `bun:"total_questions,notnull"`
	TakenAt        time.Time `bun:"taken_at,notnull"`
}

type achievementRow struct {
	bun.BaseModel `bun:"table:user_achievements,alias:ua"`

	UserID      string    `bun:"user_id,pk"`
	Name        string    `bun:"name,pk"`
	Description string    `bun:"description,notnull"`
	Icon        string    `bun:"icon,notnull"`
	DateEarned  time.Time `bun:"date_earned,notnull"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID          string    `bun:"id,pk"`
	Type        string    `bun:"type,notnull"`
	Level       string    `bun:"level,notnull"`
	Question    string    `bun:"question,notnull"`
	Kanji       string    `bun:"kanji,notnull"`
	Options     []string  `bun:"options,type:jsonb,notnull"`
	Correct     int       `bun:"correct,notnull"`
	Explanation string    `bun:"explanation,notnull"`
	CreatedBy   string    `bun:"created_by,notnull"`
	IsActive    bool      `bun:"is_active,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}

type resultRow struct {
	bun.BaseModel `bun:"table:exam_results,alias:er"`

	ID             string                   `bun:"id,pk"`
	UserID         string                   `bun:"user_id,notnull"`
	UserName       string                   `bun:"user_name,notnull"`
	Level          string                   `bun:"level,notnull"`
	Score          int                      `bun:"score,notnull"`
	TotalQuestions int                      `bun:"total_questions,notnull"`
	Percentage     int                      `bun:"percentage,notnull"`
	Answers        []domain.EvaluatedAnswer `bun:"answers,type:jsonb,notnull"`
	TimeSpent      int                      `bun:"time_spent,notnull"`
	CompletedAt    time.Time                `bun:"completed_at,notnull"`
}

type progressRow struct {
	bun.BaseModel `bun:"table:quiz_progress,alias:qp"`

	UserID        string    `bun:"user_id,pk"`
	Level         string    `bun:"level,pk"`
	SetType       string    `bun:"set_type,pk"`
	SetNumber     int       `bun:"set_number,pk"`
	BestScore     int       `bun:"best_score,notnull"`
	Completed     bool      `bun:"completed,notnull"`
	Attempts      int       `bun:"attempts,notnull"`
	TimeSpent     int       `bun:"time_spent,notnull"`
	LastAttempted time.Time `bun:"last_attempted,notnull"`
}

func (r *userRow) toDomain() domain.User {
	u := domain.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		Name:         r.Name,
		Avatar:       r.Avatar,
		Points:       r.Points,
		Streak:       r.Streak,
		LastActive:   r.LastActive,
		CreatedAt:    r.CreatedAt,
		QuizScores:   make([]domain.QuizScore, 0, len(r.Scores)),
		Achievements: make([]domain.Achievement, 0, len(r.Achievements)),
	}
	for _, s := range r.Scores {
		u.QuizScores = append(u.QuizScores, domain.QuizScore{
			Level:          domain.Level(s.Level),
			Score:          s.Score,
			TimeSpent:      s.TimeSpent,
			TotalQuestions: s.TotalQuestions,
			Date:           s.TakenAt,
		})
	}
	for _, a := range r.Achievements {
		u.Achievements = append(u.Achievements, domain.Achievement{
			Name:        a.Name,
			Description: a.Description,
			Icon:        a.Icon,
			DateEarned:  a.DateEarned,
		})
	}
	return u
}

func questionFromDomain(q domain.Question) *questionRow {
	return &questionRow{
		ID:          q.ID,
		Type:        string(q.Type),
		Level:       string(q.Level),
		Question:    q.Text,
		Kanji:       q.Kanji,
		Options:     q.Options,
		Correct:     q.Correct,
		Explanation: q.Explanation,
		CreatedBy:   q.CreatedBy,
		IsActive:    q.IsActive,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

func (r *questionRow) toDomain() domain.Question {
	return domain.Question{
		ID:          r.ID,
		Type:        domain.QuestionType(r.Type),
		Level:       domain.Level(r.Level),
		Text:        r.Question,
		Kanji:       r.Kanji,
		Options:     r.Options,
		Correct:     r.Correct,
		Explanation: r.Explanation,
		CreatedBy:   r.CreatedBy,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func resultFromDomain(r domain.ExamResult) *resultRow {
	answers := r.Answers
	if answers == nil {
		answers = []domain.EvaluatedAnswer{}
	}
	return &resultRow{
		ID:             r.ID,
		UserID:         r.UserID,
		UserName:       r.UserName,
		Level:          string(r.Level),
		Score:          r.Score,
		TotalQuestions: r.TotalQuestions,
		Percentage:     r.Percentage,
		Answers:        answers,
		TimeSpent:      r.TimeSpent,
		CompletedAt:    r.CompletedAt,
	}
}

func (r *resultRow) toDomain() domain.ExamResult {
	return domain.ExamResult{
		ID:             r.ID,
		UserID:         r.UserID,
		UserName:       r.UserName,
		Level:          domain.Level(r.Level),
		Score:          r.Score,
		TotalQuestions: r.TotalQuestions,
		Percentage:     r.Percentage,
		Answers:        r.Answers,
		TimeSpent:      r.TimeSpent,
		CompletedAt:    r.CompletedAt,
	}
}

func (r *progressRow) toDomain() domain.ProgressEntry {
	return domain.ProgressEntry{
		ProgressKey: domain.ProgressKey{
			UserID:    r.UserID,
			Level:     domain.Level(r.Level),
			SetType:   domain.SetType(r.SetType),
			SetNumber: r.SetNumber,
		},
		BestScore:     r.BestScore,
		Completed:     r.Completed,
		Attempts:      r.Attempts,
		TimeSpent:     r.TimeSpent,
		LastAttempted: r.LastAttempted,
	}
}
