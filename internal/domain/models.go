package domain

import "time"

// Question is a multiple choice item. Correct indexes into Options.
type Question struct {
	ID          string       `json:"id"`
	Type        QuestionType `json:"type"`
	Level       Level        `json:"level"`
	Text        string       `json:"question"`
	Kanji       string       `json:"kanji,omitempty"`
	Options     []string     `json:"options"`
	Correct     int          `json:"correct"`
	Explanation string       `json:"explanation,omitempty"`
	CreatedBy   string       `json:"createdBy,omitempty"`
	IsActive    bool         `json:"isActive"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// PublicQuestion is the exam-facing view of a question; it never carries the answer.
type PublicQuestion struct {
	ID          string       `json:"id"`
	Type        QuestionType `json:"type"`
	Level       Level        `json:"level"`
	Text        string       `json:"question"`
	Kanji       string       `json:"kanji,omitempty"`
	Options     []string     `json:"options"`
	Explanation string       `json:"explanation,omitempty"`
}

// Public strips the correct index.
func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:          q.ID,
		Type:        q.Type,
		Level:       q.Level,
		Text:        q.Text,
		Kanji:       q.Kanji,
		Options:     q.Options,
		Explanation: q.Explanation,
	}
}

// QuestionFilter narrows the bank; zero fields match everything.
type QuestionFilter struct {
	Level Level
	Type  QuestionType
}

// Matches reports whether q is active and passes the filter.
func (f QuestionFilter) Matches(q Question) bool {
	if !q.IsActive {
		return false
	}
	if f.Level != "" && q.Level != f.Level {
		return false
	}
	if f.Type != "" && q.Type != f.Type {
		return false
	}
	return true
}

// QuestionPatch carries the fields of a partial question update.
type QuestionPatch struct {
	Type        *QuestionType `json:"type"`
	Level       *Level        `json:"level"`
	Text        *string       `json:"question"`
	Kanji       *string       `json:"kanji"`
	Options     []string      `json:"options"`
	Correct     *int          `json:"correct"`
	Explanation *string       `json:"explanation"`
}

// Apply returns q with the patch applied; the caller validates the result.
func (p QuestionPatch) Apply(q Question) Question {
	if p.Type != nil {
		q.Type = *p.Type
	}
	if p.Level != nil {
		q.Level = *p.Level
	}
	if p.Text != nil {
		q.Text = *p.Text
	}
	if p.Kanji != nil {
		q.Kanji = *p.Kanji
	}
	if p.Options != nil {
		q.Options = p.Options
	}
	if p.Correct != nil {
		q.Correct = *p.Correct
	}
	if p.Explanation != nil {
		q.Explanation = *p.Explanation
	}
	return q
}

// User is a learner and their cumulative activity.
type User struct {
	ID           string        `json:"id"`
	Username     string        `json:"username"`
	Email        string        `json:"email"`
	Name         string        `json:"name"`
	Avatar       string        `json:"avatar,omitempty"`
	Points       int           `json:"points"`
	Streak       int           `json:"streak"`
	LastActive   time.Time     `json:"lastActive"`
	CreatedAt    time.Time     `json:"createdAt"`
	QuizScores   []QuizScore   `json:"quizScores"`
	Achievements []Achievement `json:"achievements"`
}

// Level is derived from points on every read.
func (u User) Level() Level {
	return LevelForPoints(u.Points)
}

// HasAchievement reports whether the user already holds the named badge.
func (u User) HasAchievement(name string) bool {
	for _, a := range u.Achievements {
		if a.Name == name {
			return true
		}
	}
	return false
}

// QuizScore is one entry of a user's append-only score history.
type QuizScore struct {
	Level          Level     `json:"level"`
	Score          int       `json:"score"`
	TimeSpent      int       `json:"timeSpent"`
	TotalQuestions int       `json:"totalQuestions"`
	Date           time.Time `json:"date"`
}

// Achievement is a badge held by a user.
type Achievement struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	DateEarned  time.Time `json:"dateEarned"`
}

// AnswerSubmission is one answered question as sent by a client.
type AnswerSubmission struct {
	QuestionID string `json:"questionId"`
	Selected   int    `json:"selected"`
}

// EvaluatedAnswer is a submission after scoring.
type EvaluatedAnswer struct {
	QuestionID    string `json:"questionId"`
	Selected      int    `json:"selected"`
	Correct       bool   `json:"correct"`
	Feedback      string `json:"feedback"`
	CorrectAnswer *int   `json:"correctAnswer,omitempty"`
}

// Evaluation is the scored outcome of a set of submissions.
type Evaluation struct {
	Answers    []EvaluatedAnswer `json:"answers"`
	Score      int               `json:"score"`
	Total      int               `json:"total"`
	Percentage int               `json:"percentage"`
}

// ExamResult is one persisted submission. It is never modified after creation.
type ExamResult struct {
	ID             string            `json:"id"`
	UserID         string            `json:"userId"`
	UserName       string            `json:"userName"`
	Level          Level             `json:"level"`
	Score          int               `json:"score"`
	TotalQuestions int               `json:"totalQuestions"`
	Percentage     int               `json:"percentage"`
	Answers        []EvaluatedAnswer `json:"answers,omitempty"`
	TimeSpent      int               `json:"timeSpent"`
	CompletedAt    time.Time         `json:"completedAt"`
}

// RankingEntry is a row of the global leaderboard.
type RankingEntry struct {
	Rank              int    `json:"rank"`
	UserID            string `json:"userId"`
	Name              string `json:"name"`
	Avatar            string `json:"avatar,omitempty"`
	Points            int    `json:"points"`
	Level             Level  `json:"level"`
	AchievementsCount int    `json:"achievementsCount"`
	QuizzesTaken      int    `json:"quizzesTaken"`
}

// LevelRankingEntry is a row of a per-level leaderboard.
type LevelRankingEntry struct {
	Rank        int       `json:"rank"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Avatar      string    `json:"avatar,omitempty"`
	Level       Level     `json:"level"`
	MaxScore    int       `json:"maxScore"`
	LastAttempt time.Time `json:"lastAttempt"`
	Attempts    int       `json:"attempts"`
}

// Leaderboard is a page of the global ranking.
type Leaderboard struct {
	Entries    []RankingEntry `json:"entries"`
	Pagination Pagination     `json:"pagination"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// LevelLeaderboard is a page of a per-level ranking.
type LevelLeaderboard struct {
	Level      Level               `json:"level"`
	Entries    []LevelRankingEntry `json:"entries"`
	Pagination Pagination          `json:"pagination"`
}

// UserStats summarises a user's activity for the rank view.
type UserStats struct {
	TotalQuizzes  int     `json:"totalQuizzes"`
	TotalPoints   int     `json:"totalPoints"`
	Achievements  int     `json:"achievements"`
	CurrentStreak int     `json:"currentStreak"`
	AverageScore  float64 `json:"averageScore"`
}

// UserSummary is the public identity shown next to a rank.
type UserSummary struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Level  Level  `json:"level"`
	Points int    `json:"points"`
}

// UserRanking is a user's standing globally and per level.
type UserRanking struct {
	GlobalRank int           `json:"globalRank"`
	LevelRanks map[Level]int `json:"levelRanks"`
	Stats      UserStats     `json:"stats"`
	User       UserSummary   `json:"user"`
}
