package domain

// AchievementStats is the cumulative view the achievement rules read after an attempt.
type AchievementStats struct {
	TotalAttempts int
	Points        int
	Streak        int
	PerfectScores int
	LastScore     int
}

// AchievementRule grants a badge when Earned holds.
type AchievementRule struct {
	Name        string
	Description string
	Icon        string
	Earned      func(AchievementStats) bool
}

// AchievementRules is evaluated in full after every attempt; rules are independent.
var AchievementRules = []AchievementRule{
	{
		Name:        "First Steps",
		Description: "Complete your first quiz",
		Icon:        "first-steps",
		Earned:      func(s AchievementStats) bool { return s.TotalAttempts == 1 },
	},
	{
		Name:        "Perfect Score",
		Description: "Score 100% on a quiz",
		Icon:        "perfect-score",
		Earned:      func(s AchievementStats) bool { return s.LastScore == 100 },
	},
	{
		Name:        "Quiz Master",
		Description: "Complete 10 quizzes",
		Icon:        "quiz-master",
		Earned:      func(s AchievementStats) bool { return s.TotalAttempts >= 10 },
	},
}

// StatsFor derives rule inputs from a user whose latest attempt scored lastScore.
func StatsFor(u User, lastScore int) AchievementStats {
	perfect := 0
	for _, s := range u.QuizScores {
		if s.Score == 100 {
			perfect++
		}
	}
	return AchievementStats{
		TotalAttempts: len(u.QuizScores),
		Points:        u.Points,
		Streak:        u.Streak,
		PerfectScores: perfect,
		LastScore:     lastScore,
	}
}
