package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"nihongo-quiz-service/internal/domain"
	"nihongo-quiz-service/internal/logging"
)

// SubmitRequest is one exam submission. SetType and SetNumber are optional; when present the
// attempt also counts towards set progress.
type SubmitRequest struct {
	UserID    string
	UserName  string
	Level     domain.Level
	SetType   domain.SetType
	SetNumber int
	Answers   []domain.AnswerSubmission
	TimeSpent int
}

// SubmitOutcome is everything a submission changed.
type SubmitOutcome struct {
	Result       domain.ExamResult
	Progress     *domain.ProgressEntry
	Achievements []domain.Achievement
	User         domain.User
}

// ExamService runs the submission pipeline: evaluate, persist, track progress, update the
// user's score, grant achievements, refresh rankings.
type ExamService struct {
	questions    QuestionRepository
	results      ResultRepository
	users        UserRepository
	progress     *ProgressTracker
	achievements *AchievementEvaluator
	rankings     *RankingService
	now          func() time.Time
	newID        func() string
}

func NewExamService(
	questions QuestionRepository,
	results ResultRepository,
	users UserRepository,
	progress *ProgressTracker,
	achievements *AchievementEvaluator,
	rankings *RankingService,
) *ExamService {
	return &ExamService{
		questions:    questions,
		results:      results,
		users:        users,
		progress:     progress,
		achievements: achievements,
		rankings:     rankings,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// Submit scores and records a submission. Store failures abort the pipeline and are returned;
// nothing is retried here so a failed grant cannot be replayed into a duplicate.
func (s *ExamService) Submit(ctx context.Context, req SubmitRequest) (SubmitOutcome, error) {
	if err := validateSubmit(req); err != nil {
		return SubmitOutcome{}, err
	}
	if _, err := s.users.Get(ctx, req.UserID); err != nil {
		return SubmitOutcome{}, err
	}
	if req.SetType != "" {
		key := domain.ProgressKey{UserID: req.UserID, Level: req.Level, SetType: req.SetType, SetNumber: req.SetNumber}
		unlocked, err := s.progress.IsUnlocked(ctx, key)
		if err != nil {
			return SubmitOutcome{}, err
		}
		if !unlocked {
			return SubmitOutcome{}, domain.Invalid("setNumber", "set %d is locked until set %d is passed", req.SetNumber, req.SetNumber-1)
		}
	}

	bank, err := s.questions.FindByIDs(ctx, questionIDs(req.Answers))
	if err != nil {
		return SubmitOutcome{}, err
	}
	eval := Evaluate(req.Answers, bank)

	now := s.now()
	result := domain.ExamResult{
		ID:             s.newID(),
		UserID:         req.UserID,
		UserName:       req.UserName,
		Level:          req.Level,
		Score:          eval.Score,
		TotalQuestions: eval.Total,
		Percentage:     eval.Percentage,
		Answers:        eval.Answers,
		TimeSpent:      req.TimeSpent,
		CompletedAt:    now,
	}
	if err := s.results.Create(ctx, result); err != nil {
		return SubmitOutcome{}, err
	}
	outcome := SubmitOutcome{Result: result}

	if req.SetType != "" {
		key := domain.ProgressKey{UserID: req.UserID, Level: req.Level, SetType: req.SetType, SetNumber: req.SetNumber}
		entry, err := s.progress.RecordAttempt(ctx, key, eval.Percentage, req.TimeSpent)
		if err != nil {
			return SubmitOutcome{}, err
		}
		outcome.Progress = &entry
	}

	user, err := s.users.ApplyScore(ctx, req.UserID, domain.QuizScore{
		Level:          req.Level,
		Score:          eval.Percentage,
		TimeSpent:      req.TimeSpent,
		TotalQuestions: eval.Total,
		Date:           now,
	})
	if err != nil {
		return SubmitOutcome{}, err
	}

	granted, err := s.achievements.Evaluate(ctx, user, eval.Percentage)
	if err != nil {
		return SubmitOutcome{}, err
	}
	user.Achievements = append(user.Achievements, granted...)
	outcome.Achievements = granted
	outcome.User = user

	s.rankings.ScoresChanged(ctx)

	logging.FromContext(ctx).WithFields(logrus.Fields{
		"user_id":    req.UserID,
		"result_id":  result.ID,
		"level":      req.Level,
		"percentage": eval.Percentage,
	}).Info("exam submitted")
	return outcome, nil
}

// Result returns a stored exam result.
func (s *ExamService) Result(ctx context.Context, id string) (domain.ExamResult, error) {
	return s.results.Get(ctx, id)
}

// History lists a user's results, newest first, with the total count.
func (s *ExamService) History(ctx context.Context, userID string, skip, limit int) ([]domain.ExamResult, int, error) {
	if skip < 0 {
		return nil, 0, domain.Invalid("skip", "must not be negative")
	}
	if limit < 1 || limit > domain.MaxPageLimit {
		return nil, 0, domain.Invalid("limit", "must be between 1 and %d", domain.MaxPageLimit)
	}
	results, total, err := s.results.History(ctx, userID, skip, limit)
	if err != nil {
		return nil, 0, err
	}
	if results == nil {
		results = []domain.ExamResult{}
	}
	return results, total, nil
}

func validateSubmit(req SubmitRequest) error {
	if strings.TrimSpace(req.UserID) == "" {
		return domain.Invalid("userId", "is required")
	}
	if strings.TrimSpace(req.UserName) == "" {
		return domain.Invalid("userName", "is required")
	}
	if _, err := domain.ParseLevel(string(req.Level)); err != nil {
		return err
	}
	if req.Answers == nil {
		return domain.Invalid("answers", "must be an array")
	}
	if req.TimeSpent < 0 {
		return domain.Invalid("timeSpent", "must not be negative")
	}
	if req.SetType != "" {
		if _, err := domain.ParseSetType(string(req.SetType)); err != nil {
			return err
		}
		key := domain.ProgressKey{UserID: req.UserID, Level: req.Level, SetType: req.SetType, SetNumber: req.SetNumber}
		if err := key.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func questionIDs(answers []domain.AnswerSubmission) []string {
	seen := make(map[string]struct{}, len(answers))
	ids := make([]string, 0, len(answers))
	for _, a := range answers {
		if _, ok := seen[a.QuestionID]; ok {
			continue
		}
		seen[a.QuestionID] = struct{}{}
		ids = append(ids, a.QuestionID)
	}
	return ids
}
