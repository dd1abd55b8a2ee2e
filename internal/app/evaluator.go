package app

import (
	"math"

	"nihongo-quiz-service/internal/domain"
)

const (
	feedbackCorrect   = "Correct!"
	feedbackIncorrect = "Incorrect"
)

// Evaluate scores submissions against the bank. It has no side effects.
// The total is the number of submitted answers, not the size of the bank; answers to
// unknown questions count as incorrect.
func Evaluate(answers []domain.AnswerSubmission, bank []domain.Question) domain.Evaluation {
	byID := make(map[string]domain.Question, len(bank))
	for _, q := range bank {
		byID[q.ID] = q
	}

	eval := domain.Evaluation{
		Answers: make([]domain.EvaluatedAnswer, 0, len(answers)),
		Total:   len(answers),
	}
	for _, a := range answers {
		out := domain.EvaluatedAnswer{
			QuestionID: a.QuestionID,
			Selected:   a.Selected,
			Feedback:   feedbackIncorrect,
		}
		if q, ok := byID[a.QuestionID]; ok {
			correct := q.Correct
			out.CorrectAnswer = &correct
			if a.Selected == q.Correct {
				out.Correct = true
				out.Feedback = feedbackCorrect
				eval.Score++
			}
		}
		eval.Answers = append(eval.Answers, out)
	}
	eval.Percentage = Percentage(eval.Score, eval.Total)
	return eval
}

// Percentage is round(score/total*100), or 0 when total is 0.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}
