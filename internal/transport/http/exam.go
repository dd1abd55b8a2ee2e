package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"nihongo-quiz-service/internal/app"
	"nihongo-quiz-service/internal/domain"
)

const defaultHistoryLimit = 10

type examHandler struct {
	exams *app.ExamService
	bank  *app.QuestionBank
	errs  errorWriter
}

type submitBody struct {
	UserID    string                    `json:"userId"`
	UserName  string                    `json:"userName"`
	Level     string                    `json:"level"`
	SetType   string                    `json:"setType"`
	SetNumber int                       `json:"setNumber"`
	Answers   []domain.AnswerSubmission `json:"answers"`
	TimeSpent int                       `json:"timeSpent"`
}

type submitResponse struct {
	ResultID       string                   `json:"resultId"`
	Score          int                      `json:"score"`
	TotalQuestions int                      `json:"totalQuestions"`
	Percentage     int                      `json:"percentage"`
	Answers        []domain.EvaluatedAnswer `json:"answers"`
	Progress       *domain.ProgressEntry    `json:"progress,omitempty"`
	Achievements   []domain.Achievement     `json:"newAchievements"`
	Points         int                      `json:"points"`
	Level          domain.Level             `json:"userLevel"`
	Streak         int                      `json:"streak"`
}

func (h *examHandler) questions(w http.ResponseWriter, r *http.Request) {
	filter, err := filterQuery(r)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	count, err := boundedIntQuery(r, "count", defaultRandomCount, 1, maxRandomCount)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	questions, err := h.bank.ExamQuestions(r.Context(), filter, count)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "count": len(questions), "data": questions})
}

func (h *examHandler) submit(w http.ResponseWriter, r *http.Request) {
	var body submitBody
	if err := decodeJSON(r, &body); err != nil {
		h.errs.write(w, r, err)
		return
	}
	level, err := domain.ParseLevel(body.Level)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	req := app.SubmitRequest{
		UserID:    body.UserID,
		UserName:  body.UserName,
		Level:     level,
		SetNumber: body.SetNumber,
		Answers:   body.Answers,
		TimeSpent: body.TimeSpent,
	}
	if body.SetType != "" {
		setType, err := domain.ParseSetType(body.SetType)
		if err != nil {
			h.errs.write(w, r, err)
			return
		}
		req.SetType = setType
	}

	out, err := h.exams.Submit(r.Context(), req)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	achievements := out.Achievements
	if achievements == nil {
		achievements = []domain.Achievement{}
	}
	writeData(w, http.StatusOK, submitResponse{
		ResultID:       out.Result.ID,
		Score:          out.Result.Score,
		TotalQuestions: out.Result.TotalQuestions,
		Percentage:     out.Result.Percentage,
		Answers:        out.Result.Answers,
		Progress:       out.Progress,
		Achievements:   achievements,
		Points:         out.User.Points,
		Level:          out.User.Level(),
		Streak:         out.User.Streak,
	})
}

func (h *examHandler) result(w http.ResponseWriter, r *http.Request) {
	result, err := h.exams.Result(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

func (h *examHandler) history(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", defaultHistoryLimit)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	skip, err := intQuery(r, "skip", 0)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	results, total, err := h.exams.History(r.Context(), chi.URLParam(r, "userId"), skip, limit)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": results, "total": total})
}
