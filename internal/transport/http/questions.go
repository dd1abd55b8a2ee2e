package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"nihongo-quiz-service/internal/app"
	"nihongo-quiz-service/internal/auth"
	"nihongo-quiz-service/internal/domain"
)

const (
	defaultQuestionPage = 20
	defaultRandomCount  = 10
	maxRandomCount      = 50
)

type questionHandler struct {
	bank *app.QuestionBank
	errs errorWriter
}

func (h *questionHandler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := filterQuery(r)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	page, err := pageQuery(r, defaultQuestionPage)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	result, err := h.bank.List(r.Context(), filter, page)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success":    true,
		"data":       result.Items,
		"pagination": result.Pagination,
	})
}

// random serves a public sample; answers are stripped.
func (h *questionHandler) random(w http.ResponseWriter, r *http.Request) {
	filter, err := filterQuery(r)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	count, err := boundedIntQuery(r, "limit", defaultRandomCount, 1, maxRandomCount)
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

func (h *questionHandler) create(w http.ResponseWriter, r *http.Request) {
	var q domain.Question
	if err := decodeJSON(r, &q); err != nil {
		h.errs.write(w, r, err)
		return
	}
	created, err := h.bank.Create(r.Context(), q, callerID(r))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, created)
}

func (h *questionHandler) importBatch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Questions []domain.Question `json:"questions"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.errs.write(w, r, err)
		return
	}
	n, err := h.bank.Import(r.Context(), body.Questions, callerID(r))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"success": true, "count": n})
}

func (h *questionHandler) update(w http.ResponseWriter, r *http.Request) {
	var patch domain.QuestionPatch
	if err := decodeJSON(r, &patch); err != nil {
		h.errs.write(w, r, err)
		return
	}
	updated, err := h.bank.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeData(w, http.StatusOK, updated)
}

func (h *questionHandler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.bank.Deactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Question deleted"})
}

func callerID(r *http.Request) string {
	claims, err := auth.ClaimsFromContext(r.Context())
	if err != nil {
		return ""
	}
	return claims.UserID
}
