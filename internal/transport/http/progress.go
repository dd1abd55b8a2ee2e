package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"nihongo-quiz-service/internal/app"
	"nihongo-quiz-service/internal/domain"
)

type progressHandler struct {
	progress *app.ProgressTracker
	errs     errorWriter
}

func (h *progressHandler) overview(w http.ResponseWriter, r *http.Request) {
	level, err := levelQuery(r)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	statuses, err := h.progress.Overview(r.Context(), chi.URLParam(r, "userId"), level)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "level": level, "data": statuses})
}

func (h *progressHandler) unlocked(w http.ResponseWriter, r *http.Request) {
	level, err := levelQuery(r)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	setType, err := domain.ParseSetType(r.URL.Query().Get("setType"))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	setNumber, err := intQuery(r, "setNumber", 0)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	key := domain.ProgressKey{
		UserID:    chi.URLParam(r, "userId"),
		Level:     level,
		SetType:   setType,
		SetNumber: setNumber,
	}
	unlocked, err := h.progress.IsUnlocked(r.Context(), key)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{
		"unlocked":  unlocked,
		"available": domain.SetAvailable(level, setType, setNumber),
	})
}

// levelQuery requires a level; progress is always scoped to one.
func levelQuery(r *http.Request) (domain.Level, error) {
	return domain.ParseLevel(r.URL.Query().Get("level"))
}
