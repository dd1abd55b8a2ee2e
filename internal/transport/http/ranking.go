package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"nihongo-quiz-service/internal/app"
	"nihongo-quiz-service/internal/domain"
)

const (
	defaultTopLimit = 10
	defaultRankPage = 20
)

type rankingHandler struct {
	rankings *app.RankingService
	errs     errorWriter
}

func (h *rankingHandler) top(w http.ResponseWriter, r *http.Request) {
	level, err := optionalLevel(r.URL.Query().Get("level"))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	limit, err := intQuery(r, "limit", defaultTopLimit)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	results, err := h.rankings.TopResults(r.Context(), level, limit)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "count": len(results), "data": results})
}

func (h *rankingHandler) global(w http.ResponseWriter, r *http.Request) {
	page, err := pageQuery(r, defaultRankPage)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	lb, err := h.rankings.GlobalLeaderboard(r.Context(), page)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeData(w, http.StatusOK, lb)
}

func (h *rankingHandler) level(w http.ResponseWriter, r *http.Request) {
	level, err := domain.ParseLevel(chi.URLParam(r, "level"))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	page, err := pageQuery(r, defaultRankPage)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	lb, err := h.rankings.LevelLeaderboard(r.Context(), level, page)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeData(w, http.StatusOK, lb)
}

func (h *rankingHandler) user(w http.ResponseWriter, r *http.Request) {
	rank, err := h.rankings.UserRank(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeData(w, http.StatusOK, rank)
}
