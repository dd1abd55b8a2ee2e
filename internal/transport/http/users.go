package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"nihongo-quiz-service/internal/app"
	"nihongo-quiz-service/internal/domain"
)

type userHandler struct {
	users *app.UserService
	errs  errorWriter
}

// userView adds the level derived from points.
type userView struct {
	domain.User
	Level domain.Level `json:"level"`
}

func (h *userHandler) register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Name     string `json:"name"`
		Avatar   string `json:"avatar"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.errs.write(w, r, err)
		return
	}
	u, err := h.users.Register(r.Context(), app.RegisterRequest{
		Username: body.Username,
		Email:    body.Email,
		Name:     body.Name,
		Avatar:   body.Avatar,
	})
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, userView{User: u, Level: u.Level()})
}

func (h *userHandler) get(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeData(w, http.StatusOK, userView{User: u, Level: u.Level()})
}
