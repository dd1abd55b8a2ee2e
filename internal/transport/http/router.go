package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"nihongo-quiz-service/internal/app"
	"nihongo-quiz-service/internal/auth"
)

// Services are the use cases exposed over HTTP.
type Services struct {
	Questions *app.QuestionBank
	Exams     *app.ExamService
	Progress  *app.ProgressTracker
	Rankings  *app.RankingService
	Users     *app.UserService
	Hub       *app.LeaderboardHub
	Tokens    *auth.Tokens
	// Production hides internal error details from responses.
	Production bool
}

// NewRouter mounts every REST route and the live leaderboard feed.
func NewRouter(s Services) http.Handler {
	errs := errorWriter{production: s.Production}
	questions := &questionHandler{bank: s.Questions, errs: errs}
	exams := &examHandler{exams: s.Exams, bank: s.Questions, errs: errs}
	progress := &progressHandler{progress: s.Progress, errs: errs}
	rankings := &rankingHandler{rankings: s.Rankings, errs: errs}
	users := &userHandler{users: s.Users, errs: errs}
	feed := NewLeaderboardFeed(s.Rankings, s.Hub)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/ws/leaderboard", feed.ServeWS)

	r.Route("/users", func(r chi.Router) {
		r.Post("/", users.register)
		r.Get("/{id}", users.get)
	})

	r.Route("/questions", func(r chi.Router) {
		r.Get("/", questions.list)
		r.Get("/random", questions.random)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.Tokens))
			r.Use(auth.RequireRole(auth.RoleAdmin))
			r.Post("/", questions.create)
			r.Post("/import", questions.importBatch)
			r.Put("/{id}", questions.update)
			r.Delete("/{id}", questions.remove)
		})
	})

	r.Route("/exam", func(r chi.Router) {
		r.Get("/questions", exams.questions)
		r.Post("/submit", exams.submit)
		r.Get("/result/{id}", exams.result)
		r.Get("/history/{userId}", exams.history)
	})

	r.Route("/progress/{userId}", func(r chi.Router) {
		r.Get("/", progress.overview)
		r.Get("/unlocked", progress.unlocked)
	})

	r.Route("/ranking", func(r chi.Router) {
		r.Get("/", rankings.top)
		r.Get("/global", rankings.global)
		r.Get("/level/{level}", rankings.level)
		r.Get("/user/{userId}", rankings.user)
	})

	return r
}
