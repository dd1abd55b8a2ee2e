package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"nihongo-quiz-service/internal/domain"
	"nihongo-quiz-service/internal/logging"
)

// RegisterRequest carries the public profile of a new user.
type RegisterRequest struct {
	Username string
	Email    string
	Name     string
	Avatar   string
}

// UserService registers and looks up users.
type UserService struct {
	repo  UserRepository
	now   func() time.Time
	newID func() string
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo, now: time.Now, newID: uuid.NewString}
}

// Register creates a user. Duplicate emails and usernames are reported distinctly.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (domain.User, error) {
	now := s.now()
	u := domain.User{
		ID:           s.newID(),
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         strings.TrimSpace(req.Name),
		Avatar:       req.Avatar,
		CreatedAt:    now,
		QuizScores:   []domain.QuizScore{},
		Achievements: []domain.Achievement{},
	}
	if u.Name == "" {
		u.Name = u.Username
	}
	if err := u.Validate(); err != nil {
		return domain.User{}, err
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return domain.User{}, err
	}
	logging.FromContext(ctx).WithField("user_id", u.ID).Info("user registered")
	return u, nil
}

// Get returns a user with score history and achievements.
func (s *UserService) Get(ctx context.Context, id string) (domain.User, error) {
	return s.repo.Get(ctx, id)
}
