package domain

import (
	"net/mail"
	"strings"
)

const (
	minOptions = 2
	maxOptions = 5
)

// Validate checks enum membership, text, option count and answer bounds.
func (q Question) Validate() error {
	if _, err := ParseQuestionType(string(q.Type)); err != nil {
		return err
	}
	if _, err := ParseLevel(string(q.Level)); err != nil {
		return err
	}
	if strings.TrimSpace(q.Text) == "" {
		return Invalid("question", "question text is required")
	}
	if len(q.Options) < minOptions || len(q.Options) > maxOptions {
		return Invalid("options", "a question must have between %d and %d options", minOptions, maxOptions)
	}
	if q.Correct < 0 || q.Correct >= len(q.Options) {
		return Invalid("correct", "correct answer index must be a valid option index")
	}
	return nil
}

// Validate checks the registration fields of a new user.
func (u User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return Invalid("username", "username is required")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return Invalid("email", "please include a valid email")
	}
	if strings.TrimSpace(u.Name) == "" {
		return Invalid("name", "name is required")
	}
	return nil
}
