package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"nihongo-quiz-service/internal/domain"
	"nihongo-quiz-service/internal/logging"
)

const maxBodyBytes = 1 << 20

type envelope map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, envelope{"success": true, "data": data})
}

// errorWriter turns errors into {success:false, message} responses.
// Internal details are attached only outside production.
type errorWriter struct {
	production bool
}

func (e errorWriter) write(w http.ResponseWriter, r *http.Request, err error) {
	status, message := classify(err)
	log := logging.FromContext(r.Context()).WithError(err).WithField("status", status)
	body := envelope{"success": false, "message": message}
	if status >= http.StatusInternalServerError {
		log.Error("request failed")
		if !e.production {
			body["error"] = err.Error()
		}
	} else {
		log.Warn("request rejected")
	}
	writeJSON(w, status, body)
}

func classify(err error) (int, string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusBadRequest, "User already exists"
	case errors.Is(err, domain.ErrDuplicateUsername):
		return http.StatusBadRequest, "Username is already taken"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "No token, authorization denied"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "Access denied"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, domain.ErrQuestionNotFound):
		return http.StatusNotFound, "Question not found"
	case errors.Is(err, domain.ErrResultNotFound):
		return http.StatusNotFound, "Result not found"
	default:
		return http.StatusInternalServerError, "Server error"
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return domain.Invalid("body", "malformed JSON: %v", err)
	}
	return nil
}

// intQuery reads an integer query parameter, using def when absent.
func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Invalid(name, "must be an integer")
	}
	return n, nil
}

func boundedIntQuery(r *http.Request, name string, def, min, max int) (int, error) {
	n, err := intQuery(r, name, def)
	if err != nil {
		return 0, err
	}
	if n < min || n > max {
		return 0, domain.Invalid(name, "must be between %d and %d", min, max)
	}
	return n, nil
}

func pageQuery(r *http.Request, defLimit int) (domain.PageRequest, error) {
	page, err := intQuery(r, "page", 1)
	if err != nil {
		return domain.PageRequest{}, err
	}
	limit, err := intQuery(r, "limit", defLimit)
	if err != nil {
		return domain.PageRequest{}, err
	}
	return domain.NewPageRequest(page, limit)
}

// optionalLevel parses level when present; absence means "any level".
func optionalLevel(raw string) (domain.Level, error) {
	if raw == "" {
		return "", nil
	}
	return domain.ParseLevel(raw)
}

func filterQuery(r *http.Request) (domain.QuestionFilter, error) {
	var filter domain.QuestionFilter
	level, err := optionalLevel(r.URL.Query().Get("level"))
	if err != nil {
		return filter, err
	}
	filter.Level = level
	if raw := r.URL.Query().Get("type"); raw != "" {
		t, err := domain.ParseQuestionType(raw)
		if err != nil {
			return filter, err
		}
		filter.Type = t
	}
	return filter, nil
}
