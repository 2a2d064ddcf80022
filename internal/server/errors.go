package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/resume-screener/internal/db"
	"github.com/jonathan/resume-screener/internal/matching"
	"github.com/jonathan/resume-screener/internal/parsing"
	"github.com/jonathan/resume-screener/internal/schemas"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotReady indicates a session's results were requested before it completed
type ErrNotReady struct {
	SessionID string
	Status    string
}

func (e *ErrNotReady) Error() string {
	return fmt.Sprintf("session %s is %s; results are available once it completes", e.SessionID, e.Status)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		notReady      *ErrNotReady
		configErr     *matching.SessionConfigError
		schemaErr     *schemas.ValidationError
		parseErr      *parsing.ParseError
		fieldErr      *parsing.ValidationError
	)

	switch {
	case errors.Is(err, matching.ErrSessionNotFound), errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, matching.ErrSessionFrozen), errors.Is(err, matching.ErrInvalidTransition),
		errors.Is(err, matching.ErrSessionRunning):
		return http.StatusConflict
	case errors.As(err, &notReady):
		return http.StatusConflict
	case errors.As(err, &schemaErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &validationErr), errors.As(err, &configErr),
		errors.As(err, &parseErr), errors.As(err, &fieldErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// extractValidationErrors turns validator errors into an ErrValidation for the first failing field
func extractValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		ve := validationErrors[0]
		return &ErrValidation{Field: ve.Namespace(), Message: ve.Tag()}
	}
	return &ErrValidation{Field: "request", Message: err.Error()}
}
