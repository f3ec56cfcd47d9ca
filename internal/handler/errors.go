package handler

import (
	"errors"
	"net/http"

	"github.com/stemsi/exstem-quiz/internal/exam"
	"github.com/stemsi/exstem-quiz/internal/response"
	"github.com/stemsi/exstem-quiz/internal/service"
)

// mapExamError translates service and exam errors into an HTTP status and
// API error code. Order matters: specific transitions before their parent.
func mapExamError(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, exam.ErrEmptyName):
		return http.StatusUnprocessableEntity, response.ErrNameRequired
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, response.ErrInvalidCredentials
	case errors.Is(err, service.ErrConfiguration):
		return http.StatusServiceUnavailable, response.ErrConfigurationError
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusUnauthorized, response.ErrSessionNotFound
	case errors.Is(err, exam.ErrEmptySelection):
		return http.StatusUnprocessableEntity, response.ErrEmptySelection
	case errors.Is(err, exam.ErrUnknownOption):
		return http.StatusUnprocessableEntity, response.ErrUnknownOption
	case errors.Is(err, exam.ErrAlreadyRecorded):
		return http.StatusConflict, response.ErrAlreadyAnswered
	case errors.Is(err, exam.ErrNotFinished):
		return http.StatusConflict, response.ErrExamNotFinished
	case errors.Is(err, exam.ErrInvalidTransition):
		return http.StatusConflict, response.ErrInvalidTransition
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}
