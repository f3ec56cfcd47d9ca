package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/exam"
	"github.com/stemsi/exstem-quiz/internal/middleware"
	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stemsi/exstem-quiz/internal/response"
	"github.com/stemsi/exstem-quiz/internal/service"
	"github.com/stemsi/exstem-quiz/internal/validator"
)

// ExamHandler exposes the running attempt over the JSON API.
type ExamHandler struct {
	examService *service.ExamService
	log         zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		examService: examService,
		log:         log.With().Str("component", "exam_handler").Logger(),
	}
}

// GetState godoc
// GET /api/v1/exam/state
// Returns the current question, the authoritative remaining time and, once
// finished, the report. Polling this also applies a due timeout.
func (h *ExamHandler) GetState(c *gin.Context) {
	sessionID, err := middleware.SessionIDFromContext(c)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	state, err := h.examService.State(c.Request.Context(), sessionID)
	if err != nil {
		status, code := mapExamError(err)
		response.Fail(c, status, code)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// SubmitAnswer godoc
// POST /api/v1/exam/submit
// Confirms the selected option for the active question. Rejections carry the
// state so the client keeps showing the same question.
func (h *ExamHandler) SubmitAnswer(c *gin.Context) {
	sessionID, err := middleware.SessionIDFromContext(c)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.examService.Submit(c.Request.Context(), sessionID, *req.QuestionIndex, req.Option)
	if err != nil {
		status, code := mapExamError(err)
		if errors.Is(err, service.ErrSessionNotFound) {
			response.Fail(c, status, code)
			return
		}
		response.FailWithData(c, status, code, state)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// GetReport godoc
// GET /api/v1/exam/report
// Returns the scored report of a finished attempt.
func (h *ExamHandler) GetReport(c *gin.Context) {
	sessionID, err := middleware.SessionIDFromContext(c)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	report, err := h.examService.Report(c.Request.Context(), sessionID)
	if err != nil {
		status, code := mapExamError(err)
		response.Fail(c, status, code)
		return
	}

	response.Success(c, http.StatusOK, report)
}

// ResetExam godoc
// POST /api/v1/exam/reset
// Leaves the attempt and returns to the logged-out state.
func (h *ExamHandler) ResetExam(c *gin.Context) {
	sessionID, err := middleware.SessionIDFromContext(c)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.examService.Reset(c.Request.Context(), sessionID); err != nil {
		status, code := mapExamError(err)
		response.Fail(c, status, code)
		return
	}

	clearSessionCookie(c)
	response.Success(c, http.StatusOK, exam.State{Phase: exam.PhaseLoggedOut})
}
