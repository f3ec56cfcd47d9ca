package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/exam"
	"github.com/stemsi/exstem-quiz/internal/middleware"
	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stemsi/exstem-quiz/internal/response"
	"github.com/stemsi/exstem-quiz/internal/service"
	"github.com/stemsi/exstem-quiz/internal/validator"
)

// PageHandler renders the server-side exam pages.
type PageHandler struct {
	examService *service.ExamService
	title       string
	log         zerolog.Logger
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(examService *service.ExamService, title string, log zerolog.Logger) *PageHandler {
	return &PageHandler{
		examService: examService,
		title:       title,
		log:         log.With().Str("component", "page_handler").Logger(),
	}
}

type loginPage struct {
	Title       string
	StudentName string
	Warning     string
	Error       string
}

type examPage struct {
	Title   string
	State   exam.State
	Warning string
}

type reportPage struct {
	Title  string
	Report exam.Report
}

// LoginPage godoc
// GET /
// Shows the login form, or resumes a running attempt.
func (h *PageHandler) LoginPage(c *gin.Context) {
	if _, ok := h.activeSession(c); ok {
		c.Redirect(http.StatusSeeOther, "/exam")
		return
	}
	c.HTML(http.StatusOK, "login.html", loginPage{Title: h.title})
}

// Login godoc
// POST /login
// Starts the attempt and stores the session token in a cookie.
func (h *PageHandler) Login(c *gin.Context) {
	var req model.StudentLoginRequest
	page := loginPage{Title: h.title}
	if fields := validator.BindForm(c, &req); fields != nil {
		page.Error = response.GetMessage(response.ErrValidation)
		c.HTML(http.StatusBadRequest, "login.html", page)
		return
	}
	page.StudentName = strings.TrimSpace(req.StudentName)

	result, err := h.examService.Login(c.Request.Context(), req.StudentName, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, exam.ErrEmptyName):
		page.Warning = response.GetMessage(response.ErrNameRequired)
		c.HTML(http.StatusUnprocessableEntity, "login.html", page)
		return
	case errors.Is(err, service.ErrInvalidCredentials):
		page.Error = response.GetMessage(response.ErrInvalidCredentials)
		c.HTML(http.StatusUnauthorized, "login.html", page)
		return
	case errors.Is(err, service.ErrConfiguration):
		h.renderConfigError(c, err)
		return
	default:
		h.log.Error().Err(err).Msg("Login failed")
		page.Error = response.GetMessage(response.ErrInternal)
		c.HTML(http.StatusInternalServerError, "login.html", page)
		return
	}

	setSessionCookie(c, result.Token, int(time.Until(result.ExpiresAt).Seconds()))
	c.Redirect(http.StatusSeeOther, "/exam")
}

// ExamPage godoc
// GET /exam
// Renders the active question or, once finished, the report. Each load also
// applies a due timeout, so a plain refresh advances the exam.
func (h *PageHandler) ExamPage(c *gin.Context) {
	sessionID, ok := h.activeSession(c)
	if !ok {
		clearSessionCookie(c)
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	state, err := h.examService.State(c.Request.Context(), sessionID)
	if err != nil {
		clearSessionCookie(c)
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	h.renderState(c, http.StatusOK, state, "")
}

// SubmitAnswer godoc
// POST /exam/answer
// Confirms the chosen option. An empty choice re-renders the question with
// a warning; a stale form (the question already moved on) just reloads.
func (h *PageHandler) SubmitAnswer(c *gin.Context) {
	sessionID, ok := h.activeSession(c)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.BindForm(c, &req); fields != nil {
		c.Redirect(http.StatusSeeOther, "/exam")
		return
	}

	state, err := h.examService.Submit(c.Request.Context(), sessionID, *req.QuestionIndex, req.Option)
	switch {
	case err == nil:
		c.Redirect(http.StatusSeeOther, "/exam")
	case errors.Is(err, exam.ErrEmptySelection):
		h.renderState(c, http.StatusUnprocessableEntity, state, response.GetMessage(response.ErrEmptySelection))
	case errors.Is(err, exam.ErrUnknownOption):
		h.renderState(c, http.StatusUnprocessableEntity, state, response.GetMessage(response.ErrUnknownOption))
	case errors.Is(err, service.ErrSessionNotFound):
		clearSessionCookie(c)
		c.Redirect(http.StatusSeeOther, "/")
	default:
		c.Redirect(http.StatusSeeOther, "/exam")
	}
}

// Reset godoc
// POST /exam/reset
// Leaves the attempt and returns to the login page.
func (h *PageHandler) Reset(c *gin.Context) {
	if sessionID, ok := h.activeSession(c); ok {
		if err := h.examService.Reset(c.Request.Context(), sessionID); err != nil && !errors.Is(err, service.ErrSessionNotFound) {
			h.log.Error().Err(err).Msg("Reset failed")
		}
	}
	clearSessionCookie(c)
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *PageHandler) renderState(c *gin.Context, status int, state exam.State, warning string) {
	switch state.Phase {
	case exam.PhaseFinished:
		if state.Report == nil {
			c.Redirect(http.StatusSeeOther, "/")
			return
		}
		c.HTML(status, "report.html", reportPage{Title: h.title, Report: *state.Report})
	case exam.PhaseInProgress:
		c.HTML(status, "exam.html", examPage{Title: h.title, State: state, Warning: warning})
	default:
		clearSessionCookie(c)
		c.Redirect(http.StatusSeeOther, "/")
	}
}

func (h *PageHandler) renderConfigError(c *gin.Context, err error) {
	h.log.Error().Err(err).Msg("Exam configuration error")
	c.HTML(http.StatusServiceUnavailable, "config_error.html", loginPage{
		Title: h.title,
		Error: response.GetMessage(response.ErrConfigurationError),
	})
}

// activeSession returns the session ID when the request carries a valid
// token for a session that is still held.
func (h *PageHandler) activeSession(c *gin.Context) (string, bool) {
	sessionID, err := middleware.SessionIDFromContext(c)
	if err != nil || !h.examService.HasSession(sessionID) {
		return "", false
	}
	return sessionID, true
}
