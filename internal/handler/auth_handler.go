package handler

import (
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

// AuthHandler handles exam login and logout over the JSON API.
type AuthHandler struct {
	examService *service.ExamService
	log         zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(examService *service.ExamService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		examService: examService,
		log:         log.With().Str("component", "auth_handler").Logger(),
	}
}

// loginResponse is the body of a successful login.
type loginResponse struct {
	model.StudentLoginResponse
	State exam.State `json:"state"`
}

// StudentLogin godoc
// POST /api/v1/auth/login
// Verifies the exam password and starts a new attempt for the student.
func (h *AuthHandler) StudentLogin(c *gin.Context) {
	var req model.StudentLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.examService.Login(c.Request.Context(), req.StudentName, req.Password)
	if err != nil {
		status, code := mapExamError(err)
		if status >= http.StatusInternalServerError {
			h.log.Error().Err(err).Msg("Login failed")
		}
		response.Fail(c, status, code)
		return
	}

	response.Success(c, http.StatusOK, loginResponse{
		StudentLoginResponse: model.StudentLoginResponse{
			Token:     result.Token,
			SessionID: result.SessionID,
			ExpiresAt: result.ExpiresAt.Unix(),
		},
		State: result.State,
	})
}

// StudentLogout godoc
// POST /api/v1/auth/logout
// Discards the current attempt. The token is useless afterwards.
func (h *AuthHandler) StudentLogout(c *gin.Context) {
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
	response.Success(c, http.StatusOK, gin.H{})
}

func setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", "", c.Request.TLS != nil, true)
}

func clearSessionCookie(c *gin.Context) {
	setSessionCookie(c, "", -1)
}
