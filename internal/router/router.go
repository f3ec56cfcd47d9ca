package router

import (
	"html/template"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/handler"
	"github.com/stemsi/exstem-quiz/internal/middleware"
	"github.com/stemsi/exstem-quiz/internal/response"
	"github.com/stemsi/exstem-quiz/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth   *handler.AuthHandler
	Exam   *handler.ExamHandler
	Page   *handler.PageHandler
	WS     *handler.WSHandler
	System *handler.SystemHandler
}

// Deps carries what the middlewares need besides the handlers.
type Deps struct {
	Auth         *service.AuthService
	Sessions     middleware.SessionLookup
	LoginLimiter middleware.Limiter
	Templates    *template.Template
	Static       http.FileSystem
	Log          zerolog.Logger
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(deps Deps, handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so the access log and every envelope can carry it.
	router.Use(response.RequestIDMiddleware())
	router.Use(response.AccessLog(deps.Log))

	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality:      middleware.DefaultBrotliConfig.Quality,
		MinLength:    middleware.DefaultBrotliConfig.MinLength,
		SkipPrefixes: []string{"/ws/"},
	}))

	if deps.Templates != nil {
		router.SetHTMLTemplate(deps.Templates)
	}

	if deps.Static != nil {
		staticGroup := router.Group("/static")
		staticGroup.Use(middleware.CacheControl(3600))
		{
			staticGroup.StaticFS("/", deps.Static)
		}
	}

	router.GET("/health", handlers.System.Health)

	loginLimit := middleware.RateLimit(deps.LoginLimiter, deps.Log)

	// ─── 0. HTML Pages (cookie session) ────────────────────────────────
	pages := router.Group("/")
	pages.Use(middleware.NoStore(), middleware.LoadExamSession(deps.Auth))
	{
		pages.GET("/", handlers.Page.LoginPage)
		pages.POST("/login", loginLimit, handlers.Page.Login)
		pages.GET("/exam", handlers.Page.ExamPage)
		pages.POST("/exam/answer", handlers.Page.SubmitAnswer)
		pages.POST("/exam/reset", handlers.Page.Reset)
	}

	// ─── 1. Public API ─────────────────────────────────────────────────
	public := router.Group("/api/v1")
	{
		public.POST("/auth/login", loginLimit, handlers.Auth.StudentLogin)
	}

	// ─── 2. Exam API (session token) ───────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(
		middleware.NoStore(),
		middleware.RequireExamSession(deps.Auth),
		middleware.CheckActiveSession(deps.Sessions),
	)
	{
		api.POST("/auth/logout", handlers.Auth.StudentLogout)
		api.GET("/exam/state", handlers.Exam.GetState)
		api.POST("/exam/submit", handlers.Exam.SubmitAnswer)
		api.GET("/exam/report", handlers.Exam.GetReport)
		api.POST("/exam/reset", handlers.Exam.ResetExam)
	}

	// ─── 3. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireExamSession(deps.Auth))
	{
		ws.GET("/exam/stream", handlers.WS.ExamStream)
	}

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	return router
}
