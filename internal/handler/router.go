package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
	"github.com/kpsahani/Contest-Participation-System/internal/middleware"
	"github.com/kpsahani/Contest-Participation-System/internal/pkg/metrics"
)

// Handlers - все HTTP обработчики приложения
type Handlers struct {
	Auth        *AuthHandler
	Contest     *ContestHandler
	Question    *QuestionHandler
	User        *UserHandler
	Leaderboard *LeaderboardHandler
}

// RouterConfig - параметры маршрутизатора
type RouterConfig struct {
	AllowedOrigins []string
	// HealthCheck проверяет зависимости для /healthz; nil - всегда ok
	HealthCheck func(ctx context.Context) error
	// Metrics включает сбор метрик и GET /metrics; nil - выключено
	Metrics *metrics.Metrics
}

// NewRouter регистрирует маршруты API. rateLimiter может быть nil.
func NewRouter(
	cfg RouterConfig,
	h Handlers,
	authMiddleware *middleware.AuthMiddleware,
	rateLimiter *middleware.RateLimiter,
	logger *zap.Logger,
) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger))
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}
	if err := router.SetTrustedProxies(nil); err != nil {
		logger.Warn("failed to set trusted proxies", zap.Error(err))
	}

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", func(c *gin.Context) {
		if cfg.HealthCheck != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := cfg.HealthCheck(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	requireAuth := authMiddleware.RequireAuth()
	optionalAuth := authMiddleware.OptionalAuth()
	adminOnly := authMiddleware.AdminOnly()
	participant := authMiddleware.RequireRoles(entity.RoleUser, entity.RoleVIP)
	contestID := middleware.ExtractUintParam("id", "contestID")
	questionID := middleware.ExtractUintParam("id", "questionID")
	userID := middleware.ExtractUintParam("id", "userID")

	api := router.Group("/api")
	if rateLimiter != nil {
		api.Use(rateLimiter.LimitByIP(middleware.DefaultAPIRateLimitConfig()))
	}
	{
		authGroup := api.Group("/auth")
		{
			strict := []gin.HandlerFunc{}
			if rateLimiter != nil {
				strict = append(strict, rateLimiter.Limit(middleware.StrictAuthRateLimitConfig()))
			}
			authGroup.POST("/register", append(strict, h.Auth.Register)...)
			authGroup.POST("/login", append(strict, h.Auth.Login)...)
			authGroup.GET("/me", requireAuth, h.Auth.Me)
		}

		contests := api.Group("/contests")
		{
			contests.GET("", optionalAuth, h.Contest.ListContests)
			contests.GET("/admin", requireAuth, adminOnly, h.Contest.ListAllContests)
			contests.POST("", requireAuth, adminOnly, h.Contest.CreateContest)
			contests.POST("/assign-questions", requireAuth, adminOnly, h.Contest.AssignQuestions)

			contests.GET("/:id", requireAuth, contestID, h.Contest.GetContest)
			contests.GET("/:id/questions", requireAuth, contestID, h.Contest.GetContestQuestions)
			contests.POST("/:id/join", requireAuth, participant, contestID, h.Contest.JoinContest)
			contests.POST("/:id/submit", requireAuth, participant, contestID, h.Contest.SubmitAnswers)
			contests.GET("/:id/leaderboard", optionalAuth, h.Leaderboard.GetLeaderboard)
			contests.GET("/:id/leaderboard/export", requireAuth, adminOnly, contestID, h.Leaderboard.ExportLeaderboard)
			contests.PATCH("/:id/status", requireAuth, adminOnly, contestID, h.Contest.UpdateStatus)
			contests.POST("/:id/process-prizes", requireAuth, adminOnly, contestID, h.Contest.ProcessPrizes)
			contests.POST("/:id/questions", requireAuth, adminOnly, contestID, h.Question.AddToContest)
		}

		questions := api.Group("/questions", requireAuth, adminOnly)
		{
			questions.POST("/bulk", h.Question.BulkCreate)
			questions.PUT("/:id", questionID, h.Question.UpdateQuestion)
			questions.DELETE("/:id", questionID, h.Question.DeleteQuestion)
		}

		users := api.Group("/users", requireAuth)
		{
			users.GET("/:id/history", userID, h.User.GetHistory)
			users.GET("/:id/prizes", userID, h.User.GetPrizes)
		}

		admin := api.Group("/admin", requireAuth, adminOnly)
		{
			admin.GET("/users", h.User.ListUsers)
			admin.PATCH("/users/:id/role", userID, h.User.UpdateRole)
		}
	}

	router.GET("/ws/contests/:id/leaderboard", optionalAuth, contestID, h.Leaderboard.Subscribe)

	return router
}
