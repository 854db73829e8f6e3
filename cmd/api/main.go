package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kpsahani/Contest-Participation-System/internal/config"
	"github.com/kpsahani/Contest-Participation-System/internal/domain/repository"
	"github.com/kpsahani/Contest-Participation-System/internal/events"
	"github.com/kpsahani/Contest-Participation-System/internal/handler"
	"github.com/kpsahani/Contest-Participation-System/internal/middleware"
	"github.com/kpsahani/Contest-Participation-System/internal/pkg/logger"
	"github.com/kpsahani/Contest-Participation-System/internal/pkg/metrics"
	pgRepo "github.com/kpsahani/Contest-Participation-System/internal/repository/postgres"
	redisRepo "github.com/kpsahani/Contest-Participation-System/internal/repository/redis"
	"github.com/kpsahani/Contest-Participation-System/internal/service"
	"github.com/kpsahani/Contest-Participation-System/internal/service/tasks"
	ws "github.com/kpsahani/Contest-Participation-System/internal/websocket"
	"github.com/kpsahani/Contest-Participation-System/pkg/auth"
	"github.com/kpsahani/Contest-Participation-System/pkg/database"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	zl, err := logger.New(cfg.Log.Env)
	if err != nil {
		log.Printf("Failed to init logger: %v", err)
		os.Exit(1)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), cfg.Log.Env != "production")
	if err != nil {
		return err
	}
	if err := database.MigrateDB(db, cfg.Database.MigrationsPath); err != nil {
		return err
	}

	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	var cacheRepo repository.CacheRepository
	if cfg.Cache.Enabled {
		cr, err := redisRepo.NewCacheRepo(redisClient)
		if err != nil {
			return err
		}
		cacheRepo = cr
	}

	userRepo := pgRepo.NewUserRepo(db)
	contestRepo := pgRepo.NewContestRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	participationRepo := pgRepo.NewParticipationRepo(db)
	prizeRepo := pgRepo.NewPrizeRepo(db)

	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		return err
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Events.NatsURL != "" {
		np, err := events.NewNatsPublisher(cfg.Events.NatsURL, cfg.Events.SubjectPrefix, zl)
		if err != nil {
			// События необязательны: работаем без шины
			zl.Warn("NATS unavailable, domain events disabled", zap.Error(err))
		} else {
			publisher = np
		}
	}
	defer publisher.Close()

	var notifier service.WinnerNotifier = service.NewNoopNotifier(zl)
	if cfg.Email.ResendAPIKey != "" {
		rn, err := service.NewResendNotifier(cfg.Email.ResendAPIKey, cfg.Email.From)
		if err != nil {
			return err
		}
		notifier = rn
	}

	runner := tasks.NewRunner(ctx, tasks.DefaultConfig(), zl)
	hub := ws.NewHub(cfg.Server.AllowedOrigins, zl)

	leaderboardService := service.NewLeaderboardService(participationRepo, contestRepo, cacheRepo, cfg.Cache.TTL, zl)
	leaderboardService.SetBroadcaster(hub)
	contestService := service.NewContestService(contestRepo, questionRepo, participationRepo, cacheRepo, runner, publisher, cfg.Cache.TTL, zl)
	submissionService := service.NewSubmissionService(contestRepo, participationRepo, leaderboardService, runner, publisher, zl)
	prizeService := service.NewPrizeService(contestRepo, participationRepo, prizeRepo, cacheRepo, notifier, runner, publisher, zl)
	questionService := service.NewQuestionService(questionRepo, contestRepo, zl)
	userService := service.NewUserService(userRepo, participationRepo, prizeRepo, zl)
	authService := service.NewAuthService(userRepo, jwtService, zl)
	closer := service.NewContestCloser(contestRepo, prizeService, leaderboardService, zl)
	sweepLock, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		return err
	}
	closer.SetLock(sweepLock, 0)

	if cfg.Closure.Enabled {
		if err := closer.Start(ctx, cfg.Closure.Schedule); err != nil {
			return err
		}
	}

	if cfg.Log.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	var appMetrics *metrics.Metrics
	if cfg.Server.MetricsEnabled {
		appMetrics = metrics.New()
		appMetrics.GaugeFunc("ws_connections", "Open leaderboard websocket connections.", func() float64 {
			return float64(hub.ConnectionCount())
		})
		appMetrics.GaugeFunc("background_tasks_in_flight", "Background tasks currently running.", func() float64 {
			return float64(runner.Stats().InFlight)
		})
		appMetrics.GaugeFunc("background_tasks_failed", "Background tasks that failed after all retries.", func() float64 {
			return float64(runner.Stats().Failed)
		})
	}
	router := handler.NewRouter(
		handler.RouterConfig{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			HealthCheck: func(ctx context.Context) error {
				if err := sqlDB.PingContext(ctx); err != nil {
					return err
				}
				return redisClient.Ping(ctx).Err()
			},
			Metrics: appMetrics,
		},
		handler.Handlers{
			Auth:        handler.NewAuthHandler(authService, zl),
			Contest:     handler.NewContestHandler(contestService, submissionService, prizeService, zl),
			Question:    handler.NewQuestionHandler(questionService, zl),
			User:        handler.NewUserHandler(userService, zl),
			Leaderboard: handler.NewLeaderboardHandler(leaderboardService, contestService, hub, zl),
		},
		middleware.NewAuthMiddleware(jwtService, zl),
		middleware.NewRateLimiter(redisClient, zl),
		zl,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		zl.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		zl.Info("shutting down server")
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	// Порядок: новые проходы и подписки, затем HTTP, затем фоновые задачи
	closer.Stop()
	hub.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}
	if err := runner.Shutdown(shutdownCtx); err != nil {
		zl.Warn("background tasks did not finish", zap.Error(err), zap.Any("stats", runner.Stats()))
	}

	zl.Info("server exited properly")
	return nil
}
