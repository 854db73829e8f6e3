package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kpsahani/Contest-Participation-System/internal/config"
	"github.com/kpsahani/Contest-Participation-System/internal/domain/repository"
	"github.com/kpsahani/Contest-Participation-System/internal/events"
	"github.com/kpsahani/Contest-Participation-System/internal/pkg/logger"
	pgRepo "github.com/kpsahani/Contest-Participation-System/internal/repository/postgres"
	redisRepo "github.com/kpsahani/Contest-Participation-System/internal/repository/redis"
	"github.com/kpsahani/Contest-Participation-System/internal/service"
	"github.com/kpsahani/Contest-Participation-System/internal/service/tasks"
	"github.com/kpsahani/Contest-Participation-System/pkg/database"
)

// prizeStack - сервисы, нужные для закрытия конкурсов из командной строки
type prizeStack struct {
	prizes      *service.PrizeService
	closer      *service.ContestCloser
	runner      *tasks.Runner
	publisher   events.Publisher
	logger      *zap.Logger
	cleanupFunc func()
}

func newPrizeStack(ctx context.Context, configPath string) (*prizeStack, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	zl, err := logger.New(cfg.Log.Env)
	if err != nil {
		return nil, err
	}
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), false)
	if err != nil {
		return nil, err
	}

	var cacheRepo repository.CacheRepository
	cleanup := func() {}
	if cfg.Cache.Enabled {
		client, err := database.NewUniversalRedisClient(cfg.Redis)
		if err != nil {
			// Без кеша лидерборды просто пересчитаются позже
			zl.Warn("redis unavailable, cache invalidation skipped", zap.Error(err))
		} else {
			cr, err := redisRepo.NewCacheRepo(client)
			if err != nil {
				_ = client.Close()
				return nil, err
			}
			cacheRepo = cr
			cleanup = func() { _ = client.Close() }
		}
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Events.NatsURL != "" {
		if np, err := events.NewNatsPublisher(cfg.Events.NatsURL, cfg.Events.SubjectPrefix, zl); err == nil {
			publisher = np
		} else {
			zl.Warn("NATS unavailable, domain events disabled", zap.Error(err))
		}
	}

	var notifier service.WinnerNotifier = service.NewNoopNotifier(zl)
	if cfg.Email.ResendAPIKey != "" {
		rn, err := service.NewResendNotifier(cfg.Email.ResendAPIKey, cfg.Email.From)
		if err != nil {
			return nil, err
		}
		notifier = rn
	}

	contestRepo := pgRepo.NewContestRepo(db)
	participationRepo := pgRepo.NewParticipationRepo(db)
	runner := tasks.NewRunner(ctx, tasks.DefaultConfig(), zl)
	leaderboard := service.NewLeaderboardService(participationRepo, contestRepo, cacheRepo, cfg.Cache.TTL, zl)
	prizes := service.NewPrizeService(contestRepo, participationRepo, pgRepo.NewPrizeRepo(db), cacheRepo, notifier, runner, publisher, zl)

	closer := service.NewContestCloser(contestRepo, prizes, leaderboard, zl)
	if cacheRepo != nil {
		closer.SetLock(cacheRepo, 0)
	}

	return &prizeStack{
		prizes:      prizes,
		closer:      closer,
		runner:      runner,
		publisher:   publisher,
		logger:      zl,
		cleanupFunc: cleanup,
	}, nil
}

// close дожидается уведомлений победителей и освобождает соединения
func (s *prizeStack) close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := s.runner.Shutdown(ctx); err != nil {
		s.logger.Warn("background tasks did not finish", zap.Error(err))
	}
	s.publisher.Close()
	s.cleanupFunc()
	_ = s.logger.Sync()
}

// NewEndContestsCmd выполняет один проход закрытия завершившихся конкурсов
func NewEndContestsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "end-contests",
		Short: "Distribute prizes for every ended contest that has not been processed yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			stack, err := newPrizeStack(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer stack.close()

			report, err := stack.closer.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			if report.Locked {
				cmd.Println("another sweep is in progress, nothing to do")
				return nil
			}
			cmd.Printf("checked=%d distributed=%d skipped=%d failed=%d\n",
				report.Checked, report.Distributed, report.Skipped, report.Failed)
			if report.Failed > 0 {
				return fmt.Errorf("%d contest(s) failed", report.Failed)
			}
			return nil
		},
	}
}

// NewDistributeCmd распределяет призы одного конкурса
func NewDistributeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "distribute <contest-id>",
		Short: "Distribute prizes for a single ended contest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid contest id %q", args[0])
			}

			stack, err := newPrizeStack(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer stack.close()

			winners, err := stack.prizes.DistributePrizes(cmd.Context(), uint(id))
			if err != nil {
				return err
			}
			for _, w := range winners {
				cmd.Printf("#%d %s score=%d prize=%d %s\n", w.Rank, w.Username, w.Score, w.PrizeAmount, w.PrizeDescription)
			}
			cmd.Printf("%d winner(s)\n", len(winners))
			return nil
		},
	}
}
