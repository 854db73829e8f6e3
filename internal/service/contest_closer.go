package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/repository"
	apperrors "github.com/kpsahani/Contest-Participation-System/internal/pkg/errors"
)

// DefaultClosureSchedule - расписание проверки завершившихся конкурсов
const DefaultClosureSchedule = "@every 30s"

const sweepTimeout = 2 * time.Minute

// SweepLockKey - ключ блокировки прохода; при нескольких экземплярах проход выполняет один
const SweepLockKey = "lock:contest-closer"

// SweepReport - итог одного прохода
type SweepReport struct {
	Checked     int
	Distributed int
	Skipped     int
	Failed      int
	// Locked - проход не выполнялся, блокировку держит другой экземпляр
	Locked bool
}

// ContestCloser периодически распределяет призы завершившихся конкурсов
type ContestCloser struct {
	contestRepo repository.ContestRepository
	prizes      *PrizeService
	leaderboard *LeaderboardService
	logger      *zap.Logger
	now         func() time.Time
	cron        *cron.Cron
	lock        repository.CacheRepository
	lockTTL     time.Duration
}

// NewContestCloser создает планировщик закрытия конкурсов. leaderboard может быть nil.
func NewContestCloser(
	contestRepo repository.ContestRepository,
	prizes *PrizeService,
	leaderboard *LeaderboardService,
	logger *zap.Logger,
) *ContestCloser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContestCloser{
		contestRepo: contestRepo,
		prizes:      prizes,
		leaderboard: leaderboard,
		logger:      logger.Named("ContestCloser"),
		now:         time.Now,
	}
}

// SetClock подменяет источник текущего времени
func (c *ContestCloser) SetClock(now func() time.Time) {
	c.now = now
}

// SetLock включает блокировку прохода через кеш. ttl ограничивает время удержания,
// если экземпляр упадёт посреди прохода.
func (c *ContestCloser) SetLock(cache repository.CacheRepository, ttl time.Duration) {
	if ttl <= 0 {
		ttl = sweepTimeout
	}
	c.lock = cache
	c.lockTTL = ttl
}

// Sweep распределяет призы всех завершившихся конкурсов.
// Ошибка одного конкурса не прерывает проход; уже распределённые конкурсы пропускаются.
func (c *ContestCloser) Sweep(ctx context.Context) (SweepReport, error) {
	var report SweepReport

	if c.lock != nil {
		token := uuid.NewString()
		acquired, err := c.lock.SetNX(SweepLockKey, token, c.lockTTL)
		switch {
		case err != nil:
			// Без кеша проход всё равно безопасен: распределение защищено условной записью
			c.logger.Warn("sweep lock unavailable, sweeping without it", zap.Error(err))
		case !acquired:
			report.Locked = true
			return report, nil
		default:
			defer c.unlock(token)
		}
	}

	contests, err := c.contestRepo.ListEndedUndistributed(ctx, c.now())
	if err != nil {
		return report, fmt.Errorf("list ended contests: %w", err)
	}
	report.Checked = len(contests)

	for _, contest := range contests {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		winners, err := c.prizes.DistributePrizes(ctx, contest.ID)
		switch {
		case err == nil:
			report.Distributed++
			c.logger.Info("contest closed",
				zap.Uint("contest_id", contest.ID),
				zap.Int("winners", len(winners)))
			if c.leaderboard != nil {
				if err := c.leaderboard.Refresh(ctx, contest.ID); err != nil {
					c.logger.Warn("leaderboard refresh after closing failed", zap.Uint("contest_id", contest.ID), zap.Error(err))
				}
			}
		case errors.Is(err, apperrors.ErrPrizesAlreadyDistributed):
			report.Skipped++
		default:
			report.Failed++
			c.logger.Error("failed to close contest", zap.Uint("contest_id", contest.ID), zap.Error(err))
		}
	}
	return report, nil
}

// unlock снимает блокировку, только если она всё ещё наша
func (c *ContestCloser) unlock(token string) {
	current, err := c.lock.Get(SweepLockKey)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			c.logger.Warn("failed to read sweep lock", zap.Error(err))
		}
		return
	}
	if current != token {
		return
	}
	if err := c.lock.Delete(SweepLockKey); err != nil {
		c.logger.Warn("failed to release sweep lock", zap.Error(err))
	}
}

// Start запускает периодический проход по расписанию cron. Не блокирует.
func (c *ContestCloser) Start(ctx context.Context, schedule string) error {
	if schedule == "" {
		schedule = DefaultClosureSchedule
	}
	cl := cronLogger{l: c.logger.Sugar()}
	c.cron = cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))

	_, err := c.cron.AddFunc(schedule, func() {
		sweepCtx, cancel := context.WithTimeout(ctx, sweepTimeout)
		defer cancel()
		report, err := c.Sweep(sweepCtx)
		if err != nil {
			c.logger.Error("contest sweep failed", zap.Error(err))
			return
		}
		if report.Locked {
			c.logger.Debug("contest sweep skipped, another instance holds the lock")
			return
		}
		if report.Checked > 0 {
			c.logger.Info("contest sweep finished",
				zap.Int("checked", report.Checked),
				zap.Int("distributed", report.Distributed),
				zap.Int("skipped", report.Skipped),
				zap.Int("failed", report.Failed))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid closure schedule %q: %w", schedule, err)
	}

	c.cron.Start()
	c.logger.Info("contest closer started", zap.String("schedule", schedule))
	return nil
}

// Stop останавливает планировщик и ждёт текущий проход
func (c *ContestCloser) Stop() {
	if c.cron == nil {
		return
	}
	<-c.cron.Stop().Done()
}

// cronLogger направляет журнал cron в zap
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
