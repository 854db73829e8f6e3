package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
	"github.com/kpsahani/Contest-Participation-System/internal/domain/repository"
	"github.com/kpsahani/Contest-Participation-System/internal/events"
	apperrors "github.com/kpsahani/Contest-Participation-System/internal/pkg/errors"
	"github.com/kpsahani/Contest-Participation-System/internal/service/tasks"
)

// maxParallelNotifications ограничивает одновременные письма победителям
const maxParallelNotifications = 4

// RankStandings сортирует участников по убыванию счёта.
// Сортировка стабильная: при равном счёте выше тот, кто раньше вступил.
func RankStandings(standings []entity.Standing) []entity.Standing {
	ranked := make([]entity.Standing, len(standings))
	copy(ranked, standings)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// AssignPrizes сопоставляет таблицу призов с отсортированными участниками.
// Таблица обходится в сохранённом порядке; ранг без участника пропускается.
func AssignPrizes(ranked []entity.Standing, tiers entity.PrizeTiers) []entity.PrizeWinner {
	winners := make([]entity.PrizeWinner, 0, len(tiers))
	for _, tier := range tiers {
		idx := tier.Rank - 1
		if idx < 0 || idx >= len(ranked) {
			continue
		}
		st := ranked[idx]
		winners = append(winners, entity.PrizeWinner{
			UserID:           st.UserID,
			Username:         st.Username,
			Email:            st.Email,
			Rank:             tier.Rank,
			Score:            st.Score,
			PrizeAmount:      tier.Amount,
			PrizeDescription: tier.Description,
		})
	}
	return winners
}

// PrizeService распределяет призы по итогам конкурса
type PrizeService struct {
	contestRepo       repository.ContestRepository
	participationRepo repository.ParticipationRepository
	prizeRepo         repository.PrizeRepository
	cacheRepo         repository.CacheRepository
	notifier          WinnerNotifier
	runner            *tasks.Runner
	publisher         events.Publisher
	logger            *zap.Logger
	now               func() time.Time
}

// NewPrizeService создает сервис призов
func NewPrizeService(
	contestRepo repository.ContestRepository,
	participationRepo repository.ParticipationRepository,
	prizeRepo repository.PrizeRepository,
	cacheRepo repository.CacheRepository,
	notifier WinnerNotifier,
	runner *tasks.Runner,
	publisher events.Publisher,
	logger *zap.Logger,
) *PrizeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NewNoopNotifier(logger)
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &PrizeService{
		contestRepo:       contestRepo,
		participationRepo: participationRepo,
		prizeRepo:         prizeRepo,
		cacheRepo:         cacheRepo,
		notifier:          notifier,
		runner:            runner,
		publisher:         publisher,
		logger:            logger.Named("PrizeService"),
		now:               time.Now,
	}
}

// SetClock подменяет источник текущего времени
func (s *PrizeService) SetClock(now func() time.Time) {
	s.now = now
}

// DistributePrizes распределяет призы завершившегося конкурса.
// Выполняется не более одного раза: повторный вызов возвращает ErrPrizesAlreadyDistributed.
func (s *PrizeService) DistributePrizes(ctx context.Context, contestID uint) ([]entity.PrizeWinner, error) {
	contest, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !contest.HasEnded(now) {
		return nil, fmt.Errorf("%w: contest #%d ends at %s", apperrors.ErrContestStillRunning, contestID, contest.EndTime.Format(time.RFC3339))
	}
	if contest.PrizesDistributed() {
		return nil, fmt.Errorf("%w: contest #%d", apperrors.ErrPrizesAlreadyDistributed, contestID)
	}

	standings, err := s.participationRepo.ListStandings(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("load participants of contest #%d: %w", contestID, err)
	}
	winners := AssignPrizes(RankStandings(standings), contest.PrizeDistribution)

	awards := make([]entity.PrizeAward, len(winners))
	for i, w := range winners {
		awards[i] = entity.PrizeAward{
			ContestID:   contestID,
			Rank:        w.Rank,
			UserID:      w.UserID,
			Amount:      w.PrizeAmount,
			Description: w.PrizeDescription,
			DateWon:     now,
		}
	}
	if err := s.prizeRepo.Distribute(ctx, contestID, awards, now); err != nil {
		return nil, err
	}

	s.logger.Info("prizes distributed",
		zap.Uint("contest_id", contestID),
		zap.Int("participants", len(standings)),
		zap.Int("winners", len(winners)))

	s.invalidateContestLists()
	s.afterDistribute(contest, winners, now)
	return winners, nil
}

func (s *PrizeService) invalidateContestLists() {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.Delete(contestListKeys()...); err != nil {
		s.logger.Warn("failed to invalidate contest lists", zap.Error(err))
	}
}

// afterDistribute уведомляет победителей и публикует событие в фоне
func (s *PrizeService) afterDistribute(contest *entity.Contest, winners []entity.PrizeWinner, at time.Time) {
	if s.runner == nil {
		return
	}

	if len(winners) > 0 {
		s.runner.Submit(fmt.Sprintf("prizes.notify:%d", contest.ID), func(ctx context.Context) error {
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(maxParallelNotifications)
			for _, w := range winners {
				w := w
				g.Go(func() error {
					if err := s.notifier.NotifyWinner(gctx, contest, w); err != nil {
						return fmt.Errorf("notify winner #%d (rank %d): %w", w.UserID, w.Rank, err)
					}
					return nil
				})
			}
			return g.Wait()
		})
	}

	event := events.New(events.TypePrizesDistributed, contest.ID, 0, at, winners)
	s.runner.Submit("events.publish:"+event.Type, func(ctx context.Context) error {
		return s.publisher.Publish(ctx, event)
	})
}
