package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
	"github.com/kpsahani/Contest-Participation-System/internal/domain/repository"
)

// DefaultLeaderboardTTL - время жизни лидербордов в кеше
const DefaultLeaderboardTTL = 5 * time.Minute

// DefaultLeaderboardComputeTimeout ограничивает общий пересчёт лидерборда
const DefaultLeaderboardComputeTimeout = 10 * time.Second

const globalLeaderboardKey = "leaderboard:global"

// ContestLeaderboardKey возвращает ключ кеша лидерборда конкурса
func ContestLeaderboardKey(contestID uint) string {
	return fmt.Sprintf("leaderboard:contest:%d", contestID)
}

// LeaderboardBroadcaster доставляет обновлённый лидерборд подписчикам
type LeaderboardBroadcaster interface {
	BroadcastLeaderboard(contestID uint, entries []entity.LeaderboardEntry)
}

// BuildLeaderboard строит лидерборд из участников: только отправившие ответы,
// по убыванию счёта; при равенстве раньше стоит тот, кто отправил раньше.
func BuildLeaderboard(standings []entity.Standing) []entity.LeaderboardEntry {
	submitted := make([]entity.Standing, 0, len(standings))
	for _, st := range standings {
		if st.Completed {
			submitted = append(submitted, st)
		}
	}
	sort.SliceStable(submitted, func(i, j int) bool {
		a, b := submitted[i], submitted[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.SubmittedAt != nil && b.SubmittedAt != nil && !a.SubmittedAt.Equal(*b.SubmittedAt) {
			return a.SubmittedAt.Before(*b.SubmittedAt)
		}
		return false
	})

	entries := make([]entity.LeaderboardEntry, len(submitted))
	for i, st := range submitted {
		entries[i] = entity.LeaderboardEntry{
			Rank:        i + 1,
			ContestID:   st.ContestID,
			UserID:      st.UserID,
			Username:    st.Username,
			Score:       st.Score,
			SubmittedAt: st.SubmittedAt,
		}
	}
	return entries
}

// LeaderboardService строит лидерборды и кеширует их
type LeaderboardService struct {
	participationRepo repository.ParticipationRepository
	contestRepo       repository.ContestRepository
	cacheRepo         repository.CacheRepository
	broadcaster       LeaderboardBroadcaster
	ttl               time.Duration
	computeTimeout    time.Duration
	group             singleflight.Group
	logger            *zap.Logger
}

// NewLeaderboardService создает сервис лидербордов. cacheRepo может быть nil.
func NewLeaderboardService(
	participationRepo repository.ParticipationRepository,
	contestRepo repository.ContestRepository,
	cacheRepo repository.CacheRepository,
	ttl time.Duration,
	logger *zap.Logger,
) *LeaderboardService {
	if ttl <= 0 {
		ttl = DefaultLeaderboardTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaderboardService{
		participationRepo: participationRepo,
		contestRepo:       contestRepo,
		cacheRepo:         cacheRepo,
		ttl:               ttl,
		computeTimeout:    DefaultLeaderboardComputeTimeout,
		logger:            logger.Named("LeaderboardService"),
	}
}

// SetBroadcaster подключает рассылку обновлений (WebSocket)
func (s *LeaderboardService) SetBroadcaster(b LeaderboardBroadcaster) {
	s.broadcaster = b
}

// Project всегда считает лидерборд заново, минуя кеш. contestID == nil - общий лидерборд.
func (s *LeaderboardService) Project(ctx context.Context, contestID *uint) ([]entity.LeaderboardEntry, error) {
	if contestID == nil {
		return s.computeGlobal(ctx)
	}
	if _, err := s.contestRepo.GetByID(ctx, *contestID); err != nil {
		return nil, err
	}
	return s.computeContest(ctx, *contestID)
}

// GetContestLeaderboard возвращает лидерборд конкурса, по возможности из кеша
func (s *LeaderboardService) GetContestLeaderboard(ctx context.Context, contestID uint) ([]entity.LeaderboardEntry, error) {
	if _, err := s.contestRepo.GetByID(ctx, contestID); err != nil {
		return nil, err
	}
	return s.cached(ctx, ContestLeaderboardKey(contestID), func(computeCtx context.Context) ([]entity.LeaderboardEntry, error) {
		return s.computeContest(computeCtx, contestID)
	})
}

// GetGlobalLeaderboard возвращает общий лидерборд по всем конкурсам
func (s *LeaderboardService) GetGlobalLeaderboard(ctx context.Context) ([]entity.LeaderboardEntry, error) {
	return s.cached(ctx, globalLeaderboardKey, s.computeGlobal)
}

// Refresh пересчитывает лидерборды конкурса и общий, обновляет кеш и рассылает подписчикам
func (s *LeaderboardService) Refresh(ctx context.Context, contestID uint) error {
	contestBoard, err := s.computeContest(ctx, contestID)
	if err != nil {
		return fmt.Errorf("refresh contest #%d leaderboard: %w", contestID, err)
	}
	s.store(ContestLeaderboardKey(contestID), contestBoard)

	globalBoard, err := s.computeGlobal(ctx)
	if err != nil {
		return fmt.Errorf("refresh global leaderboard: %w", err)
	}
	s.store(globalLeaderboardKey, globalBoard)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastLeaderboard(contestID, contestBoard)
	}
	return nil
}

func (s *LeaderboardService) computeContest(ctx context.Context, contestID uint) ([]entity.LeaderboardEntry, error) {
	standings, err := s.participationRepo.ListStandings(ctx, contestID)
	if err != nil {
		return nil, err
	}
	return BuildLeaderboard(standings), nil
}

func (s *LeaderboardService) computeGlobal(ctx context.Context) ([]entity.LeaderboardEntry, error) {
	standings, err := s.participationRepo.ListSubmittedStandings(ctx)
	if err != nil {
		return nil, err
	}
	return BuildLeaderboard(standings), nil
}

// cached отдаёт лидерборд из кеша или пересчитывает его один раз на все
// одновременные запросы. Пересчёт идёт на отвязанном контексте с таймаутом:
// отмена одного запроса не роняет остальных, ждущих тот же ключ.
func (s *LeaderboardService) cached(
	ctx context.Context,
	key string,
	compute func(context.Context) ([]entity.LeaderboardEntry, error),
) ([]entity.LeaderboardEntry, error) {
	if s.cacheRepo != nil {
		var entries []entity.LeaderboardEntry
		if err := s.cacheRepo.GetJSON(key, &entries); err == nil {
			return entries, nil
		}
	}

	ch := s.group.DoChan(key, func() (interface{}, error) {
		computeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.computeTimeout)
		defer cancel()
		entries, err := compute(computeCtx)
		if err != nil {
			return nil, err
		}
		s.store(key, entries)
		return entries, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]entity.LeaderboardEntry), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *LeaderboardService) store(key string, entries []entity.LeaderboardEntry) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.SetJSON(key, entries, s.ttl); err != nil {
		s.logger.Warn("failed to cache leaderboard", zap.String("key", key), zap.Error(err))
	}
}
