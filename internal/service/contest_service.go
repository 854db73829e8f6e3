package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
	"github.com/kpsahani/Contest-Participation-System/internal/domain/repository"
	"github.com/kpsahani/Contest-Participation-System/internal/events"
	apperrors "github.com/kpsahani/Contest-Participation-System/internal/pkg/errors"
	"github.com/kpsahani/Contest-Participation-System/internal/service/tasks"
)

// DefaultContestListTTL - время жизни списков конкурсов в кеше
const DefaultContestListTTL = 5 * time.Minute

// ContestListKey возвращает ключ кеша списка конкурсов для роли
func ContestListKey(role string) string {
	return "contests:" + role
}

func contestListKeys() []string {
	return []string{
		ContestListKey(entity.RoleAdmin),
		ContestListKey(entity.RoleVIP),
		ContestListKey(entity.RoleUser),
		ContestListKey(entity.RoleGuest),
	}
}

// ContestService предоставляет методы для работы с конкурсами
type ContestService struct {
	contestRepo       repository.ContestRepository
	questionRepo      repository.QuestionRepository
	participationRepo repository.ParticipationRepository
	cacheRepo         repository.CacheRepository
	runner            *tasks.Runner
	publisher         events.Publisher
	ttl               time.Duration
	logger            *zap.Logger
	now               func() time.Time
}

// NewContestService создает сервис конкурсов. cacheRepo может быть nil.
func NewContestService(
	contestRepo repository.ContestRepository,
	questionRepo repository.QuestionRepository,
	participationRepo repository.ParticipationRepository,
	cacheRepo repository.CacheRepository,
	runner *tasks.Runner,
	publisher events.Publisher,
	ttl time.Duration,
	logger *zap.Logger,
) *ContestService {
	if ttl <= 0 {
		ttl = DefaultContestListTTL
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContestService{
		contestRepo:       contestRepo,
		questionRepo:      questionRepo,
		participationRepo: participationRepo,
		cacheRepo:         cacheRepo,
		runner:            runner,
		publisher:         publisher,
		ttl:               ttl,
		logger:            logger.Named("ContestService"),
		now:               time.Now,
	}
}

// SetClock подменяет источник текущего времени
func (s *ContestService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateContest создает конкурс вместе с вложенными вопросами
func (s *ContestService) CreateContest(ctx context.Context, contest *entity.Contest, creatorID uint) error {
	contest.ApplyDefaults()
	if contest.Status == entity.ContestStatusCompleted {
		return fmt.Errorf("%w: contest cannot be created as completed", apperrors.ErrValidation)
	}
	if err := contest.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if contest.IsPublished() && len(contest.Questions) == 0 {
		return fmt.Errorf("%w: published contest must have questions", apperrors.ErrValidation)
	}
	for i := range contest.Questions {
		contest.Questions[i].CanonicalizeOptions()
		if err := contest.Questions[i].Validate(); err != nil {
			return fmt.Errorf("%w: question %d: %v", apperrors.ErrValidation, i+1, err)
		}
	}
	if creatorID != 0 {
		contest.CreatedBy = &creatorID
	}

	if err := s.contestRepo.Create(ctx, contest); err != nil {
		s.logger.Error("failed to create contest", zap.String("title", contest.Title), zap.Error(err))
		return err
	}

	s.logger.Info("contest created",
		zap.Uint("contest_id", contest.ID),
		zap.String("status", contest.Status),
		zap.Int("questions", len(contest.Questions)))
	s.invalidateLists()
	return nil
}

// ListContests возвращает конкурсы, видимые роли. Результат кешируется по роли.
func (s *ContestService) ListContests(ctx context.Context, role string) ([]entity.Contest, error) {
	if role == "" {
		role = entity.RoleGuest
	}
	key := ContestListKey(role)
	if s.cacheRepo != nil {
		var cached []entity.Contest
		if err := s.cacheRepo.GetJSON(key, &cached); err == nil {
			return cached, nil
		}
	}

	contests, err := s.contestRepo.List(ctx, visibleTo(role))
	if err != nil {
		return nil, err
	}
	if s.cacheRepo != nil {
		if err := s.cacheRepo.SetJSON(key, contests, s.ttl); err != nil {
			s.logger.Warn("failed to cache contest list", zap.String("key", key), zap.Error(err))
		}
	}
	return contests, nil
}

// ListActiveContests возвращает видимые роли конкурсы, идущие прямо сейчас. Не кешируется.
func (s *ContestService) ListActiveContests(ctx context.Context, role string) ([]entity.Contest, error) {
	filter := visibleTo(role)
	now := s.now()
	filter.ActiveAt = &now
	return s.contestRepo.List(ctx, filter)
}

func visibleTo(role string) repository.ContestFilter {
	var filter repository.ContestFilter
	switch role {
	case entity.RoleAdmin:
	case entity.RoleVIP:
		filter.Status = entity.ContestStatusPublished
	default:
		filter.Status = entity.ContestStatusPublished
		filter.AccessLevel = entity.AccessLevelNormal
	}
	return filter
}

// ListAllContests возвращает все конкурсы без кеша (админка)
func (s *ContestService) ListAllContests(ctx context.Context) ([]entity.Contest, error) {
	return s.contestRepo.List(ctx, repository.ContestFilter{})
}

// GetContest возвращает конкурс с учётом уровня доступа роли
func (s *ContestService) GetContest(ctx context.Context, id uint, role string) (*entity.Contest, error) {
	contest, err := s.contestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkAccess(contest, role); err != nil {
		return nil, err
	}
	return contest, nil
}

// GetContestWithQuestions возвращает конкурс с вопросами
func (s *ContestService) GetContestWithQuestions(ctx context.Context, id uint, role string) (*entity.Contest, error) {
	contest, err := s.contestRepo.GetWithQuestions(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkAccess(contest, role); err != nil {
		return nil, err
	}
	return contest, nil
}

func checkAccess(contest *entity.Contest, role string) error {
	if role == entity.RoleAdmin {
		return nil
	}
	if contest.IsDraft() {
		return fmt.Errorf("%w: contest #%d", apperrors.ErrNotFound, contest.ID)
	}
	if !contest.AllowsRole(role) {
		return fmt.Errorf("%w: contest #%d is for VIP users only", apperrors.ErrForbidden, contest.ID)
	}
	return nil
}

// JoinContest регистрирует пользователя в конкурсе
func (s *ContestService) JoinContest(ctx context.Context, contestID, userID uint, role string) (*entity.Participation, error) {
	contest, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		return nil, err
	}
	if !contest.AllowsRole(role) {
		return nil, fmt.Errorf("%w: contest #%d is for VIP users only", apperrors.ErrForbidden, contestID)
	}
	if !contest.IsPublished() {
		return nil, fmt.Errorf("%w: contest #%d is not open for joining", apperrors.ErrConflict, contestID)
	}

	now := s.now()
	if contest.HasEnded(now) {
		return nil, fmt.Errorf("%w: contest #%d", apperrors.ErrContestClosed, contestID)
	}

	count, err := s.participationRepo.CountByContest(ctx, contestID)
	if err != nil {
		return nil, err
	}
	if count >= int64(contest.MaxParticipants) {
		return nil, fmt.Errorf("%w: contest #%d is full", apperrors.ErrConflict, contestID)
	}

	participation := &entity.Participation{
		ContestID: contestID,
		UserID:    userID,
		JoinedAt:  now,
	}
	if err := s.participationRepo.Join(ctx, participation); err != nil {
		return nil, err
	}

	s.logger.Info("user joined contest", zap.Uint("contest_id", contestID), zap.Uint("user_id", userID))
	s.publish(events.New(events.TypeContestJoined, contestID, userID, now, nil))
	return participation, nil
}

// UpdateStatus переводит конкурс в следующий статус
func (s *ContestService) UpdateStatus(ctx context.Context, id uint, status string) (*entity.Contest, error) {
	if !entity.IsValidContestStatus(status) {
		return nil, fmt.Errorf("%w: invalid status %q", apperrors.ErrValidation, status)
	}

	contest, err := s.contestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !contest.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidStatusTransition, contest.Status, status)
	}
	if status == entity.ContestStatusPublished {
		questions, err := s.questionRepo.ListByContest(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(questions) == 0 {
			return nil, fmt.Errorf("%w: contest #%d has no questions", apperrors.ErrValidation, id)
		}
	}

	if err := s.contestRepo.UpdateStatus(ctx, id, contest.Status, status); err != nil {
		if errors.Is(err, repository.ErrContestStatusChanged) {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrConflict, err)
		}
		return nil, err
	}

	s.logger.Info("contest status changed",
		zap.Uint("contest_id", id),
		zap.String("from", contest.Status),
		zap.String("to", status))

	s.invalidateLists()
	s.publish(events.New(events.TypeContestStatus, id, 0, s.now(), map[string]string{
		"from": contest.Status,
		"to":   status,
	}))
	contest.Status = status
	return contest, nil
}

// AssignQuestions привязывает существующие вопросы к черновику конкурса
func (s *ContestService) AssignQuestions(ctx context.Context, contestID uint, questionIDs []uint) (int64, error) {
	if len(questionIDs) == 0 {
		return 0, fmt.Errorf("%w: question ids are required", apperrors.ErrValidation)
	}

	contest, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		return 0, err
	}
	if !contest.IsDraft() {
		return 0, fmt.Errorf("%w: questions can only be assigned to draft contests", apperrors.ErrConflict)
	}

	seen := make(map[uint]struct{}, len(questionIDs))
	unique := make([]uint, 0, len(questionIDs))
	for _, id := range questionIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	assigned, err := s.questionRepo.AssignToContest(ctx, contestID, unique)
	if err != nil {
		if errors.Is(err, repository.ErrQuestionAssigned) {
			return 0, fmt.Errorf("%w: %v", apperrors.ErrConflict, err)
		}
		return 0, err
	}
	s.logger.Info("questions assigned",
		zap.Uint("contest_id", contestID),
		zap.Int64("assigned", assigned))
	return assigned, nil
}

func (s *ContestService) invalidateLists() {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.Delete(contestListKeys()...); err != nil {
		s.logger.Warn("failed to invalidate contest lists", zap.Error(err))
	}
}

func (s *ContestService) publish(event events.Event) {
	if s.runner == nil {
		return
	}
	s.runner.Submit("events.publish:"+event.Type, func(ctx context.Context) error {
		return s.publisher.Publish(ctx, event)
	})
}
