package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
	"github.com/kpsahani/Contest-Participation-System/internal/domain/repository"
	"github.com/kpsahani/Contest-Participation-System/internal/events"
	apperrors "github.com/kpsahani/Contest-Participation-System/internal/pkg/errors"
	"github.com/kpsahani/Contest-Participation-System/internal/service/scoring"
	"github.com/kpsahani/Contest-Participation-System/internal/service/tasks"
)

// SubmissionService принимает ответы участников и начисляет очки
type SubmissionService struct {
	contestRepo       repository.ContestRepository
	participationRepo repository.ParticipationRepository
	leaderboard       *LeaderboardService
	runner            *tasks.Runner
	publisher         events.Publisher
	logger            *zap.Logger
	now               func() time.Time
}

// NewSubmissionService создает сервис отправки ответов
func NewSubmissionService(
	contestRepo repository.ContestRepository,
	participationRepo repository.ParticipationRepository,
	leaderboard *LeaderboardService,
	runner *tasks.Runner,
	publisher events.Publisher,
	logger *zap.Logger,
) *SubmissionService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		contestRepo:       contestRepo,
		participationRepo: participationRepo,
		leaderboard:       leaderboard,
		runner:            runner,
		publisher:         publisher,
		logger:            logger.Named("SubmissionService"),
		now:               time.Now,
	}
}

// SetClock подменяет источник текущего времени
func (s *SubmissionService) SetClock(now func() time.Time) {
	s.now = now
}

// Submit оценивает ответы участника и фиксирует результат.
// Результат сохраняется одной условной записью: повторная отправка возвращает ErrAlreadySubmitted.
func (s *SubmissionService) Submit(ctx context.Context, contestID, userID uint, answers []entity.AnswerInput) (*entity.SubmissionResult, error) {
	contest, err := s.contestRepo.GetWithQuestions(ctx, contestID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if contest.HasEnded(now) {
		return nil, fmt.Errorf("%w: contest #%d ended at %s", apperrors.ErrContestClosed, contestID, contest.EndTime.Format(time.RFC3339))
	}

	// Быстрый отказ без оценки; окончательную проверку делает условная запись
	if existing, err := s.participationRepo.Get(ctx, contestID, userID); err == nil && existing.Completed {
		return nil, fmt.Errorf("%w: contest #%d", apperrors.ErrAlreadySubmitted, contestID)
	}

	card, err := scoring.ScoreSubmission(contest.Questions, answers, now)
	if err != nil {
		s.logger.Error("failed to score submission",
			zap.Uint("contest_id", contestID),
			zap.Uint("user_id", userID),
			zap.Error(err))
		return nil, err
	}

	submittedAt := now
	participation := &entity.Participation{
		ContestID:        contestID,
		UserID:           userID,
		JoinedAt:         now,
		Score:            card.Total,
		SubmittedAt:      &submittedAt,
		SubmittedAnswers: card.Answers,
	}
	if err := s.participationRepo.CompleteSubmission(ctx, participation); err != nil {
		return nil, err
	}

	s.logger.Info("submission completed",
		zap.Uint("contest_id", contestID),
		zap.Uint("user_id", userID),
		zap.Int("score", card.Total),
		zap.Int("answers", len(card.Answers)))

	s.afterSubmit(contestID, userID, card.Total, now)
	return &entity.SubmissionResult{Score: card.Total}, nil
}

// afterSubmit запускает фоновые побочные эффекты; их ошибки не влияют на результат отправки
func (s *SubmissionService) afterSubmit(contestID, userID uint, score int, at time.Time) {
	if s.runner == nil {
		return
	}
	if s.leaderboard != nil {
		s.runner.Submit(fmt.Sprintf("leaderboard.refresh:%d", contestID), func(ctx context.Context) error {
			return s.leaderboard.Refresh(ctx, contestID)
		})
	}
	event := events.New(events.TypeSubmissionCompleted, contestID, userID, at, map[string]int{"score": score})
	s.runner.Submit("events.publish:"+event.Type, func(ctx context.Context) error {
		return s.publisher.Publish(ctx, event)
	})
}
