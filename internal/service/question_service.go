package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
	"github.com/kpsahani/Contest-Participation-System/internal/domain/repository"
	apperrors "github.com/kpsahani/Contest-Participation-System/internal/pkg/errors"
)

// maxBulkQuestions ограничивает размер пакетной загрузки
const maxBulkQuestions = 200

// QuestionService предоставляет методы для работы с вопросами
type QuestionService struct {
	questionRepo repository.QuestionRepository
	contestRepo  repository.ContestRepository
	logger       *zap.Logger
}

// NewQuestionService создает сервис вопросов
func NewQuestionService(
	questionRepo repository.QuestionRepository,
	contestRepo repository.ContestRepository,
	logger *zap.Logger,
) *QuestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionService{
		questionRepo: questionRepo,
		contestRepo:  contestRepo,
		logger:       logger.Named("QuestionService"),
	}
}

// ensureDraft проверяет, что вопросы конкурса ещё можно менять
func (s *QuestionService) ensureDraft(ctx context.Context, contestID *uint) error {
	if contestID == nil {
		return nil
	}
	contest, err := s.contestRepo.GetByID(ctx, *contestID)
	if err != nil {
		return err
	}
	if !contest.IsDraft() {
		return fmt.Errorf("%w: questions of contest #%d can only be changed in draft", apperrors.ErrConflict, contest.ID)
	}
	return nil
}

// CreateQuestion создает вопрос, при необходимости сразу в черновике конкурса
func (s *QuestionService) CreateQuestion(ctx context.Context, question *entity.Question) error {
	applyQuestionDefaults(question)
	if err := question.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if err := s.ensureDraft(ctx, question.ContestID); err != nil {
		return err
	}
	if err := s.questionRepo.Create(ctx, question); err != nil {
		return err
	}
	s.logger.Info("question created", zap.Uint("question_id", question.ID))
	return nil
}

// BulkCreate создает пакет вопросов; невалидный вопрос отклоняет весь пакет
func (s *QuestionService) BulkCreate(ctx context.Context, questions []entity.Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: questions are required", apperrors.ErrValidation)
	}
	if len(questions) > maxBulkQuestions {
		return fmt.Errorf("%w: at most %d questions per request", apperrors.ErrValidation, maxBulkQuestions)
	}

	checked := make(map[uint]struct{})
	for i := range questions {
		q := &questions[i]
		applyQuestionDefaults(q)
		if err := q.Validate(); err != nil {
			return fmt.Errorf("%w: question %d: %v", apperrors.ErrValidation, i+1, err)
		}
		if q.ContestID == nil {
			continue
		}
		if _, ok := checked[*q.ContestID]; ok {
			continue
		}
		if err := s.ensureDraft(ctx, q.ContestID); err != nil {
			return err
		}
		checked[*q.ContestID] = struct{}{}
	}

	if err := s.questionRepo.CreateBatch(ctx, questions); err != nil {
		return err
	}
	s.logger.Info("questions created", zap.Int("count", len(questions)))
	return nil
}

// GetQuestion возвращает вопрос по ID
func (s *QuestionService) GetQuestion(ctx context.Context, id uint) (*entity.Question, error) {
	return s.questionRepo.GetByID(ctx, id)
}

// ListByContest возвращает вопросы конкурса
func (s *QuestionService) ListByContest(ctx context.Context, contestID uint) ([]entity.Question, error) {
	if _, err := s.contestRepo.GetByID(ctx, contestID); err != nil {
		return nil, err
	}
	return s.questionRepo.ListByContest(ctx, contestID)
}

// UpdateQuestion обновляет вопрос, пока его конкурс в черновике
func (s *QuestionService) UpdateQuestion(ctx context.Context, id uint, update *entity.Question) (*entity.Question, error) {
	existing, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureDraft(ctx, existing.ContestID); err != nil {
		return nil, err
	}

	update.ID = existing.ID
	update.ContestID = existing.ContestID
	update.CreatedAt = existing.CreatedAt
	applyQuestionDefaults(update)
	if err := update.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if err := s.questionRepo.Update(ctx, update); err != nil {
		return nil, err
	}
	return update, nil
}

// DeleteQuestion удаляет вопрос, пока его конкурс в черновике
func (s *QuestionService) DeleteQuestion(ctx context.Context, id uint) error {
	existing, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ensureDraft(ctx, existing.ContestID); err != nil {
		return err
	}
	if err := s.questionRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("question deleted", zap.Uint("question_id", id))
	return nil
}

func applyQuestionDefaults(q *entity.Question) {
	if q.Type == "" {
		q.Type = entity.QuestionTypeSingleSelect
	}
	if q.Points == 0 {
		q.Points = 1
	}
	if q.Difficulty == "" {
		q.Difficulty = entity.DifficultyMedium
	}
	q.CanonicalizeOptions()
}
