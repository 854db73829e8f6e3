package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
	"github.com/kpsahani/Contest-Participation-System/internal/domain/repository"
	apperrors "github.com/kpsahani/Contest-Participation-System/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// Create создает новый вопрос
func (r *QuestionRepo) Create(ctx context.Context, question *entity.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

// CreateBatch создает пакет вопросов в одной транзакции
func (r *QuestionRepo) CreateBatch(ctx context.Context, questions []entity.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&questions).Error
	})
}

// GetByID возвращает вопрос по ID
func (r *QuestionRepo) GetByID(ctx context.Context, id uint) (*entity.Question, error) {
	var question entity.Question
	if err := r.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &question, nil
}

// ListByContest возвращает вопросы конкурса в порядке добавления
func (r *QuestionRepo) ListByContest(ctx context.Context, contestID uint) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.WithContext(ctx).
		Where("contest_id = ?", contestID).
		Order("id ASC").
		Find(&questions).Error
	return questions, err
}

// Update сохраняет изменения вопроса
func (r *QuestionRepo) Update(ctx context.Context, question *entity.Question) error {
	result := r.db.WithContext(ctx).Model(question).
		Select("text", "type", "options", "points", "explanation", "difficulty", "time_limit_sec").
		Updates(question)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete удаляет вопрос
func (r *QuestionRepo) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entity.Question{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// AssignToContest привязывает свободные вопросы к конкурсу
func (r *QuestionRepo) AssignToContest(ctx context.Context, contestID uint, questionIDs []uint) (int64, error) {
	if len(questionIDs) == 0 {
		return 0, nil
	}
	var assigned int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var found []entity.Question
		if err := tx.Select("id", "contest_id").Where("id IN ?", questionIDs).Find(&found).Error; err != nil {
			return err
		}
		if len(found) != len(questionIDs) {
			return fmt.Errorf("%w: %d of %d questions exist", apperrors.ErrNotFound, len(found), len(questionIDs))
		}
		for _, q := range found {
			if q.ContestID != nil && *q.ContestID != contestID {
				return fmt.Errorf("%w: question #%d", repository.ErrQuestionAssigned, q.ID)
			}
		}

		result := tx.Model(&entity.Question{}).
			Where("id IN ? AND contest_id IS NULL", questionIDs).
			Update("contest_id", contestID)
		if result.Error != nil {
			return result.Error
		}
		assigned = result.RowsAffected
		return nil
	})
	return assigned, err
}
