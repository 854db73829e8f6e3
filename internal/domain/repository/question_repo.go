package repository

import (
	"context"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с вопросами
type QuestionRepository interface {
	Create(ctx context.Context, question *entity.Question) error
	CreateBatch(ctx context.Context, questions []entity.Question) error
	GetByID(ctx context.Context, id uint) (*entity.Question, error)
	ListByContest(ctx context.Context, contestID uint) ([]entity.Question, error)
	Update(ctx context.Context, question *entity.Question) error
	Delete(ctx context.Context, id uint) error
	// AssignToContest привязывает вопросы к конкурсу. Уже привязанные к этому конкурсу пропускаются,
	// привязанные к другому конкурсу дают ErrQuestionAssigned.
	AssignToContest(ctx context.Context, contestID uint, questionIDs []uint) (int64, error)
}
