package repository

import (
	"context"
	"time"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
)

// ContestFilter определяет фильтры для выборки конкурсов
type ContestFilter struct {
	Status      string     // Пусто - любой статус
	AccessLevel string     // Пусто - любой уровень доступа
	ActiveAt    *time.Time // Если задан - только конкурсы, идущие в этот момент
}

// ContestRepository определяет методы для работы с конкурсами
type ContestRepository interface {
	// Create сохраняет конкурс вместе с вложенными вопросами
	Create(ctx context.Context, contest *entity.Contest) error
	GetByID(ctx context.Context, id uint) (*entity.Contest, error)
	// GetWithQuestions возвращает конкурс с привязанными вопросами в порядке добавления
	GetWithQuestions(ctx context.Context, id uint) (*entity.Contest, error)
	List(ctx context.Context, filter ContestFilter) ([]entity.Contest, error)
	// ListEndedUndistributed возвращает завершившиеся к моменту now конкурсы без распределённых призов
	ListEndedUndistributed(ctx context.Context, now time.Time) ([]entity.Contest, error)
	// UpdateStatus атомарно переводит конкурс из статуса from в статус to.
	// Возвращает ErrContestStatusChanged, если текущий статус уже не from.
	UpdateStatus(ctx context.Context, id uint, from, to string) error
}
