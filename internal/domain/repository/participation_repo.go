package repository

import (
	"context"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
)

// ParticipationRepository определяет методы для работы с участием в конкурсах
type ParticipationRepository interface {
	// Join создаёт запись участия. Повторное вступление даёт apperrors.ErrAlreadyJoined.
	Join(ctx context.Context, participation *entity.Participation) error
	Get(ctx context.Context, contestID, userID uint) (*entity.Participation, error)
	CountByContest(ctx context.Context, contestID uint) (int64, error)

	// CompleteSubmission атомарно (compare-and-swap по completed=false) сохраняет ответы и счёт
	// и в той же транзакции увеличивает users.points на счёт участника.
	// Если участия ещё нет, оно создаётся сразу завершённым.
	// Если участие уже завершено, возвращает apperrors.ErrAlreadySubmitted и ничего не меняет.
	CompleteSubmission(ctx context.Context, participation *entity.Participation) error

	// ListStandings возвращает всех участников конкурса в порядке вступления
	ListStandings(ctx context.Context, contestID uint) ([]entity.Standing, error)
	// ListSubmittedStandings возвращает отправивших ответы участников всех конкурсов в порядке отправки
	ListSubmittedStandings(ctx context.Context) ([]entity.Standing, error)
	// ListHistoryByUser возвращает конкурсы пользователя с его счётом
	ListHistoryByUser(ctx context.Context, userID uint) ([]entity.ContestHistoryEntry, error)
}
