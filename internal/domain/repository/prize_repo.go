package repository

import (
	"context"
	"time"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
)

// PrizeRepository определяет методы для работы с выданными призами
type PrizeRepository interface {
	// Distribute в одной транзакции помечает конкурс как завершённый с распределёнными призами
	// (compare-and-swap по prizes_distributed_at IS NULL) и сохраняет призы победителей.
	// Повторный вызов возвращает apperrors.ErrPrizesAlreadyDistributed и ничего не пишет.
	Distribute(ctx context.Context, contestID uint, awards []entity.PrizeAward, at time.Time) error
	ListByUser(ctx context.Context, userID uint) ([]entity.PrizeWonEntry, error)
	ListByContest(ctx context.Context, contestID uint) ([]entity.PrizeAward, error)
}
