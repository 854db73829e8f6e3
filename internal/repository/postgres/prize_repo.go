package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
	apperrors "github.com/kpsahani/Contest-Participation-System/internal/pkg/errors"
)

// PrizeRepo реализует repository.PrizeRepository
type PrizeRepo struct {
	db *gorm.DB
}

// NewPrizeRepo создает новый репозиторий призов
func NewPrizeRepo(db *gorm.DB) *PrizeRepo {
	return &PrizeRepo{db: db}
}

// Distribute закрывает конкурс и сохраняет призы в одной транзакции
func (r *PrizeRepo) Distribute(ctx context.Context, contestID uint, awards []entity.PrizeAward, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.Contest{}).
			Where("id = ? AND prizes_distributed_at IS NULL", contestID).
			Updates(map[string]interface{}{
				"prizes_distributed_at": at,
				"status":                entity.ContestStatusCompleted,
			})
		if result.Error != nil {
			return fmt.Errorf("mark contest #%d distributed failed: %w", contestID, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: contest #%d", apperrors.ErrPrizesAlreadyDistributed, contestID)
		}

		if len(awards) == 0 {
			return nil
		}
		if err := tx.Create(&awards).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: contest #%d", apperrors.ErrPrizesAlreadyDistributed, contestID)
			}
			return fmt.Errorf("save prize awards for contest #%d failed: %w", contestID, err)
		}
		return nil
	})
}

// ListByUser возвращает призы пользователя с названиями конкурсов
func (r *PrizeRepo) ListByUser(ctx context.Context, userID uint) ([]entity.PrizeWonEntry, error) {
	var prizes []entity.PrizeWonEntry
	err := r.db.WithContext(ctx).
		Table("prize_awards AS a").
		Select("a.contest_id, c.title AS contest_title, a.rank, a.amount, a.description, a.date_won").
		Joins("JOIN contests c ON c.id = a.contest_id").
		Where("a.user_id = ?", userID).
		Order("a.date_won DESC, a.id DESC").
		Scan(&prizes).Error
	return prizes, err
}

// ListByContest возвращает призы конкурса по рангам
func (r *PrizeRepo) ListByContest(ctx context.Context, contestID uint) ([]entity.PrizeAward, error) {
	var awards []entity.PrizeAward
	err := r.db.WithContext(ctx).
		Where("contest_id = ?", contestID).
		Order("rank ASC").
		Find(&awards).Error
	return awards, err
}
