package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
	"github.com/kpsahani/Contest-Participation-System/internal/domain/repository"
)

// ContestRepo реализует repository.ContestRepository
type ContestRepo struct {
	db *gorm.DB
}

// NewContestRepo создает новый репозиторий конкурсов
func NewContestRepo(db *gorm.DB) *ContestRepo {
	return &ContestRepo{db: db}
}

// Create создает конкурс; вложенные вопросы сохраняются в той же транзакции
func (r *ContestRepo) Create(ctx context.Context, contest *entity.Contest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(contest).Error
	})
}

// GetByID возвращает конкурс по ID
func (r *ContestRepo) GetByID(ctx context.Context, id uint) (*entity.Contest, error) {
	var contest entity.Contest
	if err := r.db.WithContext(ctx).First(&contest, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &contest, nil
}

// GetWithQuestions возвращает конкурс с вопросами
func (r *ContestRepo) GetWithQuestions(ctx context.Context, id uint) (*entity.Contest, error) {
	var contest entity.Contest
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.id ASC")
		}).
		First(&contest, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &contest, nil
}

// List возвращает конкурсы по фильтру, новые первыми
func (r *ContestRepo) List(ctx context.Context, filter repository.ContestFilter) ([]entity.Contest, error) {
	query := r.db.WithContext(ctx).Model(&entity.Contest{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.AccessLevel != "" {
		query = query.Where("access_level = ?", filter.AccessLevel)
	}
	if filter.ActiveAt != nil {
		query = query.Where("start_time <= ? AND end_time >= ?", *filter.ActiveAt, *filter.ActiveAt)
	}

	var contests []entity.Contest
	if err := query.Order("start_time DESC, id DESC").Find(&contests).Error; err != nil {
		return nil, err
	}
	return contests, nil
}

// ListEndedUndistributed возвращает завершившиеся конкурсы без распределённых призов
func (r *ContestRepo) ListEndedUndistributed(ctx context.Context, now time.Time) ([]entity.Contest, error) {
	var contests []entity.Contest
	err := r.db.WithContext(ctx).
		Where("end_time < ? AND prizes_distributed_at IS NULL", now).
		Order("end_time ASC, id ASC").
		Find(&contests).Error
	return contests, err
}

// UpdateStatus атомарно переводит статус from -> to
func (r *ContestRepo) UpdateStatus(ctx context.Context, id uint, from, to string) error {
	result := r.db.WithContext(ctx).Model(&entity.Contest{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return fmt.Errorf("update contest #%d status failed: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: contest #%d", repository.ErrContestStatusChanged, id)
	}
	return nil
}
