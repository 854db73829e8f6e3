package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
	apperrors "github.com/kpsahani/Contest-Participation-System/internal/pkg/errors"
)

const standingColumns = "p.id AS participation_id, p.contest_id, p.user_id, u.username, u.email, " +
	"p.score, p.completed, p.joined_at, p.submitted_at"

// ParticipationRepo реализует repository.ParticipationRepository
type ParticipationRepo struct {
	db *gorm.DB
}

// NewParticipationRepo создает новый репозиторий участий
func NewParticipationRepo(db *gorm.DB) *ParticipationRepo {
	return &ParticipationRepo{db: db}
}

// Join создает запись участия
func (r *ParticipationRepo) Join(ctx context.Context, participation *entity.Participation) error {
	if participation.SubmittedAnswers == nil {
		participation.SubmittedAnswers = entity.SubmittedAnswers{}
	}
	if err := r.db.WithContext(ctx).Create(participation).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: contest #%d", apperrors.ErrAlreadyJoined, participation.ContestID)
		}
		return err
	}
	return nil
}

// Get возвращает участие пользователя в конкурсе
func (r *ParticipationRepo) Get(ctx context.Context, contestID, userID uint) (*entity.Participation, error) {
	var p entity.Participation
	err := r.db.WithContext(ctx).
		Where("contest_id = ? AND user_id = ?", contestID, userID).
		First(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// CountByContest возвращает количество участников конкурса
func (r *ParticipationRepo) CountByContest(ctx context.Context, contestID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Participation{}).
		Where("contest_id = ?", contestID).
		Count(&count).Error
	return count, err
}

// CompleteSubmission сохраняет результат участника одной условной записью и начисляет очки
func (r *ParticipationRepo) CompleteSubmission(ctx context.Context, p *entity.Participation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		applied, err := completeExisting(tx, p)
		if err != nil {
			return err
		}

		if !applied {
			// Участия нет или оно уже завершено: пробуем создать сразу завершённую запись
			created := entity.Participation{
				ContestID:        p.ContestID,
				UserID:           p.UserID,
				JoinedAt:         p.JoinedAt,
				Score:            p.Score,
				Completed:        true,
				SubmittedAt:      p.SubmittedAt,
				SubmittedAnswers: p.SubmittedAnswers,
			}
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&created)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				// Запись появилась конкурентно: возможно, это незавершённое вступление
				applied, err = completeExisting(tx, p)
				if err != nil {
					return err
				}
				if !applied {
					return fmt.Errorf("%w: contest #%d user #%d", apperrors.ErrAlreadySubmitted, p.ContestID, p.UserID)
				}
			} else {
				p.ID = created.ID
			}
		}

		result := tx.Model(&entity.User{}).
			Where("id = ?", p.UserID).
			Update("points", gorm.Expr("points + ?", p.Score))
		if result.Error != nil {
			return fmt.Errorf("increment points for user #%d failed: %w", p.UserID, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: user #%d", apperrors.ErrNotFound, p.UserID)
		}
		return nil
	})
}

func completeExisting(tx *gorm.DB, p *entity.Participation) (bool, error) {
	result := tx.Model(&entity.Participation{}).
		Where("contest_id = ? AND user_id = ? AND completed = ?", p.ContestID, p.UserID, false).
		Updates(map[string]interface{}{
			"submitted_answers": p.SubmittedAnswers,
			"score":             p.Score,
			"completed":         true,
			"submitted_at":      p.SubmittedAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("complete participation failed: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListStandings возвращает участников конкурса в порядке вступления
func (r *ParticipationRepo) ListStandings(ctx context.Context, contestID uint) ([]entity.Standing, error) {
	var standings []entity.Standing
	err := r.db.WithContext(ctx).
		Table("participations AS p").
		Select(standingColumns).
		Joins("JOIN users u ON u.id = p.user_id").
		Where("p.contest_id = ?", contestID).
		Order("p.id ASC").
		Scan(&standings).Error
	return standings, err
}

// ListSubmittedStandings возвращает отправивших ответы участников всех конкурсов
func (r *ParticipationRepo) ListSubmittedStandings(ctx context.Context) ([]entity.Standing, error) {
	var standings []entity.Standing
	err := r.db.WithContext(ctx).
		Table("participations AS p").
		Select(standingColumns).
		Joins("JOIN users u ON u.id = p.user_id").
		Where("p.completed = ?", true).
		Order("p.submitted_at ASC, p.id ASC").
		Scan(&standings).Error
	return standings, err
}

// ListHistoryByUser возвращает историю участия пользователя, новые конкурсы первыми
func (r *ParticipationRepo) ListHistoryByUser(ctx context.Context, userID uint) ([]entity.ContestHistoryEntry, error) {
	var history []entity.ContestHistoryEntry
	err := r.db.WithContext(ctx).
		Table("participations AS p").
		Select("c.id AS contest_id, c.title, c.start_time, c.end_time, p.score, p.completed, p.submitted_at").
		Joins("JOIN contests c ON c.id = p.contest_id").
		Where("p.user_id = ?", userID).
		Order("c.start_time DESC, c.id DESC").
		Scan(&history).Error
	return history, err
}
