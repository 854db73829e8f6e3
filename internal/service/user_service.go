package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
	"github.com/kpsahani/Contest-Participation-System/internal/domain/repository"
	apperrors "github.com/kpsahani/Contest-Participation-System/internal/pkg/errors"
)

// UserService предоставляет методы для работы с пользователями
type UserService struct {
	userRepo          repository.UserRepository
	participationRepo repository.ParticipationRepository
	prizeRepo         repository.PrizeRepository
	logger            *zap.Logger
}

// NewUserService создает новый сервис пользователей
func NewUserService(
	userRepo repository.UserRepository,
	participationRepo repository.ParticipationRepository,
	prizeRepo repository.PrizeRepository,
	logger *zap.Logger,
) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		userRepo:          userRepo,
		participationRepo: participationRepo,
		prizeRepo:         prizeRepo,
		logger:            logger.Named("UserService"),
	}
}

// GetUser возвращает пользователя по ID
func (s *UserService) GetUser(ctx context.Context, userID uint) (*entity.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// GetContestHistory возвращает конкурсы, в которых участвовал пользователь
func (s *UserService) GetContestHistory(ctx context.Context, userID uint) ([]entity.ContestHistoryEntry, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.participationRepo.ListHistoryByUser(ctx, userID)
}

// GetPrizesWon возвращает призы пользователя
func (s *UserService) GetPrizesWon(ctx context.Context, userID uint) ([]entity.PrizeWonEntry, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.prizeRepo.ListByUser(ctx, userID)
}

// ListUsers возвращает страницу пользователей
func (s *UserService) ListUsers(ctx context.Context, page, pageSize int) ([]entity.User, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	} else if pageSize > 100 {
		pageSize = 100
	}
	return s.userRepo.List(ctx, pageSize, (page-1)*pageSize)
}

// UpdateRole назначает роль user или vip. Роль администратора не меняется.
func (s *UserService) UpdateRole(ctx context.Context, userID uint, role string) (*entity.User, error) {
	if !entity.IsAssignableRole(role) {
		return nil, fmt.Errorf("%w: role must be %q or %q", apperrors.ErrValidation, entity.RoleUser, entity.RoleVIP)
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role cannot be changed", apperrors.ErrForbidden)
	}
	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		return nil, err
	}

	s.logger.Info("user role updated",
		zap.Uint("user_id", userID),
		zap.String("from", user.Role),
		zap.String("to", role))
	user.Role = role
	return user, nil
}
