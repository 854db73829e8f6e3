package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
	apperrors "github.com/kpsahani/Contest-Participation-System/internal/pkg/errors"
)

// UserRepo реализует repository.UserRepository в памяти
type UserRepo struct {
	s *Store
}

// Create сохраняет пользователя, проверяя уникальность email и username
func (r *UserRepo) Create(_ context.Context, user *entity.User) error {
	if err := user.HashPassword(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return fmt.Errorf("%w: user already exists", apperrors.ErrConflict)
		}
	}
	r.s.userSeq++
	user.ID = r.s.userSeq
	if user.Role == "" {
		user.Role = entity.RoleUser
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now

	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

// GetByID возвращает пользователя по ID
func (r *UserRepo) GetByID(_ context.Context, id uint) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// GetByEmail возвращает пользователя по email
func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// GetByUsername возвращает пользователя по имени
func (r *UserRepo) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// List возвращает пользователей, отсортированных по имени
func (r *UserRepo) List(_ context.Context, limit, offset int) ([]entity.User, error) {
	r.s.mu.RLock()
	users := make([]entity.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, *u)
	}
	r.s.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	if offset >= len(users) {
		return []entity.User{}, nil
	}
	users = users[offset:]
	if limit > 0 && limit < len(users) {
		users = users[:limit]
	}
	return users, nil
}

// UpdateRole меняет роль, кроме роли администратора
func (r *UserRepo) UpdateRole(_ context.Context, userID uint, role string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok || u.Role == entity.RoleAdmin {
		return apperrors.ErrForbidden
	}
	u.Role = role
	u.UpdatedAt = time.Now()
	return nil
}
