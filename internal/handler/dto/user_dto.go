package dto

import (
	"time"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
)

// RegisterRequest - регистрация
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest - вход
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateRoleRequest - смена роли пользователя администратором
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=user vip"`
}

// UserResponse - пользователь в ответе API
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Points    int64     `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserResponse создает DTO пользователя
func NewUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		Points:    u.Points,
		CreatedAt: u.CreatedAt,
	}
}

// AuthResponse - результат регистрации или входа
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// PaginatedUsersResponse - страница пользователей
type PaginatedUsersResponse struct {
	Users   []UserResponse `json:"users"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
}
