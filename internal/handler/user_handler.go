package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
	"github.com/kpsahani/Contest-Participation-System/internal/handler/dto"
	"github.com/kpsahani/Contest-Participation-System/internal/middleware"
	"github.com/kpsahani/Contest-Participation-System/internal/service"
)

// UserHandler обрабатывает запросы, связанные с пользователями
type UserHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

// NewUserHandler создает новый обработчик пользователей
func NewUserHandler(userService *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: namedLogger(logger, "UserHandler")}
}

// ownerOrAdmin разрешает смотреть профиль только самому пользователю и администратору
func ownerOrAdmin(c *gin.Context, userID uint) bool {
	if middleware.RoleFrom(c) == entity.RoleAdmin || middleware.UserIDFrom(c) == userID {
		return true
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to view this user"})
	return false
}

// GetHistory возвращает историю участия пользователя
func (h *UserHandler) GetHistory(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	if !ownerOrAdmin(c, userID) {
		return
	}

	history, err := h.userService.GetContestHistory(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// GetPrizes возвращает выигранные пользователем призы
func (h *UserHandler) GetPrizes(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	if !ownerOrAdmin(c, userID) {
		return
	}

	prizes, err := h.userService.GetPrizesWon(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, prizes)
}

// ListUsers возвращает страницу пользователей (admin)
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil || pageSize < 1 {
		pageSize = 20
	} else if pageSize > 100 {
		pageSize = 100
	}

	users, err := h.userService.ListUsers(c.Request.Context(), page, pageSize)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	resp := dto.PaginatedUsersResponse{Users: make([]dto.UserResponse, len(users)), Page: page, PerPage: pageSize}
	for i := range users {
		resp.Users[i] = dto.NewUserResponse(&users[i])
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateRole назначает пользователю роль user или vip (admin)
func (h *UserHandler) UpdateRole(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	var req dto.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.userService.UpdateRole(c.Request.Context(), userID, req.Role)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}
