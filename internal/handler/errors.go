package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/kpsahani/Contest-Participation-System/internal/pkg/errors"
)

// conflictErrors отвечают 409: запрос корректен, но противоречит состоянию конкурса
var conflictErrors = []error{
	apperrors.ErrConflict,
	apperrors.ErrContestClosed,
	apperrors.ErrContestStillRunning,
	apperrors.ErrAlreadySubmitted,
	apperrors.ErrAlreadyJoined,
	apperrors.ErrPrizesAlreadyDistributed,
	apperrors.ErrInvalidStatusTransition,
}

// handleError отправляет HTTP ответ по ошибке сервиса
func handleError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case isConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConfiguration):
		// Данные конкурса некорректны: ответ отличается от неожиданного сбоя, детали только в журнале
		logger.Error("contest configuration error",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Contest is misconfigured",
			"error_type": "configuration_error",
		})
	default:
		logger.Error("internal server error",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "error_type": "internal_error"})
	}
}

func isConflict(err error) bool {
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// badRequest - тело запроса не разобрано
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func namedLogger(logger *zap.Logger, name string) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger.Named(name)
}
