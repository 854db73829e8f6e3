package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
	"github.com/kpsahani/Contest-Participation-System/pkg/auth"
)

// Ключи контекста gin
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRole     = "role"
)

// AuthMiddleware обеспечивает аутентификацию для защищенных маршрутов
type AuthMiddleware struct {
	jwtService *auth.JWTService
	logger     *zap.Logger
}

// NewAuthMiddleware создает middleware аутентификации
func NewAuthMiddleware(jwtService *auth.JWTService, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{jwtService: jwtService, logger: logger.Named("AuthMiddleware")}
}

func bearerToken(c *gin.Context) (string, bool, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false, true
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", true, false
	}
	return strings.TrimSpace(parts[1]), true, true
}

func (m *AuthMiddleware) authenticate(c *gin.Context, token string) bool {
	claims, err := m.jwtService.ParseToken(token)
	if err != nil {
		m.logger.Debug("token rejected", zap.String("path", c.FullPath()), zap.Error(err))
		return false
	}
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUsername, claims.Username)
	c.Set(ContextRole, claims.Role)
	return true
}

// RequireAuth проверяет Bearer-токен и кладёт данные пользователя в контекст
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present, wellFormed := bearerToken(c)
		if !present {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized, no token", "error_type": "token_missing"})
			return
		}
		if !wellFormed {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}", "error_type": "token_format"})
			return
		}
		if !m.authenticate(c, token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "error_type": "token_invalid"})
			return
		}
		c.Next()
	}
}

// OptionalAuth пропускает запрос без токена с ролью guest.
// Невалидный токен тоже превращается в guest.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present, wellFormed := bearerToken(c)
		if !present || !wellFormed || !m.authenticate(c, token) {
			c.Set(ContextRole, entity.RoleGuest)
		}
		c.Next()
	}
}

// RequireRoles пропускает только перечисленные роли. Ставится после RequireAuth.
func (m *AuthMiddleware) RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		role := RoleFrom(c)
		if _, ok := allowed[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":      "User role " + role + " is not authorized to access this route",
				"error_type": "forbidden",
			})
			return
		}
		c.Next()
	}
}

// AdminOnly - сокращение для RequireRoles(admin)
func (m *AuthMiddleware) AdminOnly() gin.HandlerFunc {
	return m.RequireRoles(entity.RoleAdmin)
}

// UserIDFrom возвращает ID пользователя из контекста (0 для гостя)
func UserIDFrom(c *gin.Context) uint {
	if v, ok := c.Get(ContextUserID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// RoleFrom возвращает роль из контекста (guest, если не задана)
func RoleFrom(c *gin.Context) string {
	if v, ok := c.Get(ContextRole); ok {
		if role, ok := v.(string); ok && role != "" {
			return role
		}
	}
	return entity.RoleGuest
}
