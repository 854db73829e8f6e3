package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
)

func TestJWTService_GenerateAndParse(t *testing.T) {
	svc, err := NewJWTService("test-secret", 24)
	require.NoError(t, err)

	user := &entity.User{ID: 42, Username: "alice", Email: "alice@example.com", Role: entity.RoleVIP}
	token, err := svc.GenerateToken(user)
	require.NoError(t, err)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, entity.RoleVIP, claims.Role)
	assert.NotEmpty(t, claims.ID, "У токена должен быть jti")
}

func TestJWTService_RejectsForeignSignature(t *testing.T) {
	issuer, err := NewJWTService("secret-a", 24)
	require.NoError(t, err)
	verifier, err := NewJWTService("secret-b", 24)
	require.NoError(t, err)

	token, err := issuer.GenerateToken(&entity.User{ID: 1, Role: entity.RoleUser})
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc, err := NewJWTService("test-secret", 1)
	require.NoError(t, err)
	svc.SetClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })

	token, err := svc.GenerateToken(&entity.User{ID: 1, Role: entity.RoleUser})
	require.NoError(t, err)

	svc.SetClock(time.Now)
	_, err = svc.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewJWTService_RequiresSecret(t *testing.T) {
	_, err := NewJWTService("", 24)
	assert.Error(t, err)
}
