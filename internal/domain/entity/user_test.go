package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// BeforeSave не использует tx
var mockTx *gorm.DB = nil

func TestUser_BeforeSave_HashesPassword(t *testing.T) {
	// Arrange
	plainPassword := "mySecretPassword123"
	user := &User{Username: "testuser", Email: "test@example.com", Password: plainPassword}

	// Act
	err := user.BeforeSave(mockTx)

	// Assert
	require.NoError(t, err, "BeforeSave не должен возвращать ошибку")
	assert.NotEqual(t, plainPassword, user.Password, "Пароль должен быть изменён после хеширования")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(plainPassword)))
}

func TestUser_HashPassword_DoesNotRehash(t *testing.T) {
	user := &User{Password: "secret123"}
	require.NoError(t, user.HashPassword())
	hashed := user.Password

	require.NoError(t, user.HashPassword())
	assert.Equal(t, hashed, user.Password, "Уже хешированный пароль не должен меняться")
	assert.True(t, user.CheckPassword("secret123"))
	assert.False(t, user.CheckPassword("secret124"))
}

func TestUser_Roles(t *testing.T) {
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&User{Role: RoleVIP}).IsAdmin())

	assert.True(t, IsAssignableRole(RoleUser))
	assert.True(t, IsAssignableRole(RoleVIP))
	assert.False(t, IsAssignableRole(RoleAdmin), "Роль admin нельзя назначить через API")
	assert.False(t, IsAssignableRole(RoleGuest))
}
