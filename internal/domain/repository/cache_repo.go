package repository

import (
	"time"
)

// CacheRepository определяет методы для работы с кешем.
// Кеш вспомогательный: промах или ошибка означают чтение из источника истины.
type CacheRepository interface {
	Get(key string) (string, error)
	Delete(keys ...string) error
	SetJSON(key string, value interface{}, expiration time.Duration) error
	GetJSON(key string, dest interface{}) error
	SetNX(key string, value interface{}, expiration time.Duration) (bool, error)
}
