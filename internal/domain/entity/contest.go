package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Константы статусов конкурса. Переходы только вперёд: draft -> published -> completed.
const (
	ContestStatusDraft     = "draft"
	ContestStatusPublished = "published"
	ContestStatusCompleted = "completed"
)

// Уровни доступа к конкурсу
const (
	AccessLevelNormal = "normal"
	AccessLevelVIP    = "vip"
)

// Уровни сложности конкурса
const (
	ContestDifficultyBeginner     = "beginner"
	ContestDifficultyIntermediate = "intermediate"
	ContestDifficultyAdvanced     = "advanced"
)

// DefaultMaxParticipants применяется, если лимит участников не задан
const DefaultMaxParticipants = 100

var contestStatusOrder = map[string]int{
	ContestStatusDraft:     0,
	ContestStatusPublished: 1,
	ContestStatusCompleted: 2,
}

// PrizeTier - строка таблицы призов: какой ранг что получает
type PrizeTier struct {
	Rank        int    `json:"rank"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// PrizeTiers хранится в JSONB в порядке, заданном администратором
type PrizeTiers []PrizeTier

// Scan реализует интерфейс sql.Scanner для PrizeTiers
func (p *PrizeTiers) Scan(value interface{}) error {
	if value == nil {
		*p = PrizeTiers{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}
	if len(bytes) == 0 {
		*p = PrizeTiers{}
		return nil
	}
	return json.Unmarshal(bytes, p)
}

// Value реализует интерфейс driver.Valuer для PrizeTiers
func (p PrizeTiers) Value() (driver.Value, error) {
	if len(p) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(p)
}

// Contest представляет конкурс
type Contest struct {
	ID                  uint        `gorm:"primaryKey" json:"id"`
	Title               string      `gorm:"size:200;not null" json:"title"`
	Description         string      `gorm:"type:text;not null" json:"description"`
	StartTime           time.Time   `gorm:"not null" json:"start_time"`
	EndTime             time.Time   `gorm:"not null;index" json:"end_time"`
	AccessLevel         string      `gorm:"size:10;not null;default:'normal';index" json:"access_level"`
	DifficultyLevel     string      `gorm:"size:20;not null;default:'intermediate'" json:"difficulty_level"`
	MaxParticipants     int         `gorm:"not null;default:100" json:"max_participants"`
	Status              string      `gorm:"size:20;not null;default:'draft';index" json:"status"`
	PrizeTitle          string      `gorm:"size:200;not null;default:''" json:"prize_title"`
	PrizeDescription    string      `gorm:"type:text;not null;default:''" json:"prize_description"`
	PrizeValue          int64       `gorm:"not null;default:0" json:"prize_value"`
	PrizeDistribution   PrizeTiers  `gorm:"type:jsonb;not null" json:"prize_distribution"`
	Rules               StringArray `gorm:"type:jsonb;not null" json:"rules"`
	CreatedBy           *uint       `json:"created_by,omitempty"`
	PrizesDistributedAt *time.Time  `json:"prizes_distributed_at,omitempty"`
	Questions           []Question  `gorm:"foreignKey:ContestID" json:"questions,omitempty"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Contest) TableName() string {
	return "contests"
}

// IsDraft проверяет, находится ли конкурс в черновике
func (c *Contest) IsDraft() bool {
	return c.Status == ContestStatusDraft
}

// IsPublished проверяет, опубликован ли конкурс
func (c *Contest) IsPublished() bool {
	return c.Status == ContestStatusPublished
}

// HasEnded сообщает, что время конкурса истекло (now строго позже EndTime)
func (c *Contest) HasEnded(now time.Time) bool {
	return now.After(c.EndTime)
}

// IsRunning сообщает, идёт ли конкурс в момент now
func (c *Contest) IsRunning(now time.Time) bool {
	return !now.Before(c.StartTime) && !now.After(c.EndTime)
}

// PrizesDistributed сообщает, распределены ли призы
func (c *Contest) PrizesDistributed() bool {
	return c.PrizesDistributedAt != nil
}

// AllowsRole проверяет доступ роли к конкурсу: vip-конкурсы закрыты для обычных пользователей
func (c *Contest) AllowsRole(role string) bool {
	if c.AccessLevel != AccessLevelVIP {
		return true
	}
	return role == RoleVIP || role == RoleAdmin
}

// CanTransitionTo проверяет, что смена статуса идёт только вперёд
func (c *Contest) CanTransitionTo(status string) bool {
	next, ok := contestStatusOrder[status]
	if !ok {
		return false
	}
	return next > contestStatusOrder[c.Status]
}

// IsValidContestStatus проверяет значение статуса
func IsValidContestStatus(status string) bool {
	_, ok := contestStatusOrder[status]
	return ok
}

// Validate проверяет инварианты конкурса
func (c *Contest) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return errors.New("title is required")
	}
	if strings.TrimSpace(c.Description) == "" {
		return errors.New("description is required")
	}
	if c.StartTime.IsZero() || c.EndTime.IsZero() {
		return errors.New("start and end time are required")
	}
	if !c.EndTime.After(c.StartTime) {
		return errors.New("end time must be after start time")
	}
	switch c.AccessLevel {
	case AccessLevelNormal, AccessLevelVIP:
	default:
		return fmt.Errorf("invalid access level %q", c.AccessLevel)
	}
	switch c.DifficultyLevel {
	case ContestDifficultyBeginner, ContestDifficultyIntermediate, ContestDifficultyAdvanced:
	default:
		return fmt.Errorf("invalid difficulty level %q", c.DifficultyLevel)
	}
	if !IsValidContestStatus(c.Status) {
		return fmt.Errorf("invalid status %q", c.Status)
	}
	if c.MaxParticipants < 1 {
		return errors.New("max participants must be positive")
	}
	if c.PrizeValue < 0 {
		return errors.New("prize value cannot be negative")
	}

	seen := make(map[int]struct{}, len(c.PrizeDistribution))
	for _, tier := range c.PrizeDistribution {
		if tier.Rank < 1 {
			return fmt.Errorf("prize rank must be a positive integer, got %d", tier.Rank)
		}
		if tier.Amount < 0 {
			return fmt.Errorf("prize amount for rank %d cannot be negative", tier.Rank)
		}
		if _, dup := seen[tier.Rank]; dup {
			return fmt.Errorf("duplicate prize rank %d", tier.Rank)
		}
		seen[tier.Rank] = struct{}{}
	}
	return nil
}

// ApplyDefaults заполняет необязательные поля значениями по умолчанию
func (c *Contest) ApplyDefaults() {
	if c.AccessLevel == "" {
		c.AccessLevel = AccessLevelNormal
	}
	if c.DifficultyLevel == "" {
		c.DifficultyLevel = ContestDifficultyIntermediate
	}
	if c.Status == "" {
		c.Status = ContestStatusDraft
	}
	if c.MaxParticipants == 0 {
		c.MaxParticipants = DefaultMaxParticipants
	}
	if c.PrizeDistribution == nil {
		c.PrizeDistribution = PrizeTiers{}
	}
	if c.Rules == nil {
		c.Rules = StringArray{}
	}
}
