package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// SubmittedAnswer - оценённый ответ участника на один вопрос
type SubmittedAnswer struct {
	QuestionID  uint      `json:"question_id"`
	Answers     []string  `json:"answers"`
	IsCorrect   bool      `json:"is_correct"`
	Points      int       `json:"points"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// SubmittedAnswers хранится в JSONB
type SubmittedAnswers []SubmittedAnswer

// Scan реализует интерфейс sql.Scanner для SubmittedAnswers
func (a *SubmittedAnswers) Scan(value interface{}) error {
	if value == nil {
		*a = SubmittedAnswers{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}
	if len(bytes) == 0 {
		*a = SubmittedAnswers{}
		return nil
	}
	return json.Unmarshal(bytes, a)
}

// Value реализует интерфейс driver.Valuer для SubmittedAnswers
func (a SubmittedAnswers) Value() (driver.Value, error) {
	if len(a) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

// Participation - участие пользователя в конкурсе.
// Не более одной записи на пару (contest_id, user_id); после Completed=true ответы и счёт не меняются.
type Participation struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	ContestID        uint             `gorm:"not null;uniqueIndex:idx_participations_contest_user" json:"contest_id"`
	UserID           uint             `gorm:"not null;uniqueIndex:idx_participations_contest_user;index" json:"user_id"`
	JoinedAt         time.Time        `gorm:"not null" json:"joined_at"`
	Score            int              `gorm:"not null;default:0" json:"score"`
	Completed        bool             `gorm:"not null;default:false" json:"completed"`
	SubmittedAt      *time.Time       `json:"submitted_at,omitempty"`
	SubmittedAnswers SubmittedAnswers `gorm:"type:jsonb;not null" json:"submitted_answers"`
}

// TableName определяет имя таблицы для GORM
func (Participation) TableName() string {
	return "participations"
}

// Standing - участник конкурса вместе с данными пользователя.
// Используется для ранжирования и построения лидербордов.
type Standing struct {
	ParticipationID uint       `json:"-"`
	ContestID       uint       `json:"contest_id"`
	UserID          uint       `json:"user_id"`
	Username        string     `json:"username"`
	Email           string     `json:"-"`
	Score           int        `json:"score"`
	Completed       bool       `json:"completed"`
	JoinedAt        time.Time  `json:"joined_at"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
}

// LeaderboardEntry - строка лидерборда
type LeaderboardEntry struct {
	Rank        int        `json:"rank"`
	ContestID   uint       `json:"contest_id,omitempty"`
	UserID      uint       `json:"user_id"`
	Username    string     `json:"username"`
	Score       int        `json:"score"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

// AnswerInput - ответ участника до оценки
type AnswerInput struct {
	QuestionID uint
	Selections []string
}

// SubmissionResult - результат отправки ответов
type SubmissionResult struct {
	Score int `json:"score"`
}

// ContestHistoryEntry - строка истории участия пользователя
type ContestHistoryEntry struct {
	ContestID   uint       `json:"id"`
	Title       string     `json:"title"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
	Score       int        `json:"score"`
	Completed   bool       `json:"completed"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}
