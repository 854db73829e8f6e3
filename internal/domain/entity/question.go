package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Типы вопросов
const (
	QuestionTypeSingleSelect = "single-select"
	QuestionTypeMultiSelect  = "multi-select"
	QuestionTypeTrueFalse    = "true-false"
)

// Уровни сложности вопроса (метаданные, при оценке не используются)
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

const (
	maxQuestionTextLen = 1000
	maxOptionTextLen   = 500
)

// StringArray - пользовательский тип для работы с JSONB
type StringArray []string

// Scan реализует интерфейс sql.Scanner для StringArray
func (o *StringArray) Scan(value interface{}) error {
	if value == nil {
		*o = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}
	if len(bytes) == 0 {
		*o = StringArray{}
		return nil
	}
	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для StringArray
func (o StringArray) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(o)
}

// QuestionOption - вариант ответа
type QuestionOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionOptions хранится в JSONB
type QuestionOptions []QuestionOption

// Scan реализует интерфейс sql.Scanner для QuestionOptions
func (o *QuestionOptions) Scan(value interface{}) error {
	if value == nil {
		*o = QuestionOptions{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}
	if len(bytes) == 0 {
		*o = QuestionOptions{}
		return nil
	}
	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для QuestionOptions
func (o QuestionOptions) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(o)
}

// Question представляет вопрос конкурса.
// ContestID пуст, пока вопрос не привязан к конкурсу.
type Question struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	ContestID    *uint           `gorm:"index" json:"contest_id,omitempty"`
	Text         string          `gorm:"size:1000;not null" json:"question_text"`
	Type         string          `gorm:"size:20;not null;default:'single-select'" json:"question_type"`
	Options      QuestionOptions `gorm:"type:jsonb;not null" json:"options"`
	Points       int             `gorm:"not null;default:1" json:"points"`
	Explanation  string          `gorm:"size:1000;not null;default:''" json:"explanation,omitempty"`
	Difficulty   string          `gorm:"size:10;not null;default:'medium'" json:"difficulty"`
	TimeLimitSec int             `gorm:"not null;default:0" json:"time_limit"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// CorrectTexts возвращает тексты правильных вариантов в порядке хранения
func (q *Question) CorrectTexts() []string {
	texts := make([]string, 0, len(q.Options))
	for _, opt := range q.Options {
		if opt.IsCorrect {
			texts = append(texts, opt.Text)
		}
	}
	return texts
}

// CanonicalizeOptions приводит варианты true-false к "true" и "false",
// как их присылает JSON-булево значение. Остальные типы не меняются.
func (q *Question) CanonicalizeOptions() {
	if q.Type != QuestionTypeTrueFalse {
		return
	}
	for i := range q.Options {
		t := strings.TrimSpace(q.Options[i].Text)
		if strings.EqualFold(t, "true") || strings.EqualFold(t, "false") {
			q.Options[i].Text = strings.ToLower(t)
		}
	}
}

// BelongsTo проверяет привязку вопроса к конкурсу
func (q *Question) BelongsTo(contestID uint) bool {
	return q.ContestID != nil && *q.ContestID == contestID
}

// Validate проверяет инварианты вопроса в зависимости от его типа
func (q *Question) Validate() error {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return errors.New("question text is required")
	}
	if len(text) > maxQuestionTextLen {
		return fmt.Errorf("question text cannot exceed %d characters", maxQuestionTextLen)
	}
	if q.Points < 1 {
		return errors.New("points must be a positive integer")
	}
	if q.TimeLimitSec < 0 {
		return errors.New("time limit must be a non-negative integer")
	}
	switch q.Difficulty {
	case "", DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		return fmt.Errorf("invalid difficulty level %q", q.Difficulty)
	}
	if len(q.Options) < 2 {
		return errors.New("each question must have at least 2 options")
	}
	for _, opt := range q.Options {
		t := strings.TrimSpace(opt.Text)
		if t == "" {
			return errors.New("option text is required")
		}
		if len(t) > maxOptionTextLen {
			return fmt.Errorf("option text cannot exceed %d characters", maxOptionTextLen)
		}
	}

	correct := len(q.CorrectTexts())
	switch q.Type {
	case QuestionTypeTrueFalse:
		if len(q.Options) != 2 {
			return errors.New("true/false questions must have exactly 2 options")
		}
		a := strings.ToLower(strings.TrimSpace(q.Options[0].Text))
		b := strings.ToLower(strings.TrimSpace(q.Options[1].Text))
		if !((a == "true" && b == "false") || (a == "false" && b == "true")) {
			return errors.New(`true/false questions must have "True" and "False" as options`)
		}
		if correct != 1 {
			return errors.New("true/false questions must have exactly one correct answer")
		}
	case QuestionTypeSingleSelect:
		if correct != 1 {
			return errors.New("single-select questions must have exactly one correct answer")
		}
	case QuestionTypeMultiSelect:
		if correct < 1 {
			return errors.New("multi-select questions must have at least one correct answer")
		}
	default:
		return fmt.Errorf("invalid question type %q", q.Type)
	}
	return nil
}
