// Package dto описывает тела запросов и ответов HTTP API.
package dto

import (
	"time"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
)

// OptionRequest - вариант ответа во входящем вопросе
type OptionRequest struct {
	Text      string `json:"text" binding:"required"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionRequest - вопрос при создании или изменении
type QuestionRequest struct {
	Text         string          `json:"question_text" binding:"required,max=1000"`
	Type         string          `json:"question_type" binding:"omitempty,oneof=single-select multi-select true-false"`
	Options      []OptionRequest `json:"options" binding:"required,min=2,dive"`
	Points       int             `json:"points" binding:"omitempty,min=1"`
	Explanation  string          `json:"explanation" binding:"omitempty,max=1000"`
	Difficulty   string          `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	TimeLimitSec int             `json:"time_limit" binding:"omitempty,min=0"`
}

// ToEntity преобразует запрос в сущность вопроса
func (r QuestionRequest) ToEntity() entity.Question {
	options := make(entity.QuestionOptions, len(r.Options))
	for i, o := range r.Options {
		options[i] = entity.QuestionOption{Text: o.Text, IsCorrect: o.IsCorrect}
	}
	return entity.Question{
		Text:         r.Text,
		Type:         r.Type,
		Options:      options,
		Points:       r.Points,
		Explanation:  r.Explanation,
		Difficulty:   r.Difficulty,
		TimeLimitSec: r.TimeLimitSec,
	}
}

// BulkQuestionsRequest - пакетное создание вопросов
type BulkQuestionsRequest struct {
	ContestID *uint             `json:"contest_id"`
	Questions []QuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

// PrizeTierRequest - строка таблицы призов
type PrizeTierRequest struct {
	Rank        int    `json:"rank" binding:"required,min=1"`
	Amount      int64  `json:"amount" binding:"min=0"`
	Description string `json:"description"`
}

// CreateContestRequest - запрос на создание конкурса
type CreateContestRequest struct {
	Title             string             `json:"title" binding:"required,max=200"`
	Description       string             `json:"description" binding:"required"`
	StartTime         time.Time          `json:"start_time" binding:"required"`
	EndTime           time.Time          `json:"end_time" binding:"required"`
	AccessLevel       string             `json:"access_level" binding:"omitempty,oneof=normal vip"`
	DifficultyLevel   string             `json:"difficulty_level" binding:"omitempty,oneof=beginner intermediate advanced"`
	MaxParticipants   int                `json:"max_participants" binding:"omitempty,min=1"`
	Status            string             `json:"status" binding:"omitempty,oneof=draft published"`
	PrizeTitle        string             `json:"prize_title"`
	PrizeDescription  string             `json:"prize_description"`
	PrizeValue        int64              `json:"prize_value" binding:"min=0"`
	PrizeDistribution []PrizeTierRequest `json:"prize_distribution" binding:"dive"`
	Rules             []string           `json:"rules"`
	Questions         []QuestionRequest  `json:"questions" binding:"dive"`
}

// ToEntity преобразует запрос в сущность конкурса
func (r CreateContestRequest) ToEntity() *entity.Contest {
	tiers := make(entity.PrizeTiers, len(r.PrizeDistribution))
	for i, t := range r.PrizeDistribution {
		tiers[i] = entity.PrizeTier{Rank: t.Rank, Amount: t.Amount, Description: t.Description}
	}
	questions := make([]entity.Question, len(r.Questions))
	for i, q := range r.Questions {
		questions[i] = q.ToEntity()
	}
	return &entity.Contest{
		Title:             r.Title,
		Description:       r.Description,
		StartTime:         r.StartTime,
		EndTime:           r.EndTime,
		AccessLevel:       r.AccessLevel,
		DifficultyLevel:   r.DifficultyLevel,
		MaxParticipants:   r.MaxParticipants,
		Status:            r.Status,
		PrizeTitle:        r.PrizeTitle,
		PrizeDescription:  r.PrizeDescription,
		PrizeValue:        r.PrizeValue,
		PrizeDistribution: tiers,
		Rules:             entity.StringArray(r.Rules),
		Questions:         questions,
	}
}

// UpdateStatusRequest - смена статуса конкурса
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AssignQuestionsRequest - привязка вопросов к конкурсу
type AssignQuestionsRequest struct {
	ContestID   uint   `json:"contest_id" binding:"required"`
	QuestionIDs []uint `json:"question_ids" binding:"required,min=1"`
}

// OptionResponse - вариант ответа для клиента. is_correct виден только когда разрешено.
type OptionResponse struct {
	Text      string `json:"text"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

// QuestionResponse - вопрос в ответе API
type QuestionResponse struct {
	ID           uint             `json:"id"`
	ContestID    *uint            `json:"contest_id,omitempty"`
	Text         string           `json:"question_text"`
	Type         string           `json:"question_type"`
	Options      []OptionResponse `json:"options"`
	Points       int              `json:"points"`
	Difficulty   string           `json:"difficulty"`
	TimeLimitSec int              `json:"time_limit"`
	Explanation  string           `json:"explanation,omitempty"`
}

// NewQuestionResponse создает DTO вопроса. Без revealAnswers правильные ответы и пояснение скрыты.
func NewQuestionResponse(q *entity.Question, revealAnswers bool) QuestionResponse {
	options := make([]OptionResponse, len(q.Options))
	for i, opt := range q.Options {
		options[i] = OptionResponse{Text: opt.Text}
		if revealAnswers {
			correct := opt.IsCorrect
			options[i].IsCorrect = &correct
		}
	}
	resp := QuestionResponse{
		ID:           q.ID,
		ContestID:    q.ContestID,
		Text:         q.Text,
		Type:         q.Type,
		Options:      options,
		Points:       q.Points,
		Difficulty:   q.Difficulty,
		TimeLimitSec: q.TimeLimitSec,
	}
	if revealAnswers {
		resp.Explanation = q.Explanation
	}
	return resp
}

// ContestResponse - конкурс в ответе API
type ContestResponse struct {
	ID                  uint               `json:"id"`
	Title               string             `json:"title"`
	Description         string             `json:"description"`
	StartTime           time.Time          `json:"start_time"`
	EndTime             time.Time          `json:"end_time"`
	AccessLevel         string             `json:"access_level"`
	DifficultyLevel     string             `json:"difficulty_level"`
	MaxParticipants     int                `json:"max_participants"`
	Status              string             `json:"status"`
	PrizeTitle          string             `json:"prize_title"`
	PrizeDescription    string             `json:"prize_description"`
	PrizeValue          int64              `json:"prize_value"`
	PrizeDistribution   entity.PrizeTiers  `json:"prize_distribution"`
	Rules               []string           `json:"rules"`
	PrizesDistributedAt *time.Time         `json:"prizes_distributed_at,omitempty"`
	Questions           []QuestionResponse `json:"questions,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
}

// NewContestResponse создает DTO конкурса. Вопросы включаются, если они загружены.
func NewContestResponse(c *entity.Contest, revealAnswers bool) ContestResponse {
	resp := ContestResponse{
		ID:                  c.ID,
		Title:               c.Title,
		Description:         c.Description,
		StartTime:           c.StartTime,
		EndTime:             c.EndTime,
		AccessLevel:         c.AccessLevel,
		DifficultyLevel:     c.DifficultyLevel,
		MaxParticipants:     c.MaxParticipants,
		Status:              c.Status,
		PrizeTitle:          c.PrizeTitle,
		PrizeDescription:    c.PrizeDescription,
		PrizeValue:          c.PrizeValue,
		PrizeDistribution:   c.PrizeDistribution,
		Rules:               c.Rules,
		PrizesDistributedAt: c.PrizesDistributedAt,
		CreatedAt:           c.CreatedAt,
	}
	if resp.PrizeDistribution == nil {
		resp.PrizeDistribution = entity.PrizeTiers{}
	}
	if resp.Rules == nil {
		resp.Rules = []string{}
	}
	if len(c.Questions) > 0 {
		resp.Questions = make([]QuestionResponse, len(c.Questions))
		for i := range c.Questions {
			resp.Questions[i] = NewQuestionResponse(&c.Questions[i], revealAnswers)
		}
	}
	return resp
}

// NewContestListResponse создает список DTO без вопросов
func NewContestListResponse(contests []entity.Contest) []ContestResponse {
	out := make([]ContestResponse, len(contests))
	for i := range contests {
		c := contests[i]
		c.Questions = nil
		out[i] = NewContestResponse(&c, false)
	}
	return out
}
