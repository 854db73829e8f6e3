package dto

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
	"github.com/kpsahani/Contest-Participation-System/internal/service/scoring"
)

// AnswerRequest - ответ на один вопрос. selectedAnswer - строка или массив строк.
type AnswerRequest struct {
	QuestionID     uint            `json:"questionId"`
	SelectedAnswer json.RawMessage `json:"selectedAnswer"`
}

// SubmitRequest - тело отправки ответов
type SubmitRequest struct {
	Answers []AnswerRequest `json:"answers"`
}

// ErrMalformedAnswer - ответ без questionId или selectedAnswer
var ErrMalformedAnswer = errors.New("each answer must have a valid questionId and selectedAnswer")

// ToInputs проверяет форму ответов и нормализует выбор
func (r SubmitRequest) ToInputs() ([]entity.AnswerInput, error) {
	if r.Answers == nil {
		return nil, errors.New("answers must be an array")
	}
	inputs := make([]entity.AnswerInput, 0, len(r.Answers))
	for i, a := range r.Answers {
		if a.QuestionID == 0 {
			return nil, fmt.Errorf("answer %d: %w", i+1, ErrMalformedAnswer)
		}
		selections, err := scoring.NormalizeSelection(a.SelectedAnswer)
		if err != nil {
			return nil, fmt.Errorf("answer %d: %w: %v", i+1, ErrMalformedAnswer, err)
		}
		inputs = append(inputs, entity.AnswerInput{QuestionID: a.QuestionID, Selections: selections})
	}
	return inputs, nil
}

// SubmitResponse - результат отправки
type SubmitResponse struct {
	Message string `json:"message"`
	Score   int    `json:"score"`
}
