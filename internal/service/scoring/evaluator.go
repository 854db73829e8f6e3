// Package scoring оценивает ответы участников. Все функции чистые.
package scoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
	apperrors "github.com/kpsahani/Contest-Participation-System/internal/pkg/errors"
)

// Evaluation - результат оценки ответа на один вопрос
type Evaluation struct {
	IsCorrect bool
	Points    int
}

// Evaluate оценивает выбранные варианты ответа на вопрос.
// Неизвестный тип вопроса даёт apperrors.ErrConfiguration.
func Evaluate(q *entity.Question, selections []string) (Evaluation, error) {
	correct := q.CorrectTexts()

	var ok bool
	switch q.Type {
	case entity.QuestionTypeSingleSelect:
		ok = len(selections) == 1 && contains(correct, selections[0])
	case entity.QuestionTypeTrueFalse:
		// булево из JSON приходит как "true"/"false", вариант мог быть сохранён как "True"
		ok = len(selections) == 1 && len(correct) == 1 &&
			strings.EqualFold(strings.TrimSpace(selections[0]), strings.TrimSpace(correct[0]))
	case entity.QuestionTypeMultiSelect:
		ok = sameSelection(correct, selections)
	default:
		return Evaluation{}, fmt.Errorf("%w: question #%d has unknown type %q", apperrors.ErrConfiguration, q.ID, q.Type)
	}

	if !ok {
		return Evaluation{IsCorrect: false, Points: 0}, nil
	}
	return Evaluation{IsCorrect: true, Points: q.Points}, nil
}

// sameSelection: одинаковое количество и взаимное вхождение, порядок не важен
func sameSelection(correct, submitted []string) bool {
	if len(correct) == 0 || len(correct) != len(submitted) {
		return false
	}
	for _, c := range correct {
		if !contains(submitted, c) {
			return false
		}
	}
	for _, s := range submitted {
		if !contains(correct, s) {
			return false
		}
	}
	return true
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// NormalizeSelection приводит selectedAnswer (скаляр или массив) к списку строк.
// null и пустое значение - ошибка валидации.
func NormalizeSelection(raw json.RawMessage) ([]string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%w: selected answer is required", apperrors.ErrValidation)
	}

	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: malformed selected answer: %v", apperrors.ErrValidation, err)
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, err := scalarText(item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	}

	s, err := scalarText(trimmed)
	if err != nil {
		return nil, err
	}
	return []string{s}, nil
}

func scalarText(raw json.RawMessage) (string, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("%w: malformed selected answer: %v", apperrors.ErrValidation, err)
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("%w: selected answer must be a string or a list of strings", apperrors.ErrValidation)
	}
}

// Scorecard - итог оценки всей отправки
type Scorecard struct {
	Total   int
	Answers entity.SubmittedAnswers
}

// ScoreSubmission оценивает ответы по вопросам конкурса.
// Ответы на вопросы не из конкурса пропускаются; на каждый вопрос засчитывается только первый ответ.
func ScoreSubmission(questions []entity.Question, answers []entity.AnswerInput, at time.Time) (Scorecard, error) {
	byID := make(map[uint]*entity.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	card := Scorecard{Answers: make(entity.SubmittedAnswers, 0, len(answers))}
	seen := make(map[uint]struct{}, len(answers))
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			continue
		}
		if _, dup := seen[a.QuestionID]; dup {
			continue
		}
		seen[a.QuestionID] = struct{}{}

		ev, err := Evaluate(q, a.Selections)
		if err != nil {
			return Scorecard{}, err
		}
		selections := make([]string, len(a.Selections))
		copy(selections, a.Selections)

		card.Total += ev.Points
		card.Answers = append(card.Answers, entity.SubmittedAnswer{
			QuestionID:  q.ID,
			Answers:     selections,
			IsCorrect:   ev.IsCorrect,
			Points:      ev.Points,
			SubmittedAt: at,
		})
	}
	return card, nil
}
