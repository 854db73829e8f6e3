package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
	apperrors "github.com/kpsahani/Contest-Participation-System/internal/pkg/errors"
)

func TestQuestionService_CreateQuestion_Defaults(t *testing.T) {
	f := newFixture(t)
	q := &entity.Question{
		Text:    "Is Go compiled?",
		Type:    entity.QuestionTypeTrueFalse,
		Options: entity.QuestionOptions{{Text: "True", IsCorrect: true}, {Text: "False"}},
	}

	require.NoError(t, f.questions.CreateQuestion(context.Background(), q))

	assert.NotZero(t, q.ID)
	assert.Equal(t, 1, q.Points, "Баллы по умолчанию - 1")
	assert.Equal(t, entity.DifficultyMedium, q.Difficulty)
	assert.Equal(t, []string{"true"}, q.CorrectTexts(), "Варианты true-false хранятся в нижнем регистре")
}

func TestQuestionService_CreateQuestion_Invalid(t *testing.T) {
	f := newFixture(t)
	q := &entity.Question{
		Text:    "Pick one",
		Type:    entity.QuestionTypeSingleSelect,
		Options: entity.QuestionOptions{{Text: "a", IsCorrect: true}, {Text: "b", IsCorrect: true}},
	}

	err := f.questions.CreateQuestion(context.Background(), q)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestQuestionService_PublishedContestIsLocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.publishedContest(t, entity.AccessLevelNormal, nil, singleSelect("q", "a", 1, "b"))
	existing := c.Questions[0]

	newQ := singleSelect("late", "a", 1, "b")
	newQ.ContestID = &c.ID
	assert.ErrorIs(t, f.questions.CreateQuestion(ctx, &newQ), apperrors.ErrConflict)

	update := singleSelect("changed", "a", 1, "b")
	_, err := f.questions.UpdateQuestion(ctx, existing.ID, &update)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	assert.ErrorIs(t, f.questions.DeleteQuestion(ctx, existing.ID), apperrors.ErrConflict)
}

func TestQuestionService_UpdateAndDeleteUnassigned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := singleSelect("old", "a", 1, "b")
	require.NoError(t, f.questions.CreateQuestion(ctx, &q))

	update := multiSelect("new", 3, []string{"x", "y"}, "z")
	updated, err := f.questions.UpdateQuestion(ctx, q.ID, &update)
	require.NoError(t, err)
	assert.Equal(t, q.ID, updated.ID)

	stored, err := f.questions.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", stored.Text)
	assert.Equal(t, entity.QuestionTypeMultiSelect, stored.Type)

	require.NoError(t, f.questions.DeleteQuestion(ctx, q.ID))
	_, err = f.questions.GetQuestion(ctx, q.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestQuestionService_BulkCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	batch := []entity.Question{singleSelect("a", "1", 1, "2"), singleSelect("b", "1", 1, "2")}
	require.NoError(t, f.questions.BulkCreate(ctx, batch))
	assert.NotZero(t, batch[0].ID)
	assert.NotZero(t, batch[1].ID)

	bad := []entity.Question{singleSelect("ok", "1", 1, "2"), {Text: "broken", Type: "essay"}}
	assert.ErrorIs(t, f.questions.BulkCreate(ctx, bad), apperrors.ErrValidation, "Один невалидный вопрос отклоняет пакет")

	assert.ErrorIs(t, f.questions.BulkCreate(ctx, nil), apperrors.ErrValidation)
}
