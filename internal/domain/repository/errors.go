package repository

import "errors"

var (
	// ErrContestStatusChanged означает, что статус конкурса изменился между чтением и обновлением.
	ErrContestStatusChanged = errors.New("contest status changed concurrently")
	// ErrQuestionAssigned означает, что вопрос уже привязан к другому конкурсу.
	ErrQuestionAssigned = errors.New("question is assigned to another contest")
)
