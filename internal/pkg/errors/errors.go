package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда конкурс, вопрос или пользователь не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, неверный пароль).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния (дубликаты email/username и т.п.).
	ErrConflict = errors.New("resource state conflict")
)

// Ошибки жизненного цикла конкурса
var (
	// ErrContestClosed возвращается при отправке ответов после окончания конкурса.
	ErrContestClosed = errors.New("contest has ended")

	// ErrContestStillRunning возвращается при попытке распределить призы до окончания конкурса.
	ErrContestStillRunning = errors.New("contest is still running")

	// ErrAlreadySubmitted возвращается при повторной отправке ответов участником.
	ErrAlreadySubmitted = errors.New("answers already submitted")

	// ErrAlreadyJoined возвращается при повторном вступлении в конкурс.
	ErrAlreadyJoined = errors.New("already joined")

	// ErrPrizesAlreadyDistributed возвращается, если призы по конкурсу уже были распределены.
	ErrPrizesAlreadyDistributed = errors.New("prizes already distributed")

	// ErrInvalidStatusTransition возвращается при попытке перевести конкурс в предыдущий статус.
	ErrInvalidStatusTransition = errors.New("invalid contest status transition")

	// ErrConfiguration сигнализирует о некорректной конфигурации вопроса, дошедшей до оценки.
	ErrConfiguration = errors.New("invalid question configuration")
)
