package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
	"github.com/kpsahani/Contest-Participation-System/internal/domain/repository"
	apperrors "github.com/kpsahani/Contest-Participation-System/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository в памяти
type QuestionRepo struct {
	s *Store
}

func (r *QuestionRepo) insertLocked(q *entity.Question) {
	r.s.questionSeq++
	q.ID = r.s.questionSeq
	now := time.Now()
	q.CreatedAt, q.UpdatedAt = now, now
	cp := copyQuestion(q)
	r.s.questions[q.ID] = &cp
}

// Create сохраняет вопрос
func (r *QuestionRepo) Create(_ context.Context, question *entity.Question) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.insertLocked(question)
	return nil
}

// CreateBatch сохраняет пакет вопросов
func (r *QuestionRepo) CreateBatch(_ context.Context, questions []entity.Question) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range questions {
		r.insertLocked(&questions[i])
	}
	return nil
}

// GetByID возвращает вопрос по ID
func (r *QuestionRepo) GetByID(_ context.Context, id uint) (*entity.Question, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	q, ok := r.s.questions[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := copyQuestion(q)
	return &cp, nil
}

// ListByContest возвращает вопросы конкурса в порядке ID
func (r *QuestionRepo) ListByContest(_ context.Context, contestID uint) ([]entity.Question, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]entity.Question, 0)
	for _, q := range r.s.questions {
		if q.BelongsTo(contestID) {
			out = append(out, copyQuestion(q))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Update сохраняет изменения вопроса, не трогая привязку к конкурсу
func (r *QuestionRepo) Update(_ context.Context, question *entity.Question) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.questions[question.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	cp := copyQuestion(question)
	cp.ContestID = existing.ContestID
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = time.Now()
	r.s.questions[question.ID] = &cp
	return nil
}

// Delete удаляет вопрос
func (r *QuestionRepo) Delete(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.questions[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.s.questions, id)
	return nil
}

// AssignToContest привязывает свободные вопросы к конкурсу
func (r *QuestionRepo) AssignToContest(_ context.Context, contestID uint, questionIDs []uint) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, id := range questionIDs {
		q, ok := r.s.questions[id]
		if !ok {
			return 0, fmt.Errorf("%w: question #%d", apperrors.ErrNotFound, id)
		}
		if q.ContestID != nil && *q.ContestID != contestID {
			return 0, fmt.Errorf("%w: question #%d", repository.ErrQuestionAssigned, id)
		}
	}

	var assigned int64
	for _, id := range questionIDs {
		q := r.s.questions[id]
		if q.ContestID == nil {
			cid := contestID
			q.ContestID = &cid
			assigned++
		}
	}
	return assigned, nil
}
