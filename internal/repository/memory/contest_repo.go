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

// ContestRepo реализует repository.ContestRepository в памяти
type ContestRepo struct {
	s *Store
}

// Create сохраняет конкурс и его вложенные вопросы
func (r *ContestRepo) Create(_ context.Context, contest *entity.Contest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.contestSeq++
	contest.ID = r.s.contestSeq
	now := time.Now()
	contest.CreatedAt, contest.UpdatedAt = now, now

	for i := range contest.Questions {
		r.s.questionSeq++
		q := &contest.Questions[i]
		q.ID = r.s.questionSeq
		id := contest.ID
		q.ContestID = &id
		q.CreatedAt, q.UpdatedAt = now, now
		cp := copyQuestion(q)
		r.s.questions[q.ID] = &cp
	}
	r.s.contests[contest.ID] = copyContest(contest)
	return nil
}

// GetByID возвращает конкурс по ID
func (r *ContestRepo) GetByID(_ context.Context, id uint) (*entity.Contest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.contests[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return copyContest(c), nil
}

// GetWithQuestions возвращает конкурс с вопросами в порядке ID
func (r *ContestRepo) GetWithQuestions(_ context.Context, id uint) (*entity.Contest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.contests[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	out := copyContest(c)
	for _, q := range r.s.questions {
		if q.BelongsTo(id) {
			out.Questions = append(out.Questions, copyQuestion(q))
		}
	}
	sort.Slice(out.Questions, func(i, j int) bool { return out.Questions[i].ID < out.Questions[j].ID })
	return out, nil
}

// List возвращает конкурсы по фильтру, новые первыми
func (r *ContestRepo) List(_ context.Context, filter repository.ContestFilter) ([]entity.Contest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]entity.Contest, 0, len(r.s.contests))
	for _, c := range r.s.contests {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.AccessLevel != "" && c.AccessLevel != filter.AccessLevel {
			continue
		}
		if filter.ActiveAt != nil && !c.IsRunning(*filter.ActiveAt) {
			continue
		}
		out = append(out, *copyContest(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.After(out[j].StartTime)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// ListEndedUndistributed возвращает завершившиеся конкурсы без призов
func (r *ContestRepo) ListEndedUndistributed(_ context.Context, now time.Time) ([]entity.Contest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []entity.Contest
	for _, c := range r.s.contests {
		if c.HasEnded(now) && !c.PrizesDistributed() {
			out = append(out, *copyContest(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EndTime.Equal(out[j].EndTime) {
			return out[i].EndTime.Before(out[j].EndTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// UpdateStatus атомарно переводит статус from -> to
func (r *ContestRepo) UpdateStatus(_ context.Context, id uint, from, to string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contests[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if c.Status != from {
		return fmt.Errorf("%w: contest #%d", repository.ErrContestStatusChanged, id)
	}
	c.Status = to
	c.UpdatedAt = time.Now()
	return nil
}
