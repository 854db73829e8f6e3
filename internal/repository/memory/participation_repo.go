package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
	apperrors "github.com/kpsahani/Contest-Participation-System/internal/pkg/errors"
)

// ParticipationRepo реализует repository.ParticipationRepository в памяти
type ParticipationRepo struct {
	s *Store
}

// Join создает запись участия
func (r *ParticipationRepo) Join(_ context.Context, participation *entity.Participation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.findParticipation(participation.ContestID, participation.UserID) != nil {
		return fmt.Errorf("%w: contest #%d", apperrors.ErrAlreadyJoined, participation.ContestID)
	}
	if participation.SubmittedAnswers == nil {
		participation.SubmittedAnswers = entity.SubmittedAnswers{}
	}
	r.s.participationSeq++
	participation.ID = r.s.participationSeq
	r.s.participations = append(r.s.participations, copyParticipation(participation))
	return nil
}

// Get возвращает участие пользователя в конкурсе
func (r *ParticipationRepo) Get(_ context.Context, contestID, userID uint) (*entity.Participation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p := r.s.findParticipation(contestID, userID)
	if p == nil {
		return nil, apperrors.ErrNotFound
	}
	return copyParticipation(p), nil
}

// CountByContest возвращает количество участников конкурса
func (r *ParticipationRepo) CountByContest(_ context.Context, contestID uint) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, p := range r.s.participations {
		if p.ContestID == contestID {
			n++
		}
	}
	return n, nil
}

// CompleteSubmission завершает участие и начисляет очки пользователю под одной блокировкой
func (r *ParticipationRepo) CompleteSubmission(_ context.Context, p *entity.Participation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[p.UserID]
	if !ok {
		return fmt.Errorf("%w: user #%d", apperrors.ErrNotFound, p.UserID)
	}

	existing := r.s.findParticipation(p.ContestID, p.UserID)
	switch {
	case existing == nil:
		r.s.participationSeq++
		p.ID = r.s.participationSeq
		created := copyParticipation(p)
		created.Completed = true
		r.s.participations = append(r.s.participations, created)
	case existing.Completed:
		return fmt.Errorf("%w: contest #%d user #%d", apperrors.ErrAlreadySubmitted, p.ContestID, p.UserID)
	default:
		p.ID = existing.ID
		p.JoinedAt = existing.JoinedAt
		updated := copyParticipation(p)
		updated.Completed = true
		*existing = *updated
	}

	p.Completed = true
	user.Points += int64(p.Score)
	return nil
}

func (r *ParticipationRepo) standingLocked(p *entity.Participation) entity.Standing {
	st := entity.Standing{
		ParticipationID: p.ID,
		ContestID:       p.ContestID,
		UserID:          p.UserID,
		Score:           p.Score,
		Completed:       p.Completed,
		JoinedAt:        p.JoinedAt,
	}
	if p.SubmittedAt != nil {
		t := *p.SubmittedAt
		st.SubmittedAt = &t
	}
	if u, ok := r.s.users[p.UserID]; ok {
		st.Username = u.Username
		st.Email = u.Email
	}
	return st
}

// ListStandings возвращает участников конкурса в порядке вступления
func (r *ParticipationRepo) ListStandings(_ context.Context, contestID uint) ([]entity.Standing, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]entity.Standing, 0)
	for _, p := range r.s.participations {
		if p.ContestID == contestID {
			out = append(out, r.standingLocked(p))
		}
	}
	return out, nil
}

// ListSubmittedStandings возвращает отправивших ответы участников в порядке отправки
func (r *ParticipationRepo) ListSubmittedStandings(_ context.Context) ([]entity.Standing, error) {
	r.s.mu.RLock()
	out := make([]entity.Standing, 0)
	for _, p := range r.s.participations {
		if p.Completed {
			out = append(out, r.standingLocked(p))
		}
	}
	r.s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].SubmittedAt, out[j].SubmittedAt
		if a != nil && b != nil && !a.Equal(*b) {
			return a.Before(*b)
		}
		return out[i].ParticipationID < out[j].ParticipationID
	})
	return out, nil
}

// ListHistoryByUser возвращает историю участия пользователя, новые конкурсы первыми
func (r *ParticipationRepo) ListHistoryByUser(_ context.Context, userID uint) ([]entity.ContestHistoryEntry, error) {
	r.s.mu.RLock()
	out := make([]entity.ContestHistoryEntry, 0)
	for _, p := range r.s.participations {
		if p.UserID != userID {
			continue
		}
		c, ok := r.s.contests[p.ContestID]
		if !ok {
			continue
		}
		entry := entity.ContestHistoryEntry{
			ContestID: c.ID,
			Title:     c.Title,
			StartTime: c.StartTime,
			EndTime:   c.EndTime,
			Score:     p.Score,
			Completed: p.Completed,
		}
		if p.SubmittedAt != nil {
			t := *p.SubmittedAt
			entry.SubmittedAt = &t
		}
		out = append(out, entry)
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.After(out[j].StartTime)
		}
		return out[i].ContestID > out[j].ContestID
	})
	return out, nil
}
