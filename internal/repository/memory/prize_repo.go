package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
	apperrors "github.com/kpsahani/Contest-Participation-System/internal/pkg/errors"
)

// PrizeRepo реализует repository.PrizeRepository в памяти
type PrizeRepo struct {
	s *Store
}

// Distribute помечает конкурс завершённым и сохраняет призы
func (r *PrizeRepo) Distribute(_ context.Context, contestID uint, awards []entity.PrizeAward, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.contests[contestID]
	if !ok {
		return fmt.Errorf("%w: contest #%d", apperrors.ErrNotFound, contestID)
	}
	if c.PrizesDistributedAt != nil {
		return fmt.Errorf("%w: contest #%d", apperrors.ErrPrizesAlreadyDistributed, contestID)
	}

	distributedAt := at
	c.PrizesDistributedAt = &distributedAt
	c.Status = entity.ContestStatusCompleted
	for i := range awards {
		r.s.awardSeq++
		awards[i].ID = r.s.awardSeq
		a := awards[i]
		r.s.awards = append(r.s.awards, &a)
	}
	return nil
}

// ListByUser возвращает призы пользователя, новые первыми
func (r *PrizeRepo) ListByUser(_ context.Context, userID uint) ([]entity.PrizeWonEntry, error) {
	r.s.mu.RLock()
	type row struct {
		id    uint
		entry entity.PrizeWonEntry
	}
	rows := make([]row, 0)
	for _, a := range r.s.awards {
		if a.UserID != userID {
			continue
		}
		var title string
		if c, ok := r.s.contests[a.ContestID]; ok {
			title = c.Title
		}
		rows = append(rows, row{id: a.ID, entry: entity.PrizeWonEntry{
			ContestID:    a.ContestID,
			ContestTitle: title,
			Rank:         a.Rank,
			Amount:       a.Amount,
			Description:  a.Description,
			DateWon:      a.DateWon,
		}})
	}
	r.s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].entry.DateWon.Equal(rows[j].entry.DateWon) {
			return rows[i].entry.DateWon.After(rows[j].entry.DateWon)
		}
		return rows[i].id > rows[j].id
	})
	out := make([]entity.PrizeWonEntry, len(rows))
	for i, rw := range rows {
		out[i] = rw.entry
	}
	return out, nil
}

// ListByContest возвращает призы конкурса по рангам
func (r *PrizeRepo) ListByContest(_ context.Context, contestID uint) ([]entity.PrizeAward, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]entity.PrizeAward, 0)
	for _, a := range r.s.awards {
		if a.ContestID == contestID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out, nil
}
