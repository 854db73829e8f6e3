// Package memory хранит данные в памяти процесса. Используется в тестах и для локального запуска без Postgres.
package memory

import (
	"sync"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
)

// Store - общее хранилище для всех репозиториев пакета.
// Один мьютекс делает составные операции (отправка ответов + очки) атомарными.
type Store struct {
	mu sync.RWMutex

	users          map[uint]*entity.User
	contests       map[uint]*entity.Contest
	questions      map[uint]*entity.Question
	participations []*entity.Participation
	awards         []*entity.PrizeAward

	userSeq, contestSeq, questionSeq, participationSeq, awardSeq uint
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{
		users:     make(map[uint]*entity.User),
		contests:  make(map[uint]*entity.Contest),
		questions: make(map[uint]*entity.Question),
	}
}

// Users возвращает репозиторий пользователей
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// Contests возвращает репозиторий конкурсов
func (s *Store) Contests() *ContestRepo { return &ContestRepo{s: s} }

// Questions возвращает репозиторий вопросов
func (s *Store) Questions() *QuestionRepo { return &QuestionRepo{s: s} }

// Participations возвращает репозиторий участий
func (s *Store) Participations() *ParticipationRepo { return &ParticipationRepo{s: s} }

// Prizes возвращает репозиторий призов
func (s *Store) Prizes() *PrizeRepo { return &PrizeRepo{s: s} }

func (s *Store) findParticipation(contestID, userID uint) *entity.Participation {
	for _, p := range s.participations {
		if p.ContestID == contestID && p.UserID == userID {
			return p
		}
	}
	return nil
}

func copyContest(c *entity.Contest) *entity.Contest {
	cp := *c
	cp.PrizeDistribution = append(entity.PrizeTiers{}, c.PrizeDistribution...)
	cp.Rules = append(entity.StringArray{}, c.Rules...)
	cp.Questions = nil
	if c.PrizesDistributedAt != nil {
		t := *c.PrizesDistributedAt
		cp.PrizesDistributedAt = &t
	}
	return &cp
}

func copyQuestion(q *entity.Question) entity.Question {
	cp := *q
	cp.Options = append(entity.QuestionOptions{}, q.Options...)
	if q.ContestID != nil {
		id := *q.ContestID
		cp.ContestID = &id
	}
	return cp
}

func copyParticipation(p *entity.Participation) *entity.Participation {
	cp := *p
	cp.SubmittedAnswers = append(entity.SubmittedAnswers{}, p.SubmittedAnswers...)
	if p.SubmittedAt != nil {
		t := *p.SubmittedAt
		cp.SubmittedAt = &t
	}
	return &cp
}
