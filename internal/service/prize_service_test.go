package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
	apperrors "github.com/kpsahani/Contest-Participation-System/internal/pkg/errors"
)

func TestRankStandings_StableOnTies(t *testing.T) {
	standings := []entity.Standing{
		{UserID: 1, Score: 50},
		{UserID: 2, Score: 80},
		{UserID: 3, Score: 80},
		{UserID: 4, Score: 20},
	}

	ranked := RankStandings(standings)

	ids := []uint{ranked[0].UserID, ranked[1].UserID, ranked[2].UserID, ranked[3].UserID}
	assert.Equal(t, []uint{2, 3, 1, 4}, ids, "При равном счёте выше тот, кто стоял раньше")
	assert.Equal(t, uint(1), standings[0].UserID, "Исходный срез не должен меняться")
}

func TestAssignPrizes_StoredOrderAndMissingRanks(t *testing.T) {
	ranked := []entity.Standing{{UserID: 7, Username: "solo", Score: 30}}
	tiers := entity.PrizeTiers{
		{Rank: 3, Amount: 10},
		{Rank: 1, Amount: 100, Description: "gold"},
		{Rank: 2, Amount: 50},
	}

	winners := AssignPrizes(ranked, tiers)

	require.Len(t, winners, 1, "Ранги без участников пропускаются")
	assert.Equal(t, 1, winners[0].Rank)
	assert.Equal(t, uint(7), winners[0].UserID)
	assert.Equal(t, int64(100), winners[0].PrizeAmount)
	assert.Equal(t, "gold", winners[0].PrizeDescription)
}

func TestPrizeService_DistributePrizes_RankMapping(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	f.notifier.On("NotifyWinner", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	tiers := entity.PrizeTiers{{Rank: 1, Amount: 100, Description: "first"}, {Rank: 2, Amount: 50, Description: "second"}}
	c := f.publishedContest(t, entity.AccessLevelNormal, tiers, singleSelect("q", "a", 1, "b"))
	scores := []int{50, 80, 80, 20}
	users := make([]*entity.User, len(scores))
	for i, score := range scores {
		users[i] = f.user(t, []string{"u0", "u1", "u2", "u3"}[i], entity.RoleUser)
		f.join(t, c.ID, users[i].ID)
		f.complete(t, c.ID, users[i].ID, score, baseTime.Add(time.Duration(i)*time.Minute))
	}
	f.clock.Set(c.EndTime.Add(time.Minute))

	// Act
	winners, err := f.prizes.DistributePrizes(ctx, c.ID)

	// Assert
	require.NoError(t, err)
	require.Len(t, winners, 2)
	assert.Equal(t, users[1].ID, winners[0].UserID, "Ранг 1 получает первый из равных по счёту")
	assert.Equal(t, int64(100), winners[0].PrizeAmount)
	assert.Equal(t, users[2].ID, winners[1].UserID)
	assert.Equal(t, "u2", winners[1].Username)

	won, err := f.store.Prizes().ListByUser(ctx, users[1].ID)
	require.NoError(t, err)
	require.Len(t, won, 1)
	assert.Equal(t, "Weekly Go", won[0].ContestTitle)
	assert.True(t, won[0].DateWon.Equal(c.EndTime.Add(time.Minute)))

	stored, err := f.store.Contests().GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ContestStatusCompleted, stored.Status)
	assert.True(t, stored.PrizesDistributed())

	f.drain(t)
	f.notifier.AssertNumberOfCalls(t, "NotifyWinner", 2)
}

func TestPrizeService_DistributePrizes_FewerParticipantsThanRanks(t *testing.T) {
	f := newFixture(t)
	f.notifier.On("NotifyWinner", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	tiers := entity.PrizeTiers{{Rank: 1, Amount: 100}, {Rank: 2, Amount: 50}, {Rank: 3, Amount: 10}}
	c := f.publishedContest(t, entity.AccessLevelNormal, tiers, singleSelect("q", "a", 1, "b"))
	u := f.user(t, "only", entity.RoleUser)
	f.join(t, c.ID, u.ID)
	f.clock.Set(c.EndTime.Add(time.Second))

	winners, err := f.prizes.DistributePrizes(context.Background(), c.ID)

	require.NoError(t, err, "Незанятые ранги не являются ошибкой")
	require.Len(t, winners, 1)
	assert.Equal(t, 1, winners[0].Rank)
}

func TestPrizeService_DistributePrizes_StillRunning(t *testing.T) {
	f := newFixture(t)
	c := f.publishedContest(t, entity.AccessLevelNormal, entity.PrizeTiers{{Rank: 1, Amount: 1}}, singleSelect("q", "a", 1, "b"))

	f.clock.Set(c.EndTime)
	_, err := f.prizes.DistributePrizes(context.Background(), c.ID)
	assert.ErrorIs(t, err, apperrors.ErrContestStillRunning)

	awards, _ := f.store.Prizes().ListByContest(context.Background(), c.ID)
	assert.Empty(t, awards)
}

func TestPrizeService_DistributePrizes_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.prizes.DistributePrizes(context.Background(), 404)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPrizeService_DistributePrizes_OnlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.notifier.On("NotifyWinner", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	c := f.publishedContest(t, entity.AccessLevelNormal, entity.PrizeTiers{{Rank: 1, Amount: 100}}, singleSelect("q", "a", 1, "b"))
	u := f.user(t, "winner", entity.RoleUser)
	f.complete(t, c.ID, u.ID, 10, baseTime)
	f.clock.Set(c.EndTime.Add(time.Hour))

	var wg sync.WaitGroup
	results := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.prizes.DistributePrizes(ctx, c.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, apperrors.ErrPrizesAlreadyDistributed), "Неожиданная ошибка: %v", err)
	}
	assert.Equal(t, 1, succeeded, "Призы должны распределяться ровно один раз")

	won, err := f.store.Prizes().ListByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, won, 1, "Повторный запуск не должен дублировать призы")
}

func TestPrizeService_DistributePrizes_NotificationFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	f.notifier.On("NotifyWinner", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))
	c := f.publishedContest(t, entity.AccessLevelNormal, entity.PrizeTiers{{Rank: 1, Amount: 100}}, singleSelect("q", "a", 1, "b"))
	u := f.user(t, "unlucky", entity.RoleUser)
	f.complete(t, c.ID, u.ID, 10, baseTime)
	f.clock.Set(c.EndTime.Add(time.Hour))

	winners, err := f.prizes.DistributePrizes(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Len(t, winners, 1)

	f.drain(t)
	assert.Equal(t, int64(1), f.runner.Stats().Failed, "Сбой уведомления виден в статистике задач")
	f.notifier.AssertNumberOfCalls(t, "NotifyWinner", 2)
}
