package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validContest() *Contest {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	c := &Contest{
		Title:       "Go Weekly",
		Description: "Weekly quiz",
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
		PrizeDistribution: PrizeTiers{
			{Rank: 1, Amount: 100},
			{Rank: 2, Amount: 50},
		},
	}
	c.ApplyDefaults()
	return c
}

func TestContest_ApplyDefaults(t *testing.T) {
	c := &Contest{}
	c.ApplyDefaults()

	assert.Equal(t, AccessLevelNormal, c.AccessLevel)
	assert.Equal(t, ContestDifficultyIntermediate, c.DifficultyLevel)
	assert.Equal(t, ContestStatusDraft, c.Status)
	assert.Equal(t, DefaultMaxParticipants, c.MaxParticipants)
	assert.NotNil(t, c.PrizeDistribution)
	assert.NotNil(t, c.Rules)
}

func TestContest_Validate(t *testing.T) {
	assert.NoError(t, validContest().Validate())

	c := validContest()
	c.EndTime = c.StartTime
	assert.Error(t, c.Validate(), "Конец должен быть позже начала")

	c = validContest()
	c.AccessLevel = "gold"
	assert.Error(t, c.Validate())

	c = validContest()
	c.PrizeDistribution = append(c.PrizeDistribution, PrizeTier{Rank: 1, Amount: 10})
	assert.Error(t, c.Validate(), "Ранги призов уникальны")

	c = validContest()
	c.PrizeDistribution = PrizeTiers{{Rank: 0, Amount: 10}}
	assert.Error(t, c.Validate())

	c = validContest()
	c.PrizeDistribution = PrizeTiers{{Rank: 1, Amount: -1}}
	assert.Error(t, c.Validate())
}

func TestContest_HasEndedIsStrict(t *testing.T) {
	c := validContest()

	assert.False(t, c.HasEnded(c.EndTime), "В момент EndTime конкурс ещё идёт")
	assert.True(t, c.HasEnded(c.EndTime.Add(time.Nanosecond)))
	assert.True(t, c.IsRunning(c.StartTime))
	assert.False(t, c.IsRunning(c.StartTime.Add(-time.Second)))
}

func TestContest_StatusTransitions(t *testing.T) {
	c := validContest()

	assert.True(t, c.CanTransitionTo(ContestStatusPublished))
	assert.True(t, c.CanTransitionTo(ContestStatusCompleted))
	assert.False(t, c.CanTransitionTo(ContestStatusDraft))
	assert.False(t, c.CanTransitionTo("archived"))

	c.Status = ContestStatusCompleted
	assert.False(t, c.CanTransitionTo(ContestStatusPublished), "Назад нельзя")
}

func TestContest_AllowsRole(t *testing.T) {
	c := validContest()
	assert.True(t, c.AllowsRole(RoleGuest))

	c.AccessLevel = AccessLevelVIP
	assert.False(t, c.AllowsRole(RoleUser))
	assert.False(t, c.AllowsRole(RoleGuest))
	assert.True(t, c.AllowsRole(RoleVIP))
	assert.True(t, c.AllowsRole(RoleAdmin))
}
