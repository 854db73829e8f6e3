package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
	"github.com/kpsahani/Contest-Participation-System/internal/repository/memory"
	redisrepo "github.com/kpsahani/Contest-Participation-System/internal/repository/redis"
	"github.com/kpsahani/Contest-Participation-System/internal/service/tasks"
)

// ============================================================================
// Общие заготовки для тестов сервисов
// ============================================================================

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// testClock - управляемые часы
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock { return &testClock{now: t} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// MockNotifier реализует WinnerNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyWinner(ctx context.Context, contest *entity.Contest, winner entity.PrizeWinner) error {
	args := m.Called(contest.ID, winner.UserID, winner.Rank)
	return args.Error(0)
}

// recordingBroadcaster запоминает разосланные лидерборды
type recordingBroadcaster struct {
	mu    sync.Mutex
	calls map[uint][]entity.LeaderboardEntry
}

func (b *recordingBroadcaster) BroadcastLeaderboard(contestID uint, entries []entity.LeaderboardEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.calls == nil {
		b.calls = make(map[uint][]entity.LeaderboardEntry)
	}
	b.calls[contestID] = entries
}

func (b *recordingBroadcaster) last(contestID uint) ([]entity.LeaderboardEntry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries, ok := b.calls[contestID]
	return entries, ok
}

type fixture struct {
	store       *memory.Store
	cache       *redisrepo.CacheRepo
	mr          *miniredis.Miniredis
	clock       *testClock
	runner      *tasks.Runner
	notifier    *MockNotifier
	broadcaster *recordingBroadcaster

	leaderboard *LeaderboardService
	submissions *SubmissionService
	prizes      *PrizeService
	contests    *ContestService
	questions   *QuestionService
	users       *UserService
	closer      *ContestCloser
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache, err := redisrepo.NewCacheRepo(client)
	require.NoError(t, err)

	store := memory.NewStore()
	clock := newTestClock(baseTime)
	runner := tasks.NewRunner(context.Background(), tasks.Config{MaxAttempts: 2, RetryInterval: time.Millisecond, Timeout: time.Second}, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = runner.Shutdown(ctx)
	})
	notifier := &MockNotifier{}
	broadcaster := &recordingBroadcaster{}

	f := &fixture{
		store:       store,
		cache:       cache,
		mr:          mr,
		clock:       clock,
		runner:      runner,
		notifier:    notifier,
		broadcaster: broadcaster,
	}

	f.leaderboard = NewLeaderboardService(store.Participations(), store.Contests(), cache, DefaultLeaderboardTTL, logger)
	f.leaderboard.SetBroadcaster(broadcaster)

	f.submissions = NewSubmissionService(store.Contests(), store.Participations(), f.leaderboard, runner, nil, logger)
	f.submissions.SetClock(clock.Now)

	f.prizes = NewPrizeService(store.Contests(), store.Participations(), store.Prizes(), cache, notifier, runner, nil, logger)
	f.prizes.SetClock(clock.Now)

	f.contests = NewContestService(store.Contests(), store.Questions(), store.Participations(), cache, runner, nil, DefaultContestListTTL, logger)
	f.contests.SetClock(clock.Now)

	f.questions = NewQuestionService(store.Questions(), store.Contests(), logger)
	f.users = NewUserService(store.Users(), store.Participations(), store.Prizes(), logger)

	f.closer = NewContestCloser(store.Contests(), f.prizes, f.leaderboard, logger)
	f.closer.SetClock(clock.Now)
	return f
}

// drain дожидается всех фоновых задач
func (f *fixture) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.runner.Shutdown(ctx))
}

func (f *fixture) user(t *testing.T, name, role string) *entity.User {
	t.Helper()
	u := &entity.User{Username: name, Email: name + "@example.com", Password: "secret123", Role: role}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

func singleSelect(text, correct string, points int, wrong ...string) entity.Question {
	opts := entity.QuestionOptions{{Text: correct, IsCorrect: true}}
	for _, w := range wrong {
		opts = append(opts, entity.QuestionOption{Text: w})
	}
	return entity.Question{Text: text, Type: entity.QuestionTypeSingleSelect, Options: opts, Points: points}
}

func multiSelect(text string, points int, correct []string, wrong ...string) entity.Question {
	opts := entity.QuestionOptions{}
	for _, c := range correct {
		opts = append(opts, entity.QuestionOption{Text: c, IsCorrect: true})
	}
	for _, w := range wrong {
		opts = append(opts, entity.QuestionOption{Text: w})
	}
	return entity.Question{Text: text, Type: entity.QuestionTypeMultiSelect, Options: opts, Points: points}
}

// publishedContest создает идущий конкурс: начался час назад, закончится через час
func (f *fixture) publishedContest(t *testing.T, access string, tiers entity.PrizeTiers, questions ...entity.Question) *entity.Contest {
	t.Helper()
	c := &entity.Contest{
		Title:             "Weekly Go",
		Description:       "Weekly Go quiz",
		StartTime:         baseTime.Add(-time.Hour),
		EndTime:           baseTime.Add(time.Hour),
		AccessLevel:       access,
		Status:            entity.ContestStatusPublished,
		PrizeDistribution: tiers,
		Questions:         questions,
	}
	c.ApplyDefaults()
	require.NoError(t, f.store.Contests().Create(context.Background(), c))
	return c
}

func (f *fixture) join(t *testing.T, contestID, userID uint) {
	t.Helper()
	require.NoError(t, f.store.Participations().Join(context.Background(), &entity.Participation{
		ContestID: contestID,
		UserID:    userID,
		JoinedAt:  f.clock.Now(),
	}))
}

// complete записывает завершённое участие с заданным счётом
func (f *fixture) complete(t *testing.T, contestID, userID uint, score int, at time.Time) {
	t.Helper()
	require.NoError(t, f.store.Participations().CompleteSubmission(context.Background(), &entity.Participation{
		ContestID:   contestID,
		UserID:      userID,
		JoinedAt:    at,
		Score:       score,
		SubmittedAt: &at,
	}))
}
