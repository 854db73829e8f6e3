package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
	"github.com/kpsahani/Contest-Participation-System/internal/middleware"
	apperrors "github.com/kpsahani/Contest-Participation-System/internal/pkg/errors"
	"github.com/kpsahani/Contest-Participation-System/internal/pkg/metrics"
	"github.com/kpsahani/Contest-Participation-System/internal/repository/memory"
	"github.com/kpsahani/Contest-Participation-System/internal/service"
	"github.com/kpsahani/Contest-Participation-System/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	router *gin.Engine
	store  *memory.Store
	jwt    *auth.JWTService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	return newTestAPIWithConfig(t, RouterConfig{})
}

func newTestAPIWithConfig(t *testing.T, cfg RouterConfig) *testAPI {
	t.Helper()
	logger := zap.NewNop()
	store := memory.NewStore()

	jwtService, err := auth.NewJWTService("handler-secret", 1)
	require.NoError(t, err)

	leaderboard := service.NewLeaderboardService(store.Participations(), store.Contests(), nil, 0, logger)
	contests := service.NewContestService(store.Contests(), store.Questions(), store.Participations(), nil, nil, nil, 0, logger)
	handlers := Handlers{
		Auth: NewAuthHandler(service.NewAuthService(store.Users(), jwtService, logger), logger),
		Contest: NewContestHandler(
			contests,
			service.NewSubmissionService(store.Contests(), store.Participations(), leaderboard, nil, nil, logger),
			service.NewPrizeService(store.Contests(), store.Participations(), store.Prizes(), nil, nil, nil, nil, logger),
			logger,
		),
		Question:    NewQuestionHandler(service.NewQuestionService(store.Questions(), store.Contests(), logger), logger),
		User:        NewUserHandler(service.NewUserService(store.Users(), store.Participations(), store.Prizes(), logger), logger),
		Leaderboard: NewLeaderboardHandler(leaderboard, contests, nil, logger),
	}

	router := NewRouter(cfg, handlers, middleware.NewAuthMiddleware(jwtService, logger), nil, logger)
	return &testAPI{router: router, store: store, jwt: jwtService}
}

func (a *testAPI) user(t *testing.T, name, role string) (*entity.User, string) {
	t.Helper()
	u := &entity.User{Username: name, Email: name + "@example.com", Password: "secret123", Role: role}
	require.NoError(t, a.store.Users().Create(context.Background(), u))
	token, err := a.jwt.GenerateToken(u)
	require.NoError(t, err)
	return u, token
}

func (a *testAPI) contest(t *testing.T, access string, start, end time.Time) *entity.Contest {
	t.Helper()
	c := &entity.Contest{
		Title:       "Go basics",
		Description: "Warm-up",
		StartTime:   start,
		EndTime:     end,
		AccessLevel: access,
		Status:      entity.ContestStatusPublished,
		PrizeDistribution: entity.PrizeTiers{
			{Rank: 1, Amount: 100, Description: "Gold"},
		},
		Questions: []entity.Question{{
			Text:   "Capital of France?",
			Type:   entity.QuestionTypeSingleSelect,
			Points: 10,
			Options: entity.QuestionOptions{
				{Text: "Paris", IsCorrect: true},
				{Text: "Rome"},
			},
		}},
	}
	c.ApplyDefaults()
	require.NoError(t, a.store.Contests().Create(context.Background(), c))
	return c
}

func (a *testAPI) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "newbie", "email": "Newbie@Example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "newbie2", "email": "newbie@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, w.Code, "Повторный email")

	w = api.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "newbie@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "newbie@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
		User  struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.Equal(t, entity.RoleUser, login.User.Role)

	w = api.do(http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"newbie"`)
}

func TestJoinSubmitAndLeaderboard(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.user(t, "alice", entity.RoleUser)
	now := time.Now()
	c := api.contest(t, entity.AccessLevelNormal, now.Add(-time.Hour), now.Add(time.Hour))
	questionID := c.Questions[0].ID
	base := fmt.Sprintf("/api/contests/%d", c.ID)

	w := api.do(http.MethodPost, base+"/join", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(http.MethodPost, base+"/join", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code, "Повторное вступление")

	body := fmt.Sprintf(`{"answers":[{"questionId":%d,"selectedAnswer":"Paris"}]}`, questionID)
	w = api.do(http.MethodPost, base+"/submit", token, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"message":"Answers submitted successfully","score":10}`, w.Body.String())

	w = api.do(http.MethodPost, base+"/submit", token, body)
	assert.Equal(t, http.StatusConflict, w.Code, "Повторная отправка")

	w = api.do(http.MethodGet, base+"/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var board []entity.LeaderboardEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &board))
	require.Len(t, board, 1)
	assert.Equal(t, "alice", board[0].Username)
	assert.Equal(t, 1, board[0].Rank)

	w = api.do(http.MethodGet, "/api/contests/all/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
}

func TestSubmit_MalformedAnswers(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.user(t, "bob", entity.RoleUser)
	now := time.Now()
	c := api.contest(t, entity.AccessLevelNormal, now.Add(-time.Hour), now.Add(time.Hour))
	path := fmt.Sprintf("/api/contests/%d/submit", c.ID)

	for name, body := range map[string]string{
		"нет answers":         `{}`,
		"нет questionId":      `{"answers":[{"selectedAnswer":"Paris"}]}`,
		"null selectedAnswer": `{"answers":[{"questionId":1,"selectedAnswer":null}]}`,
		"объект вместо ответа": `{"answers":[{"questionId":1,"selectedAnswer":{"a":1}}]}`,
		"битый JSON":          `{"answers":[`,
	} {
		w := api.do(http.MethodPost, path, token, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}
}

func TestSubmit_AfterEndIsConflict(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.user(t, "late", entity.RoleUser)
	now := time.Now()
	c := api.contest(t, entity.AccessLevelNormal, now.Add(-2*time.Hour), now.Add(-time.Minute))

	body := fmt.Sprintf(`{"answers":[{"questionId":%d,"selectedAnswer":["Paris"]}]}`, c.Questions[0].ID)
	w := api.do(http.MethodPost, fmt.Sprintf("/api/contests/%d/submit", c.ID), token, body)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSubmit_BrokenQuestionTypeIsConfigurationError(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.user(t, "essayist", entity.RoleUser)
	now := time.Now()
	c := &entity.Contest{
		Title:       "Broken",
		Description: "Question type slipped past validation",
		StartTime:   now.Add(-time.Hour),
		EndTime:     now.Add(time.Hour),
		Status:      entity.ContestStatusPublished,
		Questions: []entity.Question{{
			Text:    "Describe Go",
			Type:    "essay",
			Points:  5,
			Options: entity.QuestionOptions{{Text: "a", IsCorrect: true}, {Text: "b"}},
		}},
	}
	c.ApplyDefaults()
	require.NoError(t, api.store.Contests().Create(context.Background(), c))

	body := fmt.Sprintf(`{"answers":[{"questionId":%d,"selectedAnswer":"a"}]}`, c.Questions[0].ID)
	w := api.do(http.MethodPost, fmt.Sprintf("/api/contests/%d/submit", c.ID), token, body)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "configuration_error")
}

func TestSubmit_BooleanAnswerScoresTrueFalse(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.user(t, "boole", entity.RoleUser)
	now := time.Now()
	c := &entity.Contest{
		Title:       "Facts",
		Description: "True or false",
		StartTime:   now.Add(-time.Hour),
		EndTime:     now.Add(time.Hour),
		Status:      entity.ContestStatusPublished,
		Questions: []entity.Question{{
			Text:    "Is Go compiled?",
			Type:    entity.QuestionTypeTrueFalse,
			Points:  4,
			Options: entity.QuestionOptions{{Text: "True", IsCorrect: true}, {Text: "False"}},
		}},
	}
	c.ApplyDefaults()
	require.NoError(t, api.store.Contests().Create(context.Background(), c))
	base := fmt.Sprintf("/api/contests/%d", c.ID)

	w := api.do(http.MethodPost, base+"/join", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := fmt.Sprintf(`{"answers":[{"questionId":%d,"selectedAnswer":true}]}`, c.Questions[0].ID)
	w = api.do(http.MethodPost, base+"/submit", token, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"message":"Answers submitted successfully","score":4}`, w.Body.String(),
		"JSON true должен совпасть с вариантом \"True\"")
}

func TestRoleRestrictions(t *testing.T) {
	api := newTestAPI(t)
	_, userToken := api.user(t, "carol", entity.RoleUser)
	_, adminToken := api.user(t, "root", entity.RoleAdmin)
	now := time.Now()
	vip := api.contest(t, entity.AccessLevelVIP, now.Add(-time.Hour), now.Add(time.Hour))

	w := api.do(http.MethodGet, fmt.Sprintf("/api/contests/%d", vip.ID), userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "VIP конкурс недоступен обычному пользователю")

	w = api.do(http.MethodPost, fmt.Sprintf("/api/contests/%d/join", vip.ID), adminToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "Администратор не участвует в конкурсах")

	w = api.do(http.MethodPost, "/api/contests", userToken, gin.H{"title": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodGet, "/api/contests/admin", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodGet, "/api/contests", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String(), "Гость не видит VIP конкурсы")
}

func TestContestQuestions_HidesAnswersFromParticipants(t *testing.T) {
	api := newTestAPI(t)
	_, userToken := api.user(t, "dave", entity.RoleUser)
	_, adminToken := api.user(t, "root", entity.RoleAdmin)
	now := time.Now()
	c := api.contest(t, entity.AccessLevelNormal, now.Add(-time.Hour), now.Add(time.Hour))
	path := fmt.Sprintf("/api/contests/%d/questions", c.ID)

	w := api.do(http.MethodGet, path, userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "is_correct")

	w = api.do(http.MethodGet, path, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_correct":true`)
}

func TestAdminContestLifecycle(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.user(t, "root", entity.RoleAdmin)
	now := time.Now().UTC()

	w := api.do(http.MethodPost, "/api/contests", adminToken, gin.H{
		"title":       "Draft contest",
		"description": "Built step by step",
		"start_time":  now.Add(time.Hour),
		"end_time":    now.Add(2 * time.Hour),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, entity.ContestStatusDraft, created.Status)
	base := fmt.Sprintf("/api/contests/%d", created.ID)

	w = api.do(http.MethodPatch, base+"/status", adminToken, gin.H{"status": "published"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "Нельзя опубликовать конкурс без вопросов")

	w = api.do(http.MethodPost, base+"/questions", adminToken, gin.H{
		"question_text": "Is Go compiled?",
		"question_type": "true-false",
		"options":       []gin.H{{"text": "True", "is_correct": true}, {"text": "False"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(http.MethodPatch, base+"/status", adminToken, gin.H{"status": "published"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodPatch, base+"/status", adminToken, gin.H{"status": "draft"})
	assert.Equal(t, http.StatusConflict, w.Code, "Статус меняется только вперёд")

	w = api.do(http.MethodPost, base+"/process-prizes", adminToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code, "Конкурс ещё не закончился")

	w = api.do(http.MethodPost, "/api/contests/999/process-prizes", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProcessPrizes_OnlyOnce(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.user(t, "root", entity.RoleAdmin)
	now := time.Now()
	c := api.contest(t, entity.AccessLevelNormal, now.Add(-2*time.Hour), now.Add(-time.Second))
	path := fmt.Sprintf("/api/contests/%d/process-prizes", c.ID)

	w := api.do(http.MethodPost, path, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodPost, path, adminToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUserProfileAccess(t *testing.T) {
	api := newTestAPI(t)
	owner, ownerToken := api.user(t, "erin", entity.RoleUser)
	_, otherToken := api.user(t, "frank", entity.RoleUser)
	_, adminToken := api.user(t, "root", entity.RoleAdmin)

	w := api.do(http.MethodGet, fmt.Sprintf("/api/users/%d/history", owner.ID), ownerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, fmt.Sprintf("/api/users/%d/prizes", owner.ID), otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPatch, fmt.Sprintf("/api/admin/users/%d/role", owner.ID), adminToken, gin.H{"role": "vip"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"role":"vip"`)

	w = api.do(http.MethodPatch, fmt.Sprintf("/api/admin/users/%d/role", owner.ID), adminToken, gin.H{"role": "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodGet, "/api/admin/users?page=1&page_size=2", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"per_page":2`)
}

func seedExportContest(t *testing.T, api *testAPI) (*entity.Contest, string) {
	t.Helper()
	_, adminToken := api.user(t, "root", entity.RoleAdmin)
	player, _ := api.user(t, "=HYPERLINK", entity.RoleUser)
	now := time.Now()
	c := api.contest(t, entity.AccessLevelNormal, now.Add(-time.Hour), now.Add(time.Hour))

	submitted := now
	require.NoError(t, api.store.Participations().CompleteSubmission(context.Background(), &entity.Participation{
		ContestID:   c.ID,
		UserID:      player.ID,
		JoinedAt:    now,
		Score:       10,
		Completed:   true,
		SubmittedAt: &submitted,
	}))
	return c, adminToken
}

func TestExportLeaderboard_CSV(t *testing.T) {
	api := newTestAPI(t)
	c, adminToken := seedExportContest(t, api)

	w := api.do(http.MethodGet, fmt.Sprintf("/api/contests/%d/leaderboard/export?format=csv", c.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")

	body := w.Body.Bytes()
	require.True(t, bytes.HasPrefix(body, []byte{0xEF, 0xBB, 0xBF}), "CSV должен начинаться с BOM")
	lines := strings.Split(strings.TrimSpace(string(body[3:])), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Rank,User ID,Username,Score,Submitted At", lines[0])
	assert.Contains(t, lines[1], "'=HYPERLINK", "Формула должна экранироваться")
}

func TestExportLeaderboard_XLSX(t *testing.T) {
	api := newTestAPI(t)
	c, adminToken := seedExportContest(t, api)

	w := api.do(http.MethodGet, fmt.Sprintf("/api/contests/%d/leaderboard/export?format=xlsx", c.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Leaderboard")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Username", rows[0][2])
	assert.Equal(t, "'=HYPERLINK", rows[1][2])

	w = api.do(http.MethodGet, fmt.Sprintf("/api/contests/%d/leaderboard/export?format=pdf", c.ID), adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListContests_ActiveOnly(t *testing.T) {
	api := newTestAPI(t)
	now := time.Now()
	running := api.contest(t, entity.AccessLevelNormal, now.Add(-time.Hour), now.Add(time.Hour))
	api.contest(t, entity.AccessLevelNormal, now.Add(-3*time.Hour), now.Add(-2*time.Hour))

	w := api.do(http.MethodGet, "/api/contests?active=true", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.EqualValues(t, running.ID, list[0]["id"])

	w = api.do(http.MethodGet, "/api/contests", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)
}

func TestMetricsEndpoint_CountsRequestsByRoute(t *testing.T) {
	api := newTestAPIWithConfig(t, RouterConfig{Metrics: metrics.New()})
	c := api.contest(t, entity.AccessLevelNormal, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))

	api.do(http.MethodGet, fmt.Sprintf("/api/contests/%d/leaderboard", c.ID), "", nil)
	api.do(http.MethodGet, "/api/contests/999/leaderboard", "", nil)
	api.do(http.MethodGet, "/api/auth/me", "", nil)

	w := api.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `contest_http_requests_total{method="GET",route="/api/contests/:id/leaderboard",status="200"} 1`)
	assert.Contains(t, body, `contest_http_requests_total{method="GET",route="/api/contests/:id/leaderboard",status="404"} 1`)
	assert.Contains(t, body, `contest_http_requests_total{method="GET",route="/api/auth/me",status="401"} 1`)
}

func TestMetricsEndpoint_DisabledByDefault(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleError_StatusMapping(t *testing.T) {
	cases := map[error]int{
		apperrors.ErrNotFound:                 http.StatusNotFound,
		apperrors.ErrValidation:               http.StatusUnprocessableEntity,
		apperrors.ErrUnauthorized:             http.StatusUnauthorized,
		apperrors.ErrForbidden:                http.StatusForbidden,
		apperrors.ErrConflict:                 http.StatusConflict,
		apperrors.ErrContestClosed:            http.StatusConflict,
		apperrors.ErrContestStillRunning:      http.StatusConflict,
		apperrors.ErrAlreadySubmitted:         http.StatusConflict,
		apperrors.ErrAlreadyJoined:            http.StatusConflict,
		apperrors.ErrPrizesAlreadyDistributed: http.StatusConflict,
		apperrors.ErrInvalidStatusTransition:  http.StatusConflict,
		apperrors.ErrConfiguration:            http.StatusInternalServerError,
	}
	for err, code := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		handleError(c, zap.NewNop(), fmt.Errorf("wrapped: %w", err))
		assert.Equal(t, code, w.Code, err.Error())
	}
}

func TestHandleError_ConfigurationIsDistinctFromInternal(t *testing.T) {
	respond := func(err error) map[string]string {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
		handleError(c, zap.NewNop(), err)
		require.Equal(t, http.StatusInternalServerError, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return body
	}

	cfgBody := respond(fmt.Errorf("evaluate question #3: %w: unknown type \"essay\"", apperrors.ErrConfiguration))
	assert.Equal(t, "configuration_error", cfgBody["error_type"])
	assert.NotContains(t, cfgBody["error"], "essay", "Детали конфигурации не уходят клиенту")

	internal := respond(errors.New("db is on fire"))
	assert.Equal(t, "internal_error", internal["error_type"])
	assert.Equal(t, "Internal server error", internal["error"])
}
