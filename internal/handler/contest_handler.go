package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
	"github.com/kpsahani/Contest-Participation-System/internal/handler/dto"
	"github.com/kpsahani/Contest-Participation-System/internal/middleware"
	"github.com/kpsahani/Contest-Participation-System/internal/service"
)

// ContestHandler обрабатывает запросы, связанные с конкурсами
type ContestHandler struct {
	contestService    *service.ContestService
	submissionService *service.SubmissionService
	prizeService      *service.PrizeService
	logger            *zap.Logger
}

// NewContestHandler создает обработчик конкурсов
func NewContestHandler(
	contestService *service.ContestService,
	submissionService *service.SubmissionService,
	prizeService *service.PrizeService,
	logger *zap.Logger,
) *ContestHandler {
	return &ContestHandler{
		contestService:    contestService,
		submissionService: submissionService,
		prizeService:      prizeService,
		logger:            namedLogger(logger, "ContestHandler"),
	}
}

// ListContests возвращает конкурсы, видимые роли запрашивающего.
// GET /api/contests?active=true - только идущие сейчас
func (h *ContestHandler) ListContests(c *gin.Context) {
	role := middleware.RoleFrom(c)
	var (
		contests []entity.Contest
		err      error
	)
	if c.Query("active") == "true" {
		contests, err = h.contestService.ListActiveContests(c.Request.Context(), role)
	} else {
		contests, err = h.contestService.ListContests(c.Request.Context(), role)
	}
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewContestListResponse(contests))
}

// ListAllContests возвращает все конкурсы, включая черновики (admin)
func (h *ContestHandler) ListAllContests(c *gin.Context) {
	contests, err := h.contestService.ListAllContests(c.Request.Context())
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewContestListResponse(contests))
}

// CreateContest создает конкурс вместе со встроенными вопросами (admin)
func (h *ContestHandler) CreateContest(c *gin.Context) {
	var req dto.CreateContestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	contest := req.ToEntity()
	if err := h.contestService.CreateContest(c.Request.Context(), contest, middleware.UserIDFrom(c)); err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewContestResponse(contest, true))
}

// GetContest возвращает конкурс без вопросов
func (h *ContestHandler) GetContest(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	contest, err := h.contestService.GetContest(c.Request.Context(), contestID, middleware.RoleFrom(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewContestResponse(contest, false))
}

// GetContestQuestions возвращает конкурс с вопросами.
// Правильные ответы видны администратору и всем после завершения конкурса.
func (h *ContestHandler) GetContestQuestions(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)
	role := middleware.RoleFrom(c)

	contest, err := h.contestService.GetContestWithQuestions(c.Request.Context(), contestID, role)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	reveal := role == entity.RoleAdmin || contest.Status == entity.ContestStatusCompleted
	c.JSON(http.StatusOK, dto.NewContestResponse(contest, reveal))
}

// JoinContest записывает пользователя в участники
func (h *ContestHandler) JoinContest(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	participation, err := h.contestService.JoinContest(c.Request.Context(), contestID, middleware.UserIDFrom(c), middleware.RoleFrom(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":       "Successfully joined the contest",
		"participation": participation,
	})
}

// SubmitAnswers принимает ответы участника
func (h *ContestHandler) SubmitAnswers(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	var req dto.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	inputs, err := req.ToInputs()
	if err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.submissionService.Submit(c.Request.Context(), contestID, middleware.UserIDFrom(c), inputs)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.SubmitResponse{Message: "Answers submitted successfully", Score: result.Score})
}

// UpdateStatus переводит конкурс в следующий статус (admin)
func (h *ContestHandler) UpdateStatus(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	contest, err := h.contestService.UpdateStatus(c.Request.Context(), contestID, req.Status)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewContestResponse(contest, false))
}

// ProcessPrizes распределяет призы завершившегося конкурса (admin)
func (h *ContestHandler) ProcessPrizes(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	winners, err := h.prizeService.DistributePrizes(c.Request.Context(), contestID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Prizes distributed successfully",
		"winners": winners,
	})
}

// AssignQuestions привязывает существующие вопросы к черновику конкурса (admin)
func (h *ContestHandler) AssignQuestions(c *gin.Context) {
	var req dto.AssignQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	assigned, err := h.contestService.AssignQuestions(c.Request.Context(), req.ContestID, req.QuestionIDs)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assigned": assigned})
}
