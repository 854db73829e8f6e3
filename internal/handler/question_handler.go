package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
	"github.com/kpsahani/Contest-Participation-System/internal/handler/dto"
	"github.com/kpsahani/Contest-Participation-System/internal/service"
)

// QuestionHandler обрабатывает управление вопросами (admin)
type QuestionHandler struct {
	questionService *service.QuestionService
	logger          *zap.Logger
}

// NewQuestionHandler создает обработчик вопросов
func NewQuestionHandler(questionService *service.QuestionService, logger *zap.Logger) *QuestionHandler {
	return &QuestionHandler{questionService: questionService, logger: namedLogger(logger, "QuestionHandler")}
}

// AddToContest создает вопрос в черновике конкурса
func (h *QuestionHandler) AddToContest(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	var req dto.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	question := req.ToEntity()
	question.ContestID = &contestID
	if err := h.questionService.CreateQuestion(c.Request.Context(), &question); err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewQuestionResponse(&question, true))
}

// BulkCreate создает пачку вопросов: все или ни одного
func (h *QuestionHandler) BulkCreate(c *gin.Context) {
	var req dto.BulkQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	questions := make([]entity.Question, len(req.Questions))
	for i, q := range req.Questions {
		questions[i] = q.ToEntity()
		questions[i].ContestID = req.ContestID
	}
	if err := h.questionService.BulkCreate(c.Request.Context(), questions); err != nil {
		handleError(c, h.logger, err)
		return
	}

	resp := make([]dto.QuestionResponse, len(questions))
	for i := range questions {
		resp[i] = dto.NewQuestionResponse(&questions[i], true)
	}
	c.JSON(http.StatusCreated, gin.H{"created": len(resp), "questions": resp})
}

// UpdateQuestion изменяет вопрос
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	questionID := c.MustGet("questionID").(uint)

	var req dto.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	update := req.ToEntity()
	question, err := h.questionService.UpdateQuestion(c.Request.Context(), questionID, &update)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewQuestionResponse(question, true))
}

// DeleteQuestion удаляет вопрос
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	questionID := c.MustGet("questionID").(uint)

	if err := h.questionService.DeleteQuestion(c.Request.Context(), questionID); err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
