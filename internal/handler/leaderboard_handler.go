package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
	"github.com/kpsahani/Contest-Participation-System/internal/middleware"
	"github.com/kpsahani/Contest-Participation-System/internal/service"
	"github.com/kpsahani/Contest-Participation-System/internal/websocket"
)

// globalLeaderboardID - значение :id для общего лидерборда
const globalLeaderboardID = "all"

// LeaderboardHandler отдаёт лидерборды по HTTP, в файлах и через WebSocket
type LeaderboardHandler struct {
	leaderboardService *service.LeaderboardService
	contestService     *service.ContestService
	hub                *websocket.Hub
	logger             *zap.Logger
}

// NewLeaderboardHandler создает обработчик лидербордов. hub может быть nil.
func NewLeaderboardHandler(
	leaderboardService *service.LeaderboardService,
	contestService *service.ContestService,
	hub *websocket.Hub,
	logger *zap.Logger,
) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
		contestService:     contestService,
		hub:                hub,
		logger:             namedLogger(logger, "LeaderboardHandler"),
	}
}

// GetLeaderboard возвращает лидерборд конкурса или общий (":id" = "all")
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	param := c.Param("id")
	if param == globalLeaderboardID {
		entries, err := h.leaderboardService.GetGlobalLeaderboard(c.Request.Context())
		if err != nil {
			handleError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, entries)
		return
	}

	id, err := strconv.ParseUint(param, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}
	entries, err := h.leaderboardService.GetContestLeaderboard(c.Request.Context(), uint(id))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// ExportLeaderboard выгружает лидерборд конкурса в CSV или Excel (admin)
// GET /api/contests/:id/leaderboard/export?format=csv|xlsx
func (h *LeaderboardHandler) ExportLeaderboard(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
		return
	}

	entries, err := h.leaderboardService.GetContestLeaderboard(c.Request.Context(), contestID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	filename := fmt.Sprintf("contest_%d_leaderboard_%s", contestID, time.Now().Format("2006-01-02"))
	if format == "xlsx" {
		h.exportXLSX(c, entries, filename)
		return
	}
	h.exportCSV(c, entries, filename)
}

var exportHeaders = []string{"Rank", "User ID", "Username", "Score", "Submitted At"}

func exportRow(e entity.LeaderboardEntry) []string {
	submitted := ""
	if e.SubmittedAt != nil {
		submitted = e.SubmittedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		strconv.Itoa(e.Rank),
		strconv.FormatUint(uint64(e.UserID), 10),
		sanitizeForExcel(e.Username),
		strconv.Itoa(e.Score),
		submitted,
	}
}

// exportCSV пишет CSV с BOM, чтобы Excel правильно открыл UTF-8
func (h *LeaderboardHandler) exportCSV(c *gin.Context, entries []entity.LeaderboardEntry, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))
	c.Status(http.StatusOK)

	if _, err := c.Writer.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		h.logger.Warn("csv export aborted", zap.Error(err))
		return
	}

	writer := csv.NewWriter(c.Writer)
	_ = writer.Write(exportHeaders)
	for _, e := range entries {
		_ = writer.Write(exportRow(e))
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		h.logger.Warn("csv export failed", zap.Error(err))
	}
}

// exportXLSX пишет Excel через StreamWriter
func (h *LeaderboardHandler) exportXLSX(c *gin.Context, entries []entity.LeaderboardEntry, filename string) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Leaderboard"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		handleError(c, h.logger, err)
		return
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		handleError(c, h.logger, fmt.Errorf("create stream writer: %w", err))
		return
	}

	header := make([]interface{}, len(exportHeaders))
	for i, v := range exportHeaders {
		header[i] = v
	}
	if err := sw.SetRow("A1", header); err != nil {
		handleError(c, h.logger, err)
		return
	}
	for i, e := range entries {
		submitted := ""
		if e.SubmittedAt != nil {
			submitted = e.SubmittedAt.UTC().Format(time.RFC3339)
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{e.Rank, e.UserID, sanitizeForExcel(e.Username), e.Score, submitted}
		if err := sw.SetRow(cell, row); err != nil {
			handleError(c, h.logger, fmt.Errorf("write row %d: %w", i+2, err))
			return
		}
	}
	if err := sw.Flush(); err != nil {
		handleError(c, h.logger, err)
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		h.logger.Warn("xlsx export failed", zap.Error(err))
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

// Subscribe подписывает клиента на обновления лидерборда конкурса через WebSocket.
// GET /ws/contests/:id/leaderboard
func (h *LeaderboardHandler) Subscribe(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Live updates are disabled"})
		return
	}

	if _, err := h.contestService.GetContest(c.Request.Context(), contestID, middleware.RoleFrom(c)); err != nil {
		handleError(c, h.logger, err)
		return
	}
	snapshot, err := h.leaderboardService.GetContestLeaderboard(c.Request.Context(), contestID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	if snapshot == nil {
		snapshot = []entity.LeaderboardEntry{}
	}

	userID := strconv.FormatUint(uint64(middleware.UserIDFrom(c)), 10)
	if err := h.hub.Serve(c.Writer, c.Request, contestID, userID, snapshot); err != nil {
		// Upgrade уже записал ответ клиенту
		h.logger.Debug("websocket upgrade failed", zap.Uint("contest_id", contestID), zap.Error(err))
	}
}
