package handlers

import (
	"net/http"
	"strconv"

	"legalflow/internal/models"
	"legalflow/internal/services"

	"github.com/gin-gonic/gin"
)

// LogsHandler exposes the request-audit trail. Every query is scoped to the
// caller: log rows surface only through documents the caller owns.
type LogsHandler struct {
	activityLogService *services.ActivityLogService
	documents          *services.DocumentService
}

func NewLogsHandler(activityLogService *services.ActivityLogService, documents *services.DocumentService) *LogsHandler {
	return &LogsHandler{
		activityLogService: activityLogService,
		documents:          documents,
	}
}

type LogsResponse struct {
	Logs       interface{} `json:"logs"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// GetAllLogs returns the caller's activity logs with pagination, optionally
// filtered by method, path or document id.
func (h *LogsHandler) GetAllLogs(c *gin.Context) {
	limit, page := parsePagination(c)
	offset := (page - 1) * limit

	userID := currentUserID(c)
	method := c.Query("method")
	path := c.Query("path")
	documentID := c.Query("document_id")

	var logs []models.ActivityLog
	var total int64
	var err error

	switch {
	case documentID != "":
		if _, err := h.documents.Get(c.Request.Context(), userID, documentID); err != nil {
			respondError(c, err)
			return
		}
		logs, total, err = h.activityLogService.GetLogsByDocument(documentID, limit, offset)
	case method != "":
		logs, total, err = h.activityLogService.GetLogsByMethod(userID, method, limit, offset)
	case path != "":
		logs, total, err = h.activityLogService.GetLogsByPath(userID, path, limit, offset)
	default:
		logs, total, err = h.activityLogService.GetAllLogs(userID, limit, offset)
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch logs"})
		return
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	c.JSON(http.StatusOK, LogsResponse{
		Logs:       logs,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	})
}

// GetDocumentLogs returns the request history of one of the caller's
// documents. Ownership is checked before any log row is read.
func (h *LogsHandler) GetDocumentLogs(c *gin.Context) {
	limit, page := parsePagination(c)
	offset := (page - 1) * limit

	documentID := c.Param("documentId")
	if _, err := h.documents.Get(c.Request.Context(), currentUserID(c), documentID); err != nil {
		respondError(c, err)
		return
	}

	logs, total, err := h.activityLogService.GetLogsByDocument(documentID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch logs"})
		return
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	c.JSON(http.StatusOK, LogsResponse{
		Logs:       logs,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	})
}

// GetLogStats returns aggregate request counts over the caller's documents.
func (h *LogsHandler) GetLogStats(c *gin.Context) {
	logs, total, err := h.activityLogService.GetAllLogs(currentUserID(c), 0, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch log stats"})
		return
	}

	methodCounts := make(map[string]int)
	pathCounts := make(map[string]int)
	statusCounts := make(map[int]int)

	for _, log := range logs {
		methodCounts[log.Method]++
		pathCounts[log.Path]++
		statusCounts[log.StatusCode]++
	}

	c.JSON(http.StatusOK, gin.H{
		"total_requests": total,
		"methods":        methodCounts,
		"paths":          pathCounts,
		"status_codes":   statusCounts,
	})
}

func parsePagination(c *gin.Context) (limit, page int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 1000 { // Prevent too large requests
		limit = 1000
	}

	page, err = strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page <= 0 {
		page = 1
	}
	return limit, page
}
