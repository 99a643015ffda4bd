package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"legalflow/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActivityLogService struct {
	db *gorm.DB
}

func NewActivityLogService(db *gorm.DB) *ActivityLogService {
	return &ActivityLogService{db: db}
}

func (s *ActivityLogService) LogRequest(c *gin.Context, statusCode int, responseTime time.Duration) {
	clientIP := c.ClientIP()
	if clientIP == "" {
		clientIP = c.Request.RemoteAddr
	}

	queryParams := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			queryParams[key] = values[0]
		}
	}
	// Signing tokens are credentials; keep them out of the audit table.
	delete(queryParams, "token")

	var requestBody string
	if body, exists := c.Get("request_body"); exists {
		if bodyStr, ok := body.(string); ok {
			requestBody = bodyStr
		}
	}

	queryParamsJSON, _ := json.Marshal(queryParams)

	activityLog := &models.ActivityLog{
		ID:           uuid.New().String(),
		Method:       c.Request.Method,
		Path:         c.Request.URL.Path,
		DocumentID:   c.Param("documentId"),
		UserAgent:    c.Request.UserAgent(),
		IPAddress:    clientIP,
		RequestBody:  requestBody,
		QueryParams:  string(queryParamsJSON),
		StatusCode:   statusCode,
		ResponseTime: responseTime.Milliseconds(),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	// Save to database (don't block the request if this fails)
	go func() {
		if err := s.db.Create(activityLog).Error; err != nil {
			fmt.Printf("Failed to save activity log: %v\n", err)
		}
	}()
}

// ownerScope restricts log queries to rows tied to a document the caller
// owns. Logged bodies carry signatures and form data, so rows are never
// visible across accounts; rows bound to no document surface nowhere.
func (s *ActivityLogService) ownerScope(userID string) *gorm.DB {
	owned := s.db.Model(&models.Document{}).Select("id").Where("user_id = ?", userID)
	return s.db.Where("document_id IN (?)", owned)
}

func (s *ActivityLogService) GetAllLogs(userID string, limit int, offset int) ([]models.ActivityLog, int64, error) {
	return s.queryLogs(s.ownerScope(userID), limit, offset)
}

func (s *ActivityLogService) GetLogsByMethod(userID, method string, limit int, offset int) ([]models.ActivityLog, int64, error) {
	return s.queryLogs(s.ownerScope(userID).Where("method = ?", strings.ToUpper(method)), limit, offset)
}

func (s *ActivityLogService) GetLogsByPath(userID, path string, limit int, offset int) ([]models.ActivityLog, int64, error) {
	return s.queryLogs(s.ownerScope(userID).Where("path LIKE ?", "%"+path+"%"), limit, offset)
}

// GetLogsByDocument trusts the caller to have verified document ownership.
func (s *ActivityLogService) GetLogsByDocument(documentID string, limit int, offset int) ([]models.ActivityLog, int64, error) {
	return s.queryLogs(s.db.Where("document_id = ?", documentID), limit, offset)
}

func (s *ActivityLogService) queryLogs(query *gorm.DB, limit int, offset int) ([]models.ActivityLog, int64, error) {
	var logs []models.ActivityLog
	var total int64

	if err := query.Model(&models.ActivityLog{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count logs: %w", err)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch logs: %w", err)
	}

	return logs, total, nil
}

// LoggingMiddleware records every request into the activity log.
func (s *ActivityLogService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Capture request body for POST requests
		if c.Request.Method == "POST" && c.Request.Body != nil {
			bodyBytes, err := io.ReadAll(c.Request.Body)
			if err == nil {
				// Restore the body for other handlers
				c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

				if len(bodyBytes) > 0 {
					if len(bodyBytes) > 10000 { // 10KB limit
						c.Set("request_body", fmt.Sprintf("[Large body: %d bytes] %s...", len(bodyBytes), string(bodyBytes[:100])))
					} else {
						c.Set("request_body", string(bodyBytes))
					}
				}
			}
		}

		c.Next()

		duration := time.Since(start)
		s.LogRequest(c, c.Writer.Status(), duration)
	}
}
