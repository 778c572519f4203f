package util

import (
	"errors"
	"net/http"
	"smart_lms_analytics/pkg/logger"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Success         bool        `json:"success"`
	Data            interface{} `json:"data,omitempty"`
	Error           string      `json:"error,omitempty"`
	MissingFeatures []string    `json:"missing_features,omitempty"`
	Timestamp       string      `json:"timestamp"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: now(),
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Success:   false,
		Error:     message,
		Timestamp: now(),
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

// MissingFeatures 400，列出缺失的特征
func MissingFeatures(c *gin.Context, missing []string) {
	c.JSON(http.StatusBadRequest, Response{
		Success:         false,
		Error:           "Missing required features",
		MissingFeatures: missing,
		Timestamp:       now(),
	})
}

func InternalServerError(c *gin.Context, err error) {
	Error(c, http.StatusInternalServerError, err.Error())
}

// LogInternalError 记录错误并按统一策略返回：缺失特征 400，其余 500
func LogInternalError(c *gin.Context, err error) {
	var mf *MissingFeaturesError
	if errors.As(err, &mf) {
		MissingFeatures(c, mf.Missing)
		return
	}
	logger.Log.Error("Internal server error",
		zap.String("path", c.FullPath()),
		zap.Error(err))
	InternalServerError(c, err)
}
