package middleware

import (
	"fmt"
	"net/http"
	"smart_lms_analytics/internal/util"
	"smart_lms_analytics/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery panic 转成统一的 500 响应
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Log.Error("Panic recovered",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString("request_id")),
			zap.Any("panic", recovered))
		util.Error(c, http.StatusInternalServerError, fmt.Sprintf("%v", recovered))
		c.Abort()
	})
}
