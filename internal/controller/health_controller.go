package controller

import (
	"context"
	"smart_lms_analytics/internal/util"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthController struct {
	predictor  Predictor
	components map[string]Pinger
	version    string
}

func NewHealthController(predictor Predictor, components map[string]Pinger, version string) *HealthController {
	return &HealthController{predictor: predictor, components: components, version: version}
}

// @Summary 服务首页
// @Description 服务名称、版本与接口列表
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Router / [get]
func (c *HealthController) Index(ctx *gin.Context) {
	util.Success(ctx, gin.H{
		"service": util.ServiceName,
		"version": c.version,
		"endpoints": gin.H{
			"health":              "/api/health",
			"model_info":          "/api/model/info",
			"features":            "/api/features",
			"sample":              "/api/sample",
			"predict":             "/api/predict",
			"batch_predict":       "/api/predict/batch",
			"csv_predict":         "/api/predict/csv",
			"recommendations":     "/api/recommendations",
			"audit":               "/api/predictions/audit",
			"chat":                "/api/chat",
			"analytics_chat":      "/api/chat/analytics",
			"heatmap":             "/api/heatmap",
			"chat_test":           "/api/chat/test",
			"student_predictions": "/api/analytics/predictions/{studentId}",
		},
	})
}

// @Summary 健康检查
// @Description 模型与外部依赖状态
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(c.components))
	for name := range c.components {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "healthy"
	components := gin.H{}
	for _, name := range names {
		if err := c.components[name](reqCtx); err != nil {
			components[name] = "down"
			status = "degraded"
			continue
		}
		components[name] = "up"
	}

	loaded := c.predictor.ModelLoaded()
	if !loaded {
		status = "degraded"
	}

	util.Success(ctx, gin.H{
		"status":       status,
		"model_loaded": loaded,
		"components":   components,
		"version":      c.version,
	})
}
