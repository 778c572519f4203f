package app

import (
	"smart_lms_analytics/docs"
	"smart_lms_analytics/internal/config"
	"smart_lms_analytics/internal/middleware"
	"smart_lms_analytics/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	docs.SwaggerInfo.Version = cfg.Server.Version
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/", c.health.Index)

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由；未配置密钥时放行
	secret := ""
	if cfg.Auth.Enabled {
		secret = cfg.Auth.JWTSecret
	}
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(secret))
	{
		a.registerPredictionRoutes(authGroup, c)
		a.registerChatRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.GET("/features", c.prediction.Features)
		public.GET("/sample", c.prediction.Sample)
	}
}

func (a *App) registerPredictionRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/model/info", c.prediction.ModelInfo)
	rg.POST("/predict", c.prediction.Predict)
	rg.POST("/predict/batch", c.prediction.PredictBatch)
	rg.POST("/predict/csv", c.prediction.PredictCSV)
	rg.GET("/predictions/audit", c.prediction.AuditLog)
	rg.POST("/recommendations", c.recommendation.Generate)
}

func (a *App) registerChatRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.POST("/chat", c.chat.Chat)
	rg.POST("/chat/analytics", c.chat.Analytics)
	rg.POST("/chat/test", c.chat.TestConnection)
	rg.POST("/heatmap", c.chat.Heatmap)
	rg.GET("/analytics/predictions/:studentId", c.chat.StudentPredictions)
}
