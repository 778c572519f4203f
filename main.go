// @title Smart LMS Analytics API
// @version 1.0.0
// @description 学生风险预测、学习建议与聊天助手服务。

// @host localhost:5000
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"log"
	"smart_lms_analytics/internal/app"
	"smart_lms_analytics/internal/config"
	"smart_lms_analytics/pkg/logger"
)

func main() {
	configDir := flag.String("config", "configs", "配置文件所在目录")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	application.Run()
}
