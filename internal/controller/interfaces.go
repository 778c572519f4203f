package controller

import (
	"context"
	"io"
	"smart_lms_analytics/internal/model"
)

// 控制器依赖的服务接口，由 service 包实现

type Predictor interface {
	ModelLoaded() bool
	ModelInfo() *model.ModelInfo
	Assess(ctx context.Context, record model.FeatureRecord, studentCtx *model.StudentContext, channel string) (*model.PredictionResponse, error)
	PredictBatch(ctx context.Context, records []model.FeatureRecord) *model.BatchResponse
	PredictCSV(ctx context.Context, r io.Reader) (*model.CSVBatch, error)
	AuditLog(ctx context.Context, studentID string, limit int) ([]model.PredictionAudit, error)
}

type RecommendationGenerator interface {
	Generate(ctx context.Context, in model.RecommendationInput, studentID string) *model.Recommendation
	BackendName() string
}

type ChatHandler interface {
	Handle(ctx context.Context, query, studentID string) (*model.ChatResponse, error)
}

type ProjectAssistant interface {
	ChatHandler
	Heatmap(ctx context.Context, studentID string) (*model.Heatmap, error)
	TestConnection(ctx context.Context, studentID string) (*model.ConnectionStatus, error)
}

type AnalyticsAssistant interface {
	ChatHandler
	GetPredictions(ctx context.Context, studentID string) (*model.StudentPrediction, error)
}

// Pinger 健康检查中的外部依赖
type Pinger func(ctx context.Context) error
