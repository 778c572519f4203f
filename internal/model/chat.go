package model

import "time"

type ChatRequest struct {
	Query     string `json:"query"`
	StudentID string `json:"studentId"`
}

type StudentRequest struct {
	StudentID string `json:"studentId"`
}

type ChatResponse struct {
	Response string `json:"response"`
	Intent   string `json:"intent"`
	Module   string `json:"module"`
}

type HeatmapDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Level int    `json:"level"`
}

type Heatmap struct {
	Heatmap         []HeatmapDay `json:"heatmap"`
	TotalDays       int          `json:"totalDays"`
	TotalActivities int          `json:"totalActivities"`
}

// ConnectionStatus 聊天模块的连通性自检结果
type ConnectionStatus struct {
	Status           string `json:"status"`
	StudentFound     bool   `json:"student_found"`
	StudentName      string `json:"student_name,omitempty"`
	CoursesCount     int    `json:"courses_count"`
	ProjectsCount    int    `json:"projects_count"`
	TasksCount       int    `json:"tasks_count"`
	ProgressCount    int    `json:"progress_count"`
	PredictionsCount int    `json:"predictions_count"`
	Recommender      string `json:"recommender"`
	Embedder         string `json:"embedder"`
}

// StudentPrediction GET /api/analytics/predictions/:studentId 的返回
type StudentPrediction struct {
	Prediction     *PredictionResult `json:"prediction"`
	StudentContext *StudentContext   `json:"student_context"`
	Source         string            `json:"source"`
	Timestamp      time.Time         `json:"timestamp"`
}
