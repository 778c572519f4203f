package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

const (
	MimeCSV         = "text/csv"
	MimeJSON        = "application/json"
	MimeOctetStream = "application/octet-stream"
)

// 风险等级
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// 推荐来源
const (
	SourceRules         = "intelligent_rules"
	SourceGroq          = "groq"
	SourceLocalLLM      = "local_llm"
	SourceGemini        = "gemini"
	SourceBasicFallback = "basic_fallback"
)

// 聊天模块
const (
	ModuleProjectTask = "project_task"
	ModuleAnalytics   = "learning_analytics"
)

const (
	LabelHighRisk     = "High Risk"
	LabelLowModerate  = "Low/Moderate Risk"
	ServiceName       = "Smart LMS Learning Analytics API"
	DefaultCourseName = "Unknown Course"
)
