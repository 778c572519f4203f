package model

import "time"

type RiskFactor struct {
	Factor      string  `json:"factor"`
	Description string  `json:"description"`
	Value       float64 `json:"value"`
	Severity    string  `json:"severity"`
}

// PredictionResult 单条预测结果
type PredictionResult struct {
	AtRisk          bool            `json:"at_risk"`
	RiskProbability float64         `json:"risk_probability"`
	Confidence      float64         `json:"confidence"`
	RiskLevel       string          `json:"risk_level"`
	RiskFactors     []RiskFactor    `json:"risk_factors"`
	Recommendations *Recommendation `json:"recommendations,omitempty"`
}

type PredictionResponse struct {
	StudentID  string            `json:"student_id,omitempty"`
	Prediction *PredictionResult `json:"prediction"`
}

const (
	BatchStatusSuccess = "success"
	BatchStatusError   = "error"
)

type BatchItem struct {
	StudentID  string            `json:"student_id"`
	Status     string            `json:"status"`
	Prediction *PredictionResult `json:"prediction,omitempty"`
	Error      string            `json:"error,omitempty"`
}

type BatchRequest struct {
	Students []FeatureRecord `json:"students" binding:"required"`
}

type BatchResponse struct {
	Predictions []BatchItem `json:"predictions"`
	Total       int         `json:"total"`
	Successful  int         `json:"successful"`
}

type Thresholds struct {
	High   float64 `json:"high"`
	Medium float64 `json:"medium"`
	Low    float64 `json:"low"`
}

type ModelInfo struct {
	ModelType           string     `json:"model_type"`
	ModelLoaded         bool       `json:"model_loaded"`
	NumericFeatures     int        `json:"numeric_features"`
	CategoricalFeatures int        `json:"categorical_features"`
	TotalFeatures       int        `json:"total_features"`
	FeatureNames        []string   `json:"feature_names"`
	RiskThresholds      Thresholds `json:"risk_thresholds"`
}

// CSVBatch CSV 上传的结果；MissingFeatures 为表头缺少、按 0 处理的必需特征
type CSVBatch struct {
	Records         []map[string]interface{} `json:"records"`
	Total           int                      `json:"total"`
	MissingFeatures []string                 `json:"missing_features,omitempty"`
}

// StoredPrediction LMS 写入 predictions 集合的历史预测，只读
type StoredPrediction struct {
	StudentID       interface{}            `bson:"studentId" json:"studentId"`
	StudentIDNumber string                 `bson:"studentIdNumber" json:"studentIdNumber"`
	InputData       map[string]interface{} `bson:"inputData" json:"inputData"`
	Prediction      StoredRisk             `bson:"prediction" json:"prediction"`
	CreatedAt       time.Time              `bson:"createdAt" json:"createdAt"`
}

type StoredRisk struct {
	AtRisk          bool    `bson:"at_risk" json:"at_risk"`
	Confidence      float64 `bson:"confidence" json:"confidence"`
	RiskLevel       string  `bson:"risk_level" json:"risk_level"`
	RiskProbability float64 `bson:"risk_probability" json:"risk_probability"`
}
