package model

import "time"

// Recommendation 解释、行动步骤和激励语
type Recommendation struct {
	Explanation         string    `json:"explanation"`
	ActionSteps         []string  `json:"action_steps"`
	Motivation          string    `json:"motivation"`
	GeneratedAt         time.Time `json:"generated_at"`
	Source              string    `json:"source"`
	Model               string    `json:"model,omitempty"`
	PersonalizationUsed bool      `json:"personalization_used"`
	FallbackReason      string    `json:"fallback_reason,omitempty"`
}

// IsComplete 三个字段都非空
func (r *Recommendation) IsComplete() bool {
	return r != nil && r.Explanation != "" && len(r.ActionSteps) > 0 && r.Motivation != ""
}

// StudentContext 学生的年级、学期与专业
type StudentContext struct {
	Year           int    `json:"year"`
	Semester       int    `json:"semester"`
	Specialization string `json:"specialization"`
}

type RecommendationInput struct {
	StudentData      FeatureRecord
	RiskLevel        string
	RiskProbability  float64
	RiskFactors      []RiskFactor
	ImprovementTrend bool
	Context          *StudentContext
}

// RecommendationRequest POST /api/recommendations 的请求体
type RecommendationRequest struct {
	StudentID       string          `json:"student_id"`
	RiskLevel       string          `json:"risk_level" binding:"required,oneof=low medium high"`
	RiskProbability float64         `json:"risk_probability" binding:"gte=0,lte=1"`
	RiskFactors     []RiskFactor    `json:"risk_factors"`
	StudentData     FeatureRecord   `json:"student_data"`
	Context         *StudentContext `json:"student_context"`
}

// HistoryEntry 单个学生的一次风险记录
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	RiskProb  float64   `json:"risk_prob"`
	RiskLevel string    `json:"risk_level"`
}
