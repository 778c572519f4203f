package model

// PredictionAudit 本服务自己的预测审计表
// swagger:model PredictionAudit
type PredictionAudit struct {
	SnowflakeBase
	StudentID            string  `gorm:"size:64;index" json:"studentId"`
	RiskProbability      float64 `json:"riskProbability"`
	RiskLevel            string  `gorm:"size:16;index" json:"riskLevel"`
	AtRisk               bool    `json:"atRisk"`
	Factors              string  `gorm:"size:255" json:"factors"`
	RecommendationSource string  `gorm:"size:32" json:"recommendationSource"`
	Channel              string  `gorm:"size:16" json:"channel"`
}

func (PredictionAudit) TableName() string {
	return "prediction_audits"
}
